package runner

import (
	"github.com/projectdiscovery/gologger"
	"github.com/whoshome/lanwatch/pkg/version"
)

var banner = `
   __                          __       __
  / /___ _____ _      ______ _/ /______/ /_
 / / __ ` + "`" + `/ __ \ | /| / / __ ` + "`" + `/ __/ ___/ __ \
/ / /_/ / / / / |/ |/ / /_/ / /_/ /__/ / / /
\_\__,_/_/ /_/|__/|__/\__,_/\__/\___/_/ /_/  ` + version.GetVersion() + `
`

// showBanner prints the project banner to the screen.
func showBanner() {
	gologger.Print().Msgf("%s\n", banner)
	gologger.Print().Msgf("\t\tgithub.com/whoshome/lanwatch\n\n")
}
