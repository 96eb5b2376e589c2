package main

import (
	"github.com/projectdiscovery/gologger"
	"github.com/whoshome/lanwatch/internal/runner"
)

func main() {
	options := runner.ParseOptions()

	r, err := runner.NewRunner(options)
	if err != nil {
		gologger.Fatal().Msgf("Could not create runner: %s\n", err)
	}

	if err := r.Run(); err != nil {
		gologger.Fatal().Msgf("Could not run discovery: %s\n", err)
	}
}
