package runner

import (
	"os"

	"github.com/logrusorgru/aurora/v4"
	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	envutil "github.com/projectdiscovery/utils/env"
	"github.com/whoshome/lanwatch/pkg/types"
	"github.com/whoshome/lanwatch/pkg/version"
)

var au *aurora.Aurora

var (
	NetworkRangeEnv = envutil.GetEnvOrDefault("LANWATCH_NETWORK_RANGE", "")
	DiscoveryLogEnv = envutil.GetEnvOrDefault("LANWATCH_DISCOVERY_LOG", "")
)

// Options contains the configuration options for a discovery run.
type Options struct {
	Discover bool
	CheckMAC string

	NetworkRange  string
	Methods       goflags.StringSlice
	PingTimeout   int
	ArpingTimeout int

	ConfigFile   string
	DiscoveryLog string
	JSON         bool

	Verbose bool
	Silent  bool
	NoColor bool
	Version bool
}

// ParseOptions parses the command line flags provided by a user
func ParseOptions() *Options {
	options := &Options{}
	flagSet := goflags.NewFlagSet()

	flagSet.SetDescription(`lanwatch discovers which devices are present on the local network using external reachability tools (ping, arping, arp).`)

	flagSet.CreateGroup("input", "Input",
		flagSet.BoolVarP(&options.Discover, "discover", "d", false, "sweep the network range and report every online host"),
		flagSet.StringVarP(&options.CheckMAC, "check", "c", "", "check if the device with the given mac address is online"),
	)

	flagSet.CreateGroup("config", "Config",
		flagSet.StringVarP(&options.ConfigFile, "config", "cf", "", "discovery settings file (json)"),
		flagSet.StringVarP(&options.NetworkRange, "network-range", "nr", NetworkRangeEnv, "network range to scan (cidr or 'auto')"),
		flagSet.StringSliceVarP(&options.Methods, "methods", "m", nil, "discovery methods to try in order (ping, arping)", goflags.CommaSeparatedStringSliceOptions),
		flagSet.IntVarP(&options.PingTimeout, "ping-timeout", "pt", 0, "ping timeout in seconds"),
		flagSet.IntVarP(&options.ArpingTimeout, "arping-timeout", "at", 0, "arping timeout in seconds"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.BoolVarP(&options.JSON, "json", "j", false, "write results as json"),
		flagSet.StringVarP(&options.DiscoveryLog, "discovery-log", "dl", DiscoveryLogEnv, "append discovery-attempt records to the given jsonl file"),
	)

	flagSet.CreateGroup("debug", "Debug",
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output"),
		flagSet.BoolVar(&options.Silent, "silent", false, "show only results"),
		flagSet.BoolVarP(&options.NoColor, "no-color", "nc", false, "disable output content coloring (ANSI escape codes)"),
		flagSet.BoolVar(&options.Version, "version", false, "show version of the project"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}

	// configure aurora for logging
	au = aurora.New(aurora.WithColors(true))

	options.configureOutput()

	showBanner()

	if options.Version {
		gologger.Info().Msgf("Current Version: %s\n", version.GetVersion())
		os.Exit(0)
	}

	if options.CheckMAC == "" && !options.Discover {
		// discovery is the default mode
		options.Discover = true
	}

	return options
}

// configureOutput configures the output on the screen
func (options *Options) configureOutput() {
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if options.NoColor {
		gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
		au = aurora.New(aurora.WithColors(false))
	}
	if options.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
}

// settings builds the discovery settings snapshot: defaults, overlaid with
// the settings file, overlaid with explicit CLI flags.
func (options *Options) settings() (types.Settings, error) {
	settings := types.DefaultSettings()

	if options.ConfigFile != "" {
		data, err := os.ReadFile(options.ConfigFile)
		if err != nil {
			return settings, err
		}
		settings = settings.MergeJSON(data)
	}

	if options.NetworkRange != "" {
		settings.NetworkRange = options.NetworkRange
	}
	if len(options.Methods) > 0 {
		methods := make([]types.ProbeMethod, 0, len(options.Methods))
		for _, method := range options.Methods {
			methods = append(methods, types.ProbeMethod(method))
		}
		settings.Methods = methods
	}
	if options.PingTimeout > 0 {
		settings.PingTimeout = options.PingTimeout
	}
	if options.ArpingTimeout > 0 {
		settings.ArpingTimeout = options.ArpingTimeout
	}

	return settings, nil
}
