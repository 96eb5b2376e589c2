package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/projectdiscovery/gologger"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/whoshome/lanwatch/pkg/discovery"
	"github.com/whoshome/lanwatch/pkg/discoverylog"
	"github.com/whoshome/lanwatch/pkg/types"
)

// Runner contains the internal logic of the program
type Runner struct {
	options  *Options
	engine   *discovery.Engine
	recorder *discoverylog.FileRecorder
}

// NewRunner instance
func NewRunner(options *Options) (*Runner, error) {
	settings, err := options.settings()
	if err != nil {
		return nil, fmt.Errorf("could not load settings: %w", err)
	}

	engineOptions := []discovery.Option{discovery.WithSettings(settings)}

	var recorder *discoverylog.FileRecorder
	if options.DiscoveryLog != "" {
		recorder, err = discoverylog.NewFileRecorder(options.DiscoveryLog)
		if err != nil {
			return nil, fmt.Errorf("could not open discovery log: %w", err)
		}
		engineOptions = append(engineOptions, discovery.WithRecorder(recorder))
	}

	return &Runner{
		options:  options,
		engine:   discovery.New(engineOptions...),
		recorder: recorder,
	}, nil
}

// Run the instance
func (r *Runner) Run() error {
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if info, err := host.Info(); err == nil {
		gologger.Verbose().Msgf("Running on %s (%s %s)", info.Hostname, info.OS, info.Platform)
	}

	if r.options.CheckMAC != "" {
		return r.runCheck(ctx)
	}
	return r.runDiscover(ctx)
}

// Close releases the resources held by the runner.
func (r *Runner) Close() {
	if r.recorder != nil {
		if err := r.recorder.Close(); err != nil {
			gologger.Warning().Msgf("Could not close discovery log: %s", err)
		}
	}
}

func (r *Runner) runCheck(ctx context.Context) error {
	mac := r.options.CheckMAC
	online := r.engine.CheckStatus(ctx, mac)

	if r.options.JSON {
		data, err := json.Marshal(map[string]any{"mac_address": mac, "is_online": online})
		if err != nil {
			return err
		}
		gologger.Silent().Msgf("%s", data)
		return nil
	}

	if online {
		gologger.Silent().Msgf("%s is %s", mac, au.Green("online"))
	} else {
		gologger.Silent().Msgf("%s is %s", mac, au.Red("offline"))
	}
	return nil
}

func (r *Runner) runDiscover(ctx context.Context) error {
	report, err := r.engine.DiscoverAll(ctx)
	if err != nil {
		return err
	}

	if r.options.JSON {
		data, err := json.Marshal(report)
		if err != nil {
			return err
		}
		gologger.Silent().Msgf("%s", data)
		return nil
	}

	for _, result := range report {
		gologger.Silent().Msgf("%s", formatHost(result))
	}
	return nil
}

func formatHost(result types.HostResult) string {
	line := au.Cyan(result.IP).String()
	if result.MAC != "" {
		line += fmt.Sprintf(" [%s]", au.Yellow(result.MAC))
	}
	if result.Hostname != "" {
		line += fmt.Sprintf(" (%s)", result.Hostname)
	}
	line += fmt.Sprintf(" via %s", result.Method)
	return line
}
