package discovery

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/whoshome/lanwatch/pkg/executil"
	"github.com/whoshome/lanwatch/pkg/types"
)

// probeVerdict is the internal tri-state probe outcome. It collapses to a
// boolean at the engine API boundary; the indeterminate reason only feeds
// debug logging.
type probeVerdict int

const (
	verdictOffline probeVerdict = iota
	verdictOnline
	verdictIndeterminate
)

type probeOutcome struct {
	verdict probeVerdict
	mac     string
	reason  string
}

func (o probeOutcome) online() bool {
	return o.verdict == verdictOnline
}

// probe runs a single reachability strategy against ip. Unknown methods are
// skipped with an indeterminate outcome.
func (e *Engine) probe(ctx context.Context, ip string, method types.ProbeMethod, settings types.Settings) probeOutcome {
	switch method {
	case types.MethodPing:
		return e.pingProbe(ctx, ip, settings)
	case types.MethodArping:
		return e.arpingProbe(ctx, ip, settings)
	default:
		gologger.Debug().Msgf("Skipping unknown discovery method %q for %s", method, ip)
		return probeOutcome{verdict: verdictIndeterminate, reason: "unknown method"}
	}
}

// pingProbe sends a single ICMP echo request via the ping tool. The
// Unix-style argument form is tried first, then the Windows-style form when
// the first exits quickly without success: the execution environment is not
// trusted to match the host OS, so both forms are attempted defensively.
// A timed-out first form ends the probe immediately, the fallback is only for
// a fast negative exit. Success is defined solely by the tool's exit status.
func (e *Engine) pingProbe(ctx context.Context, ip string, settings types.Settings) probeOutcome {
	timeout := settings.PingTimeout
	// +1s grace over the tool's own timeout so a stuck subprocess cannot
	// block the probe.
	budget := time.Duration(timeout)*time.Second + time.Second

	result, err := e.exec.Run(ctx, budget, "ping", "-c", "1", "-W", strconv.Itoa(timeout), ip)
	if err == nil && result.ExitOK {
		return probeOutcome{verdict: verdictOnline}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return probeOutcome{verdict: verdictIndeterminate, reason: "ping timed out"}
	}

	result, err = e.exec.Run(ctx, budget, "ping", "-n", "1", "-w", strconv.Itoa(timeout*1000), ip)
	if err == nil && result.ExitOK {
		return probeOutcome{verdict: verdictOnline}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return probeOutcome{verdict: verdictIndeterminate, reason: "ping timed out"}
	case errors.Is(err, executil.ErrToolNotFound):
		return probeOutcome{verdict: verdictIndeterminate, reason: "ping unavailable"}
	case err != nil:
		gologger.Debug().Msgf("Ping error for %s: %s", ip, err)
		return probeOutcome{verdict: verdictIndeterminate, reason: err.Error()}
	}
	return probeOutcome{verdict: verdictOffline}
}

// arpingProbe sends a single link-layer request via the arping tool and
// extracts the replying MAC from its output. When arping is unavailable or
// reports no reply, the system arp tool restricted to the target address is
// queried instead, accepting either colon- or hyphen-separated MAC formats.
func (e *Engine) arpingProbe(ctx context.Context, ip string, settings types.Settings) probeOutcome {
	timeout := settings.ArpingTimeout
	budget := time.Duration(timeout)*time.Second + time.Second

	result, err := e.exec.Run(ctx, budget, "arping", "-c", "1", "-w", strconv.Itoa(timeout), ip)
	switch {
	case err == nil && result.ExitOK:
		if mac := extractMAC(result.Stdout); mac != "" {
			return probeOutcome{verdict: verdictOnline, mac: mac}
		}
		// Host responded but did not expose a MAC in the output, leave
		// backfill to the neighbor-cache resolver.
		return probeOutcome{verdict: verdictOnline}
	case errors.Is(err, context.DeadlineExceeded):
		return probeOutcome{verdict: verdictIndeterminate, reason: "arping timed out"}
	case err != nil && !errors.Is(err, executil.ErrToolNotFound):
		gologger.Debug().Msgf("Arping error for %s: %s", ip, err)
		return probeOutcome{verdict: verdictIndeterminate, reason: err.Error()}
	}

	for _, command := range [][]string{{"arp", "-a", ip}, {"arp", "-n", ip}} {
		result, err := e.exec.Run(ctx, time.Duration(timeout)*time.Second, command[0], command[1:]...)
		if err != nil || !result.ExitOK {
			continue
		}
		for _, line := range strings.Split(result.Stdout, "\n") {
			if !strings.Contains(line, ip) {
				continue
			}
			if mac := extractMAC(line); mac != "" {
				return probeOutcome{verdict: verdictOnline, mac: mac}
			}
		}
	}

	return probeOutcome{verdict: verdictOffline}
}
