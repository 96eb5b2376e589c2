package discovery

import (
	"context"

	"github.com/projectdiscovery/gologger"
	stringsutil "github.com/projectdiscovery/utils/strings"
	"github.com/whoshome/lanwatch/pkg/types"
)

// statusSweepLimit caps how many host addresses of each candidate range the
// targeted fallback sweep probes.
const statusSweepLimit = 50

// CheckStatus reports whether the device with the given hardware address is
// currently present on the network. It is optimized for frequent invocation:
// a last-known or neighbor-cache IP is probed directly first, and only when
// that fails does it fall back to a limited link-layer sweep of the resolved
// range and the common private ranges. It never fails; exhausting every
// candidate simply yields false.
func (e *Engine) CheckStatus(ctx context.Context, mac string) bool {
	settings := e.Settings()
	target := normalizeMAC(mac)
	if target == "" {
		return false
	}

	ip, err := e.lastKnownIP.Get(target)
	if err != nil || ip == "" {
		ip = e.ipFromMAC(ctx, target)
	}

	if ip != "" {
		for _, method := range settings.Methods {
			if e.probe(ctx, ip, method, settings).online() {
				_ = e.lastKnownIP.Set(target, ip)
				return true
			}
		}
	}

	// The device moved or was never cached: probe the first addresses of
	// the likely ranges instead of paying for a full sweep.
	for _, cidr := range e.candidateRanges(ctx, settings) {
		hosts, err := hostAddresses(cidr)
		if err != nil {
			continue
		}
		if len(hosts) > statusSweepLimit {
			hosts = hosts[:statusSweepLimit]
		}
		for _, candidate := range hosts {
			outcome := e.arpingProbe(ctx, candidate, settings)
			if outcome.online() && outcome.mac != "" && stringsutil.EqualFoldAny(outcome.mac, target) {
				_ = e.lastKnownIP.Set(target, candidate)
				return true
			}
		}
	}

	gologger.Debug().Msgf("Device %s not found on any candidate range", target)
	return false
}

// candidateRanges returns the resolved range followed by the common private
// ranges, deduplicated. A malformed explicit range skips the resolved entry
// rather than failing the check.
func (e *Engine) candidateRanges(ctx context.Context, settings types.Settings) []string {
	candidates := make([]string, 0, len(fallbackRanges)+1)
	seen := make(map[string]struct{})

	if resolved, err := e.resolveRange(ctx, settings); err == nil {
		candidates = append(candidates, resolved)
		seen[resolved] = struct{}{}
	}
	for _, cidr := range fallbackRanges {
		if _, ok := seen[cidr]; ok {
			continue
		}
		seen[cidr] = struct{}{}
		candidates = append(candidates, cidr)
	}
	return candidates
}
