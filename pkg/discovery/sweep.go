package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/projectdiscovery/gologger"
	mapsutil "github.com/projectdiscovery/utils/maps"
	"github.com/rs/xid"
	"github.com/whoshome/lanwatch/pkg/executil"
	"github.com/whoshome/lanwatch/pkg/types"
)

const (
	// batchSize caps the number of in-flight host probes. Batches are
	// generational: every probe in a batch finishes before the next batch
	// starts.
	batchSize = 50

	prepopulateTimeout = 2 * time.Second
	arpSettleDelay     = 100 * time.Millisecond
	reverseDNSTimeout  = 2 * time.Second
)

// DiscoverAll sweeps the resolved network range and returns the hosts that
// answered a probe, in ascending address order. Offline hosts are not
// reported. The only error condition is a malformed explicit network range.
func (e *Engine) DiscoverAll(ctx context.Context) ([]types.HostResult, error) {
	settings := e.Settings()

	cidr, err := e.resolveRange(ctx, settings)
	if err != nil {
		return nil, err
	}
	hosts, err := hostAddresses(cidr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, cidr)
	}

	gologger.Info().Msgf("Scanning network range %s (%d hosts)", cidr, len(hosts))

	// Warm the OS neighbor cache before evaluating hosts, so MAC
	// resolution in the main phase hits more often.
	e.prepopulateNeighborCache(ctx, hosts)

	scanID := xid.New().String()
	collected := mapsutil.NewSyncLockMap[string, *types.HostResult]()

	forEachBatch(ctx, hosts, func(ctx context.Context, ip string) {
		if result := e.evaluateHost(ctx, ip, settings, scanID); result != nil {
			_ = collected.Set(ip, result)
		}
	})

	report := make([]types.HostResult, 0)
	for _, ip := range hosts {
		if result, ok := collected.Get(ip); ok {
			report = append(report, *result)
		}
	}

	gologger.Info().Msgf("Network scan completed, %d hosts online", len(report))
	return report, nil
}

// forEachBatch runs fn for every address with at most batchSize goroutines in
// flight, joining the whole batch before starting the next one.
func forEachBatch(ctx context.Context, addresses []string, fn func(ctx context.Context, ip string)) {
	for start := 0; start < len(addresses); start += batchSize {
		select {
		case <-ctx.Done():
			return
		default:
		}

		end := start + batchSize
		if end > len(addresses) {
			end = len(addresses)
		}

		var wg sync.WaitGroup
		for _, ip := range addresses[start:end] {
			wg.Add(1)
			go func(ip string) {
				defer wg.Done()
				fn(ctx, ip)
			}(ip)
		}
		wg.Wait()
	}
}

// prepopulateNeighborCache fires a best-effort ping at every host address to
// let the OS learn hardware addresses as a side effect. Outcomes are ignored
// entirely; the phase has no correctness requirement.
func (e *Engine) prepopulateNeighborCache(ctx context.Context, hosts []string) {
	gologger.Verbose().Msgf("Pre-populating neighbor cache for %d hosts", len(hosts))

	forEachBatch(ctx, hosts, func(ctx context.Context, ip string) {
		_, err := e.exec.Run(ctx, prepopulateTimeout, "ping", "-c", "1", "-W", "1", ip)
		if errors.Is(err, executil.ErrToolNotFound) {
			_, _ = e.exec.Run(ctx, prepopulateTimeout, "ping", "-n", "1", "-w", "100", ip)
		}
	})
}

// evaluateHost runs the per-host decision procedure: first configured method
// to report online wins, then MAC backfill, reverse DNS and the optional
// discovery record. Returns nil for offline hosts.
func (e *Engine) evaluateHost(ctx context.Context, ip string, settings types.Settings, scanID string) *types.HostResult {
	host := types.HostResult{IP: ip}

	for _, method := range settings.Methods {
		outcome := e.probe(ctx, ip, method, settings)
		if !outcome.online() {
			if outcome.verdict == verdictIndeterminate {
				gologger.Debug().Msgf("Probe %s for %s indeterminate: %s", method, ip, outcome.reason)
			}
			continue
		}
		host.Online = true
		host.Method = method
		host.MAC = outcome.mac
		if method == types.MethodPing && host.MAC == "" {
			host.MAC = e.macFromNeighborCache(ctx, ip)
		}
		break
	}
	if !host.Online {
		return nil
	}

	if host.MAC == "" {
		// A ping-only success never carries a hardware address, try a
		// link-layer probe once before falling back to the cache.
		if host.Method == types.MethodPing {
			if outcome := e.arpingProbe(ctx, ip, settings); outcome.mac != "" {
				host.MAC = outcome.mac
			}
		}
		if host.MAC == "" {
			time.Sleep(arpSettleDelay)
			host.MAC = e.macFromNeighborCache(ctx, ip)
		}
	}

	host.Hostname = e.hostnameLookup(ctx, ip)

	if host.MAC != "" {
		_ = e.lastKnownIP.Set(host.MAC, ip)
	}
	e.emitRecord(scanID, host)

	return &host
}

// emitRecord hands a discovery-attempt record to the persistence
// collaborator, if one is configured.
func (e *Engine) emitRecord(scanID string, host types.HostResult) {
	if e.recorder == nil {
		return
	}
	e.recorder.Record(types.DiscoveryRecord{
		ScanID:    scanID,
		MAC:       host.MAC,
		IP:        host.IP,
		Method:    host.Method,
		Success:   host.Online,
		Timestamp: time.Now().UTC(),
	})
}

// reverseLookup resolves the hostname for an IP, best effort.
func reverseLookup(ctx context.Context, ip string) string {
	lctx, cancel := context.WithTimeout(ctx, reverseDNSTimeout)
	defer cancel()

	names, err := net.DefaultResolver.LookupAddr(lctx, ip)
	if err != nil || len(names) == 0 {
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}
