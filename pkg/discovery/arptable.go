package discovery

import (
	"context"
	"regexp"
	"strings"
	"time"

	osutils "github.com/projectdiscovery/utils/os"
)

const neighborCommandTimeout = 2 * time.Second

var (
	macColonRe  = regexp.MustCompile(`[0-9a-f]{2}(?::[0-9a-f]{2}){5}`)
	macHyphenRe = regexp.MustCompile(`[0-9a-f]{2}(?:-[0-9a-f]{2}){5}`)
	ipv4Re      = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)
)

// neighborCommands returns the neighbor-cache inspection alternatives in
// platform-preferred order. Any subset of them may be missing.
func neighborCommands() [][]string {
	if osutils.IsWindows() {
		return [][]string{
			{"arp", "-a"},
			{"arp", "-n"},
			{"ip", "neighbor"},
		}
	}
	return [][]string{
		{"arp", "-n"},
		{"arp", "-a"},
		{"ip", "neighbor"},
	}
}

// macFromNeighborCache recovers the hardware address for an IP by inspecting
// the OS neighbor cache. It is read-only: no new traffic is generated. The
// first command that runs successfully is scanned line by line for a MAC in
// colon, hyphen or lladdr-keyed form; "" means no information.
func (e *Engine) macFromNeighborCache(ctx context.Context, ip string) string {
	for _, command := range neighborCommands() {
		result, err := e.exec.Run(ctx, neighborCommandTimeout, command[0], command[1:]...)
		if err != nil || !result.ExitOK {
			continue
		}
		for _, line := range strings.Split(result.Stdout, "\n") {
			if !strings.Contains(line, ip) {
				continue
			}
			if mac := extractMAC(line); mac != "" {
				return mac
			}
		}
	}
	return ""
}

// ipFromMAC is the inverse lookup: it scans the neighbor cache for a line
// carrying the target hardware address and extracts the co-located IP.
func (e *Engine) ipFromMAC(ctx context.Context, mac string) string {
	target := normalizeMAC(mac)
	for _, command := range neighborCommands() {
		result, err := e.exec.Run(ctx, neighborCommandTimeout, command[0], command[1:]...)
		if err != nil || !result.ExitOK {
			continue
		}
		for _, line := range strings.Split(result.Stdout, "\n") {
			found := extractMAC(line)
			if found == "" || found != target {
				continue
			}
			if ip := ipv4Re.FindString(line); ip != "" {
				return ip
			}
		}
	}
	return ""
}

// extractMAC pulls the first hardware address out of a neighbor-cache or
// probe-output line. Hyphen-separated (Windows) form is normalized to the
// colon form; the result is upper-cased. The lladdr-keyed format emitted by
// "ip neighbor" is recognized as well.
func extractMAC(line string) string {
	lower := strings.ToLower(line)

	if match := macHyphenRe.FindString(lower); match != "" {
		return strings.ToUpper(strings.ReplaceAll(match, "-", ":"))
	}
	if match := macColonRe.FindString(lower); match != "" {
		return strings.ToUpper(match)
	}
	if strings.Contains(lower, "lladdr") {
		fields := strings.Fields(lower)
		for i, field := range fields {
			if field == "lladdr" && i+1 < len(fields) && macColonRe.MatchString(fields[i+1]) {
				return strings.ToUpper(fields[i+1])
			}
		}
	}
	return ""
}

// normalizeMAC upper-cases a hardware address and converts hyphen separators
// to colons so comparisons are format-insensitive.
func normalizeMAC(mac string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(mac), "-", ":"))
}
