package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/mapcidr"
	"github.com/whoshome/lanwatch/pkg/types"
)

// ErrInvalidRange is returned when a caller-supplied explicit CIDR fails to
// parse. It is the only configuration failure surfaced to callers; an
// auto-detected range is valid by construction.
var ErrInvalidRange = errors.New("invalid network range")

// fallbackRanges are tried in order when gateway auto-detection fails.
var fallbackRanges = []string{
	"192.168.1.0/24",
	"192.168.0.0/24",
	"10.0.0.0/24",
}

// routeCommands are the OS route-table inspection alternatives, tried in
// order. A missing command means "try the next one".
var routeCommands = [][]string{
	{"ip", "route", "show", "default"}, // Linux
	{"route", "print"},                 // Windows
	{"netstat", "-rn"},                 // generic Unix
}

const routeCommandTimeout = 5 * time.Second

var exactIPv4Re = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// resolveRange turns the configured network range into a concrete CIDR.
// Explicit ranges are validated and returned as-is; "auto" inspects the host
// routing state for the default gateway and derives a /24 from it, falling
// back to common private ranges. Auto resolution never fails.
func (e *Engine) resolveRange(ctx context.Context, settings types.Settings) (string, error) {
	networkRange := settings.NetworkRange
	if networkRange != "" && networkRange != "auto" {
		if _, _, err := net.ParseCIDR(networkRange); err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidRange, networkRange)
		}
		return networkRange, nil
	}

	if gateway := e.detectGateway(ctx); gateway != "" {
		if derived := rangeFromGateway(gateway); derived != "" {
			gologger.Verbose().Msgf("Auto-detected network range %s (gateway %s)", derived, gateway)
			return derived, nil
		}
	}

	gologger.Verbose().Msgf("Could not auto-detect network range, using fallback %s", fallbackRanges[0])
	return fallbackRanges[0], nil
}

// detectGateway returns the default-gateway address found in the first route
// command that runs successfully and yields one, or "".
func (e *Engine) detectGateway(ctx context.Context) string {
	for _, command := range routeCommands {
		result, err := e.exec.Run(ctx, routeCommandTimeout, command[0], command[1:]...)
		if err != nil || !result.ExitOK {
			continue
		}
		if gateway := parseGateway(result.Stdout); gateway != "" {
			return gateway
		}
	}
	return ""
}

// parseGateway scans route-table output for a gateway address using the three
// known line shapes: "default via <gw>" (ip route), a "0.0.0.0" destination
// row (route print) and generic netstat columns.
func parseGateway(output string) string {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		switch {
		case strings.Contains(line, "default via"):
			if len(fields) >= 3 {
				return fields[2]
			}
		case strings.Contains(line, "0.0.0.0") && !strings.Contains(line, "Gateway"):
			if len(fields) >= 3 {
				return fields[2]
			}
		case strings.Contains(line, "0.0.0.0"):
			for _, field := range fields {
				if exactIPv4Re.MatchString(field) && field != "0.0.0.0" {
					return field
				}
			}
		}
	}
	return ""
}

// rangeFromGateway derives a /24 from a gateway address by zeroing the last
// octet. Returns "" when the candidate is not a plain IPv4 address.
func rangeFromGateway(gateway string) string {
	if net.ParseIP(gateway) == nil {
		return ""
	}
	octets := strings.Split(gateway, ".")
	if len(octets) != 4 {
		return ""
	}
	return fmt.Sprintf("%s.%s.%s.0/24", octets[0], octets[1], octets[2])
}

// hostAddresses expands a CIDR into its host addresses in ascending order,
// dropping the network and broadcast addresses. Point-to-point prefixes
// (/31, /32) have no reserved addresses, every address is usable.
func hostAddresses(cidr string) ([]string, error) {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}

	addresses, err := mapcidr.IPAddresses(cidr)
	if err != nil {
		return nil, err
	}

	if ones, bits := network.Mask.Size(); bits == 32 && ones >= 31 {
		return addresses, nil
	}

	hosts := make([]string, 0, len(addresses))
	for _, address := range addresses {
		ip := net.ParseIP(address)
		if ip == nil {
			continue
		}
		if isNetworkOrBroadcast(ip, network) {
			continue
		}
		hosts = append(hosts, address)
	}
	return hosts, nil
}

// isNetworkOrBroadcast reports whether ip is the network or broadcast address
// of the given network.
func isNetworkOrBroadcast(ip net.IP, network *net.IPNet) bool {
	if ip.Equal(network.IP) {
		return true
	}
	if ip.To4() == nil {
		return ip.IsMulticast()
	}
	broadcast := make(net.IP, len(network.IP))
	copy(broadcast, network.IP)
	for i := range broadcast {
		broadcast[i] |= ^network.Mask[i]
	}
	return ip.Equal(broadcast)
}
