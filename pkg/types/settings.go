package types

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Default values applied when a settings key is absent. All of them can be
// overridden by a settings file, the CLI or UpdateSettings at runtime.
var (
	DefaultScanInterval  = 300
	DefaultMethods       = []ProbeMethod{MethodPing, MethodArping}
	DefaultNetworkRange  = "auto"
	DefaultPingTimeout   = 1
	DefaultArpingTimeout = 2
)

// Settings is the discovery configuration snapshot consulted by every engine
// operation. It is treated as immutable for the duration of an operation;
// callers swap the whole snapshot between operations.
type Settings struct {
	// ScanInterval is carried for scheduling collaborators, the engine
	// itself never consumes it.
	ScanInterval int `json:"scan_interval"`
	// Methods are tried in order per host, first success wins.
	Methods []ProbeMethod `json:"discovery_methods"`
	// NetworkRange is "auto" or an explicit CIDR. Validity is checked at
	// resolution time, not here.
	NetworkRange string `json:"network_range"`
	// PingTimeout and ArpingTimeout are per-probe timeouts in seconds.
	PingTimeout   int `json:"ping_timeout"`
	ArpingTimeout int `json:"arping_timeout"`
}

// DefaultSettings returns a settings snapshot with all defaults applied.
func DefaultSettings() Settings {
	return Settings{
		ScanInterval:  DefaultScanInterval,
		Methods:       append([]ProbeMethod(nil), DefaultMethods...),
		NetworkRange:  DefaultNetworkRange,
		PingTimeout:   DefaultPingTimeout,
		ArpingTimeout: DefaultArpingTimeout,
	}
}

// Clone returns a deep copy of the settings snapshot.
func (s Settings) Clone() Settings {
	clone := s
	clone.Methods = append([]ProbeMethod(nil), s.Methods...)
	return clone
}

// MergeJSON overlays a JSON partial onto the snapshot and returns the result.
// Keys present in the partial overwrite the current values, absent keys are
// retained. Malformed or unknown keys are ignored.
func (s Settings) MergeJSON(data []byte) Settings {
	merged := s.Clone()

	if v := gjson.GetBytes(data, "scan_interval"); v.Exists() {
		merged.ScanInterval = int(v.Int())
	}
	if v := gjson.GetBytes(data, "discovery_methods"); v.Exists() && v.IsArray() {
		var methods []ProbeMethod
		for _, m := range v.Array() {
			if name := strings.ToLower(strings.TrimSpace(m.String())); name != "" {
				methods = append(methods, ProbeMethod(name))
			}
		}
		merged.Methods = methods
	}
	if v := gjson.GetBytes(data, "network_range"); v.Exists() {
		merged.NetworkRange = v.String()
	}
	if v := gjson.GetBytes(data, "ping_timeout"); v.Exists() {
		merged.PingTimeout = int(v.Int())
	}
	if v := gjson.GetBytes(data, "arping_timeout"); v.Exists() {
		merged.ArpingTimeout = int(v.Int())
	}

	return merged
}
