package types

import "time"

// ProbeMethod identifies a reachability probe strategy. The set is open:
// methods the engine does not recognize are skipped, never errors.
type ProbeMethod string

const (
	// MethodPing probes with an ICMP echo request tool.
	MethodPing ProbeMethod = "ping"
	// MethodArping probes with a link-layer request tool.
	MethodArping ProbeMethod = "arping"
)

func (m ProbeMethod) String() string {
	return string(m)
}

// HostResult is the outcome of probing a single host address. Results are
// produced fresh per probe and carry no identity beyond (IP, probe time).
type HostResult struct {
	IP       string      `json:"ip_address"`
	MAC      string      `json:"mac_address,omitempty"`
	Hostname string      `json:"hostname,omitempty"`
	Online   bool        `json:"is_online"`
	Method   ProbeMethod `json:"discovery_method,omitempty"`
}

// DiscoveryRecord is the fire-and-forget discovery-attempt record handed to
// the persistence collaborator once per positively-resolved host.
type DiscoveryRecord struct {
	ScanID    string      `json:"scan_id"`
	MAC       string      `json:"mac_address,omitempty"`
	IP        string      `json:"ip_address"`
	Method    ProbeMethod `json:"method"`
	Success   bool        `json:"success"`
	Timestamp time.Time   `json:"timestamp"`

	// Agent host metadata, filled in by the recorder.
	AgentHost string `json:"agent_host,omitempty"`
	AgentOS   string `json:"agent_os,omitempty"`
}
