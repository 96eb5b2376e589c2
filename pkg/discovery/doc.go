// Package discovery determines which tracked hardware addresses are present
// on the local network and enumerates all responsive hosts on a subnet.
//
// The engine never speaks ICMP or ARP itself: it orchestrates whatever
// reachability tools the host provides (ping, arping, arp, ip) and parses
// their textual output, tolerating any subset of them being absent. Probing
// strategies are tried in configured order per host, first success wins.
// Subnet sweeps run in generational batches of 50 concurrent probes with a
// full join between batches, preceded by a fire-and-forget ping pass that
// warms the OS neighbor cache for better MAC resolution.
package discovery
