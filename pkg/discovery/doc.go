// Package discovery implements mDNS/DNS-SD discovery for ptnet servers.
//
// A listening server is advertised as one instance of _ptnet._tcp.local.
// The instance name defaults to "ptnet-" followed by the first eight
// characters of the engine ID.
//
// # TXT records
//
//   - id: the server engine's UUID (required)
//   - enc: "1" when clients must seal their frames, "0" otherwise
//   - max: the admission limit (optional)
//
// Browsing aggregates answers by instance name, so a server reachable on
// several interfaces is reported once with all of its addresses.
package discovery
