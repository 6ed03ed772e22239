package discovery

import (
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD service type of a listening ptnet server.
	ServiceType = "_ptnet._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is advertised when Info.Port is zero.
	DefaultPort = 7878
)

// TXT record keys.
const (
	TXTKeyEngineID       = "id"  // Engine UUID
	TXTKeyEncrypted      = "enc" // "1" when the server expects sealed frames
	TXTKeyMaxConnections = "max" // Admission limit (optional)
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second

	// DefaultTTL is the DNS record TTL used by DefaultAdvertiserConfig.
	DefaultTTL = 120 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxTXTRecordSize is the maximum total TXT record size.
	MaxTXTRecordSize = 400
)

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("service not found")
)

// Info describes the server being advertised.
type Info struct {
	// Instance is the DNS-SD instance name. Empty means "ptnet-<first 8
	// characters of EngineID>".
	Instance string

	// Port is the TCP port the server listens on.
	Port uint16

	// EngineID is the server engine's UUID.
	EngineID string

	// Encrypted reports whether clients must seal their frames.
	Encrypted bool

	// MaxConnections is the admission limit. Zero omits the record.
	MaxConnections int
}

// Service is a discovered ptnet server.
type Service struct {
	Instance       string
	Host           string
	Port           uint16
	Addresses      []string
	EngineID       string
	Encrypted      bool
	MaxConnections int
}

// instanceName returns the instance name to register for info.
func instanceName(info *Info) string {
	if info.Instance != "" {
		return info.Instance
	}
	id := info.EngineID
	if len(id) > 8 {
		id = id[:8]
	}
	return "ptnet-" + id
}
