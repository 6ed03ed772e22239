package discovery

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Interface: "",
		TTL:       DefaultTTL,
	}
}

// registration is a running mDNS responder.
type registration interface {
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, txt []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (registration, error)

func zeroconfRegister(instance, service, domain string, port int, txt []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (registration, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces, opts...)
}

// Advertiser announces one ptnet server on the local network.
type Advertiser struct {
	config   AdvertiserConfig
	register registerFunc

	mu     sync.Mutex
	server registration
	info   Info
}

// NewAdvertiser creates a new mDNS advertiser.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	return &Advertiser{
		config:   config,
		register: zeroconfRegister,
	}
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *Advertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise starts advertising info, replacing any previous advertisement.
func (a *Advertiser) Advertise(info *Info) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if info.EngineID == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyEngineID)
	}
	name := instanceName(info)
	if err := ValidateInstanceName(name); err != nil {
		return err
	}
	txt := TXTRecordsToStrings(EncodeTXT(info))
	if err := validateTXT(txt); err != nil {
		return err
	}

	a.stopLocked()

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := a.register(name, ServiceType, Domain, port, txt, a.getInterfaces(), opts...)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	a.server = server
	a.info = *info
	return nil
}

// Update re-registers the current advertisement with new TXT values. The
// instance name and port are kept.
func (a *Advertiser) Update(encrypted bool, maxConnections int) error {
	a.mu.Lock()
	if a.server == nil {
		a.mu.Unlock()
		return ErrNotFound
	}
	info := a.info
	a.mu.Unlock()

	info.Instance = instanceName(&info)
	info.Encrypted = encrypted
	info.MaxConnections = maxConnections
	return a.Advertise(&info)
}

// Advertising reports whether an advertisement is active.
func (a *Advertiser) Advertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *Advertiser) stopLocked() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
