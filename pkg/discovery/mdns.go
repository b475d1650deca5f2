package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AnnouncerConfig configures announcer behavior.
type AnnouncerConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAnnouncerConfig returns the default announcer configuration.
func DefaultAnnouncerConfig() AnnouncerConfig {
	return AnnouncerConfig{
		Interface: "",
		TTL:       120 * time.Second,
	}
}

// Announcer advertises a gate service over mDNS using zeroconf.
type Announcer struct {
	config AnnouncerConfig

	mu     sync.Mutex
	server *zeroconf.Server
	info   GateInfo
}

// NewAnnouncer creates a new mDNS announcer.
func NewAnnouncer(config AnnouncerConfig) *Announcer {
	return &Announcer{config: config}
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *Announcer) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Announce starts advertising the gate service. A prior announcement for
// the same announcer is replaced.
func (a *Announcer) Announce(info *GateInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	txtStrings := TXTRecordsToStrings(EncodeGateTXT(info))

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		info.Name,
		ServiceTypeGate,
		Domain,
		int(info.Port),
		txtStrings,
		a.getInterfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register gate service: %w", err)
	}

	a.server = server
	a.info = *info
	return nil
}

// UpdateMode refreshes the advertised mode and epoch TXT records.
func (a *Announcer) UpdateMode(mode string, epoch uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotAnnouncing
	}

	a.info.Mode = mode
	a.info.Epoch = epoch
	a.server.SetText(TXTRecordsToStrings(EncodeGateTXT(&a.info)))
	return nil
}

// Shutdown stops the announcement.
func (a *Announcer) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// GateService is a gate discovered on the local network.
type GateService struct {
	// InstanceName is the mDNS instance name.
	InstanceName string

	// Host is the hostname.
	Host string

	// Port is the service port.
	Port uint16

	// Addresses are the resolved IP addresses.
	Addresses []string

	// Info is the decoded TXT record data.
	Info GateInfo
}

// Browse searches for gates on the local network until ctx is done. Each
// discovered gate is emitted once on the returned channel; the channel is
// closed when browsing completes.
func Browse(ctx context.Context, iface string) (<-chan *GateService, error) {
	out := make(chan *GateService)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if iface != "" {
		if nif, err := net.InterfaceByName(iface); err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*nif}))
		}
	}

	go func() {
		defer close(out)

		seen := make(map[string]struct{})
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToGateService(entry)
				if svc == nil {
					continue
				}
				if _, dup := seen[svc.InstanceName]; dup {
					continue
				}
				seen[svc.InstanceName] = struct{}{}
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case <-removed:
				// A gate vanishing mid-browse is not interesting to
				// one-shot discovery.

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceTypeGate, Domain, entries, removed, opts...)
	}()

	return out, nil
}

// entryToGateService converts a zeroconf entry to a GateService.
// Returns nil for entries with undecodable TXT records.
func entryToGateService(entry *zeroconf.ServiceEntry) *GateService {
	info, err := DecodeGateTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil
	}

	var addrs []string
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &GateService{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    addrs,
		Info:         *info,
	}
}
