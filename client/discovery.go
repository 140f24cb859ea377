package client

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/mdns"
)

const platformService = "_receptor-ws._tcp"

// DiscoveredPlatform represents a platform endpoint found on the local
// network.
type DiscoveredPlatform struct {
	ServiceName string
	Address     string
	Port        int
	TXTRecords  []string
}

// Endpoint returns the ws:// URL for the discovered platform.
func (p *DiscoveredPlatform) Endpoint() string {
	return fmt.Sprintf("ws://%s:%d", p.Address, p.Port)
}

// DiscoverPlatform finds the first platform advertising _receptor-ws._tcp
// via mDNS. Useful on LANs where the endpoint is not configured explicitly.
func DiscoverPlatform(timeout time.Duration) (*DiscoveredPlatform, error) {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	entriesCh := make(chan *mdns.ServiceEntry, 4)

	// Start discovery in background
	go func() {
		defer close(entriesCh)
		mdns.Lookup(platformService, entriesCh)
	}()

	select {
	case entry := <-entriesCh:
		if entry == nil {
			return nil, fmt.Errorf("no %s service found", platformService)
		}

		var address string
		if entry.AddrV4 != nil {
			address = entry.AddrV4.String()
		} else if entry.AddrV6 != nil {
			address = fmt.Sprintf("[%s]", entry.AddrV6.String())
		} else {
			return nil, fmt.Errorf("no valid address found for service")
		}

		platform := &DiscoveredPlatform{
			ServiceName: entry.Name,
			Address:     address,
			Port:        entry.Port,
			TXTRecords:  entry.InfoFields,
		}

		slog.Info("Discovered platform",
			"service_name", platform.ServiceName,
			"address", platform.Address,
			"port", platform.Port,
		)

		return platform, nil

	case <-time.After(timeout):
		return nil, fmt.Errorf("mDNS discovery timeout for %s", platformService)
	}
}
