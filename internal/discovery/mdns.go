// ABOUTME: mDNS service discovery for hush players
// ABOUTME: Advertises the remote control endpoint and browses for other players
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service players advertise
const ServiceType = "_hush._tcp"

// queryTimeout bounds one mDNS query round
const queryTimeout = time.Second

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string // Websocket path published in the TXT record
	Version     string // Software version published in the TXT record
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	players chan *PlayerInfo

	mu     sync.Mutex
	server *mdns.Server
}

// PlayerInfo describes a discovered player
type PlayerInfo struct {
	Name    string
	Host    string
	Port    int
	Path    string
	Version string
}

// Addr returns host:port
func (p *PlayerInfo) Addr() string {
	return net.JoinHostPort(p.Host, fmt.Sprintf("%d", p.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		players: make(chan *PlayerInfo, 10),
	}
}

// TXT returns the TXT record fields advertised for this player
func (m *Manager) TXT() []string {
	txt := []string{"path=" + m.config.Path}
	if m.config.Version != "" {
		txt = append(txt, "version="+m.config.Version)
	}
	return txt
}

// Advertise advertises this player via mDNS until Stop
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.TXT(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.mu.Lock()
	m.server = server
	m.mu.Unlock()

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for players continuously; results arrive on Players
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop repeats queries until Stop, reporting each player once
func (m *Manager) browseLoop() {
	seen := make(map[string]bool)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		for _, player := range query(queryTimeout) {
			key := player.Name + "@" + player.Addr()
			if seen[key] {
				continue
			}
			seen[key] = true

			log.Printf("Discovered player: %s at %s", player.Name, player.Addr())

			select {
			case m.players <- player:
			case <-m.ctx.Done():
				return
			}
		}
	}
}

// Players returns the channel of discovered players
func (m *Manager) Players() <-chan *PlayerInfo {
	return m.players
}

// Stop stops advertising and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// Lookup runs one query round and returns the players that answered
func Lookup(timeout time.Duration) []*PlayerInfo {
	if timeout <= 0 {
		timeout = queryTimeout
	}
	return query(timeout)
}

func query(timeout time.Duration) []*PlayerInfo {
	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan []*PlayerInfo, 1)

	go func() {
		var found []*PlayerInfo
		for entry := range entries {
			if !strings.Contains(entry.Name, ServiceType) {
				continue
			}
			found = append(found, entryToPlayer(entry))
		}
		done <- found
	}()

	params := &mdns.QueryParam{
		Service:     ServiceType,
		Domain:      "local",
		Timeout:     timeout,
		Entries:     entries,
		DisableIPv6: true,
	}
	if err := mdns.Query(params); err != nil {
		log.Printf("mDNS query failed: %v", err)
	}
	close(entries)

	return <-done
}

// entryToPlayer converts a service entry, reading path and version from TXT
func entryToPlayer(entry *mdns.ServiceEntry) *PlayerInfo {
	info := &PlayerInfo{
		Name: instanceName(entry.Name),
		Port: entry.Port,
	}
	if entry.AddrV4 != nil {
		info.Host = entry.AddrV4.String()
	} else {
		info.Host = strings.TrimSuffix(entry.Host, ".")
	}

	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "path":
			info.Path = value
		case "version":
			info.Version = value
		}
	}
	return info
}

// instanceName strips the service suffix from a full mDNS instance name
func instanceName(full string) string {
	if i := strings.Index(full, "."+ServiceType); i >= 0 {
		full = full[:i]
	}
	return strings.ReplaceAll(full, `\ `, " ")
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
