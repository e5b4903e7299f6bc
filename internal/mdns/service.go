// Package mdns advertises the WallVault server on the local network so
// browser clients can find it without typing an address.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/mdns"
)

const (
	// ServiceType is the mDNS service type for WallVault servers.
	ServiceType = "_wallvault._tcp"

	// ServerVersion is advertised in TXT records.
	ServerVersion = "1.0.0"
)

// Service manages mDNS advertisement.
type Service struct {
	server *mdns.Server
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Start begins advertising the HTTP port. Failures are typically non-fatal
// (e.g. multicast unsupported inside containers); callers should log and
// continue.
func (s *Service) Start(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
	}

	host, err := os.Hostname()
	if err != nil {
		host = "wallvault-server"
	}

	txtRecords := []string{
		fmt.Sprintf("version=%s", ServerVersion),
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, txtRecords)
	if err != nil {
		return fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("start mDNS server: %w", err)
	}

	s.server = server
	s.logger.Info("mDNS advertisement started", "service", ServiceType, "port", port)
	return nil
}

// Stop halts advertisement.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown()
	s.server = nil
	return err
}
