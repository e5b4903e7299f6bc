package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/samber/do/v2"

	"github.com/wallvault/wallvault-server/internal/api"
	"github.com/wallvault/wallvault-server/internal/config"
	"github.com/wallvault/wallvault-server/internal/logger"
	"github.com/wallvault/wallvault-server/internal/mdns"
	"github.com/wallvault/wallvault-server/internal/ratelimit"
	"github.com/wallvault/wallvault-server/internal/service"
)

// Scan triggers allowed per client: one per second with a small burst.
const (
	scanRPS   = 1.0
	scanBurst = 3
)

// RateLimiterHandle wraps the keyed limiter with shutdown capability.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.KeyedRateLimiter.Stop()
	return nil
}

// ProvideRateLimiter provides the scan-endpoint rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	return &RateLimiterHandle{KeyedRateLimiter: ratelimit.New(scanRPS, scanBurst)}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server, scanning any stored selection
// before the listener starts so first requests see a populated catalog.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)
	library := do.MustInvoke[*service.LibraryService](i)

	localURL := fmt.Sprintf("http://127.0.0.1:%s", cfg.Server.Port)
	lanURL := ""
	if cfg.Server.Host == "0.0.0.0" || cfg.Server.Host == "::" {
		lanURL = fmt.Sprintf("http://%s:%s", localIP(), cfg.Server.Port)
	}
	library.SetAddresses(localURL, lanURL)

	library.StartupScan(context.Background())

	handler := api.NewServer(library, storeHandle.Store, limiterHandle.KeyedRateLimiter, log.Logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr, "local", localURL, "lan", lanURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}

// MDNSHandle wraps the mDNS service with shutdown capability.
type MDNSHandle struct {
	*mdns.Service
}

// Shutdown implements do.Shutdownable.
func (h *MDNSHandle) Shutdown() error {
	if h.Service == nil {
		return nil
	}
	return h.Service.Stop()
}

// ProvideMDNSService provides LAN advertisement when enabled. Advertisement
// failures are logged, never fatal.
func ProvideMDNSService(i do.Injector) (*MDNSHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Server.AdvertiseMDNS {
		return &MDNSHandle{}, nil
	}

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Warn("invalid port for mDNS advertisement", "port", cfg.Server.Port)
		return &MDNSHandle{}, nil
	}

	svc := mdns.NewService(log.Logger)
	if err := svc.Start(port); err != nil {
		log.Warn("mDNS advertisement unavailable", "error", err)
		return &MDNSHandle{}, nil
	}

	return &MDNSHandle{Service: svc}, nil
}

// localIP discovers the outbound LAN address without sending traffic.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
