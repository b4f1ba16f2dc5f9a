// Package httpclient provides the pooled, connection-reusing HTTP client layer that
// every ServerHandle uses to talk to its FHIR server: one *http.Client per handle,
// configured to accept self-signed certificates (several reference servers run HTTPS
// with a self-signed cert) and to negotiate HTTP/2 where the server supports it.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
)

// PoolConfig holds configuration for HTTP connection pooling.
type PoolConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	ForceHTTP2          bool
}

// DefaultPoolConfig returns defaults tuned for a benchmark driving many concurrent
// requests at a single host.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxIdleConns:        256,
		MaxIdleConnsPerHost: 256,
		MaxConnsPerHost:     256,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceHTTP2:          true,
	}
}

// Pool manages a pool of reusable HTTP transports, one per server handle.
type Pool struct {
	mu         sync.RWMutex
	transports map[string]*http.Transport
	config     PoolConfig
}

var (
	globalPool     *Pool
	globalPoolOnce sync.Once
)

// GetPool returns the global HTTP connection pool singleton.
func GetPool() *Pool {
	globalPoolOnce.Do(func() {
		globalPool = NewPool(DefaultPoolConfig())
	})
	return globalPool
}

// NewPool creates a new HTTP connection pool with the given configuration.
func NewPool(cfg PoolConfig) *Pool {
	return &Pool{
		transports: make(map[string]*http.Transport),
		config:     cfg,
	}
}

// Configure updates the pool configuration, closing any existing pooled transports so
// they pick up the new settings on next use. Should be called at startup, before any
// server is launched.
func (p *Pool) Configure(cfg PoolConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config = cfg
	for _, t := range p.transports {
		t.CloseIdleConnections()
	}
	p.transports = make(map[string]*http.Transport)
}

// GetTransport returns a shared transport for the given server name, creating one on
// first use. Servers run strictly sequentially (spec §5), so a fresh transport per
// server name is safe and keeps connection pooling scoped to one server's lifetime.
func (p *Pool) GetTransport(serverName string) *http.Transport {
	p.mu.RLock()
	if t, ok := p.transports[serverName]; ok {
		p.mu.RUnlock()
		return t
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.transports[serverName]; ok {
		return t
	}

	t := p.createTransport()
	p.transports[serverName] = t
	log.WithField("server", serverName).Debug("created new HTTP transport")
	return t
}

func (p *Pool) createTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	t := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          p.config.MaxIdleConns,
		MaxIdleConnsPerHost:   p.config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       p.config.MaxConnsPerHost,
		IdleConnTimeout:       p.config.IdleConnTimeout,
		TLSHandshakeTimeout:   p.config.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // reference servers use self-signed certs
		},
	}

	// Go's net/http only auto-upgrades to HTTP/2 when it manages TLSClientConfig itself;
	// since we set our own above (for InsecureSkipVerify), that auto-upgrade is disabled
	// and http2.ConfigureTransport must be called explicitly to register h2 support.
	if p.config.ForceHTTP2 {
		if err := http2.ConfigureTransport(t); err != nil {
			log.WithError(err).Warn("failed to configure HTTP/2 support on pooled transport")
		}
	}

	return t
}

// GetClient returns an HTTP client using the pooled transport for the given server.
// Timeout is left at zero (no client-wide timeout): per-iteration timeouts are enforced
// by the concurrent operation driver via request context, not by the client itself.
func (p *Pool) GetClient(serverName string) *http.Client {
	return &http.Client{Transport: p.GetTransport(serverName)}
}

// CloseIdleConnections closes all idle connections across every pooled transport.
func (p *Pool) CloseIdleConnections() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, t := range p.transports {
		t.CloseIdleConnections()
	}
}
