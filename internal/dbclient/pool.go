package dbclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
	"pagebuilder/internal/secret"
)

type poolEntry struct {
	source    domain.DataSource
	secretKey string
	conn      Connector
}

// Pool opens connectors lazily, one per named source, and shares them
// between every context bound to that source.
type Pool struct {
	secrets secret.SecretStore
	connect func(domain.DataSource, string) (Connector, error)

	mu      sync.Mutex
	entries map[string]*poolEntry
}

// NewPool creates an empty pool that resolves passwords through secrets.
func NewPool(secrets secret.SecretStore) *Pool {
	return &Pool{
		secrets: secrets,
		connect: NewConnector,
		entries: make(map[string]*poolEntry),
	}
}

// Add declares a source. secretKey names the password in the secret store
// and may be empty.
func (p *Pool) Add(src domain.DataSource, secretKey string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[src.Name] = &poolEntry{source: src, secretKey: secretKey}
}

// Source returns the declared source with name.
func (p *Pool) Source(name string) (domain.DataSource, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[name]
	if !ok {
		return domain.DataSource{}, false
	}
	return e.source, true
}

// Get returns the connector for name, opening it on first use.
func (p *Pool) Get(name string) (Connector, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[name]
	if !ok {
		return nil, fmt.Errorf("data source %s: %w", name, domain.ErrNotFound)
	}
	if e.conn != nil {
		return e.conn, nil
	}

	var password string
	if e.secretKey != "" && p.secrets != nil {
		raw, err := p.secrets.Get(e.secretKey)
		if err != nil {
			return nil, fmt.Errorf("read secret for %s: %w", name, err)
		}
		password = string(raw)
	}

	conn, err := p.connect(e.source, password)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", name, err)
	}
	log.Info(log.CatDB, "data source opened", "name", name, "driver", e.source.Driver)
	e.conn = conn
	return conn, nil
}

// Ping tests every declared source.
func (p *Pool) Ping(ctx context.Context) map[string]error {
	p.mu.Lock()
	names := make([]string, 0, len(p.entries))
	for name := range p.entries {
		names = append(names, name)
	}
	p.mu.Unlock()

	results := make(map[string]error, len(names))
	for _, name := range names {
		conn, err := p.Get(name)
		if err == nil {
			err = conn.TestConnection(ctx)
		}
		results[name] = err
	}
	return results
}

// Close closes every open connector.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for name, e := range p.entries {
		if e.conn == nil {
			continue
		}
		if err := e.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		e.conn = nil
	}
	return errors.Join(errs...)
}
