package db

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/movie-watchlist/apiserver/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultConnectTimeout = 10 * time.Second

// ErrMissingDBHost is returned when the connection string is not configured.
var ErrMissingDBHost = errors.New("DBHOST environment variable is not defined")

// Manager owns one shared MongoDB client, established lazily on first use
// and kept alive across requests. It is constructed once and injected into
// the repositories rather than held as package state.
type Manager struct {
	uri     string
	dbName  string
	timeout time.Duration

	// dial is swapped out in tests.
	dial func(ctx context.Context) (*mongo.Client, error)

	mu       sync.Mutex
	client   *mongo.Client
	inflight chan struct{}
	dialErr  error
}

// NewManager constructs a Manager from the database configuration. No
// connection is made until Connect or Collection is called.
func NewManager(cfg config.DatabaseConfig) *Manager {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	m := &Manager{
		uri:     cfg.URI,
		dbName:  cfg.Name,
		timeout: timeout,
	}
	m.dial = m.dialMongo
	return m
}

// Connect establishes the shared client if needed. It is idempotent: when
// already connected it returns immediately, and when an attempt is already
// in flight it awaits that same attempt instead of starting a second one.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.client != nil {
		m.mu.Unlock()
		return nil
	}

	if ch := m.inflight; ch != nil {
		m.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.client != nil {
			return nil
		}
		return m.dialErr
	}

	if m.uri == "" {
		m.mu.Unlock()
		return ErrMissingDBHost
	}

	ch := make(chan struct{})
	m.inflight = ch
	m.mu.Unlock()

	client, err := m.dial(ctx)

	m.mu.Lock()
	m.client = client
	m.dialErr = err
	m.inflight = nil
	close(ch)
	m.mu.Unlock()

	if err != nil {
		log.Println("Error connecting to the database. Error:", err)
	}
	return err
}

// Disconnect is a no-op unless forced, preserving the shared long-lived
// connection across requests. Forced teardown is for test cleanup and
// process shutdown.
func (m *Manager) Disconnect(ctx context.Context, force bool) error {
	if !force {
		return nil
	}

	m.mu.Lock()
	client := m.client
	m.client = nil
	m.dialErr = nil
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		log.Println("Error closing database connection. Error:", err)
		return err
	}
	log.Println("Connection closed")
	return nil
}

// Collection ensures a live connection and returns the named collection.
func (m *Manager) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client == nil {
		return nil, errors.New("database connection is not established")
	}
	return client.Database(m.dbName).Collection(name), nil
}

func (m *Manager) dialMongo(ctx context.Context) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}
