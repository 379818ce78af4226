// Package redis implements the db contracts on Redis Stack (RediSearch) with rueidis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/croptalk/internal/db"
)

var _ db.Store = (*Store)(nil)

const clientName = "croptalk"

// Config holds connection parameters. Addrs with more than one entry
// connects in cluster mode.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

func (c Config) option() rueidis.ClientOption {
	return rueidis.ClientOption{
		InitAddress:  c.Addrs,
		Username:     c.Username,
		Password:     c.Password,
		SelectDB:     c.DB,
		ClientName:   clientName,
		DisableCache: true,
		// FT.SEARCH replies are parsed in their RESP2 array shape.
		AlwaysRESP2: true,
	}
}

// Store is a rueidis-backed db.Store.
type Store struct {
	client rueidis.Client
}

// NewStore dials the server. Use WaitForReady to block until it answers.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}
	c, err := rueidis.NewClient(cfg.option())
	if err != nil {
		return nil, fmt.Errorf("redis: connect %v: %w", cfg.Addrs, err)
	}
	return newStore(c), nil
}

func newStore(c rueidis.Client) *Store { return &Store{client: c} }

// Ping checks that the server answers.
func (s *Store) Ping(ctx context.Context) error {
	err := s.client.Do(ctx, s.client.B().Ping().Build()).Error()
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// readyPoll is the interval between WaitForReady pings.
const readyPoll = 100 * time.Millisecond

// WaitForReady pings until the server answers or timeout elapses.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	tick := time.NewTicker(readyPoll)
	defer tick.Stop()

	for {
		lastErr := s.Ping(deadline)
		if lastErr == nil {
			return nil
		}
		select {
		case <-deadline.Done():
			return fmt.Errorf("redis not ready after %s: %w", timeout, lastErr)
		case <-tick.C:
		}
	}
}

// Close releases the connections.
func (s *Store) Close() { s.client.Close() }

// serverError reports whether err is a server reply containing msg, ignoring case.
func serverError(err error, msg string) bool {
	if re, ok := rueidis.IsRedisErr(err); ok {
		return strings.Contains(strings.ToLower(re.Error()), msg)
	}
	return false
}

func unknownIndex(err error) bool {
	return serverError(err, "unknown index name") || serverError(err, "no such index")
}
