package triplestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// RemoteConnection is the remote SPARQL-endpoint-shaped backend,
// keyed by an absolute URL. It speaks a whole-dataset
// GET/PUT of N-Quads rather than the SPARQL 1.1 Graph Store or Update
// protocols: a conformant SPARQL client is its own substantial
// project and out of scope here; the core only ever depends on the
// Connection abstraction (Snapshot/Mutate) regardless of wire
// protocol.
type RemoteConnection struct {
	endpoint string
	client   *http.Client

	// mu serializes Mutate calls from this process; it does not
	// protect against concurrent writers hitting the same endpoint
	// from elsewhere, which a real SPARQL Graph Store PATCH/PUT would.
	mu sync.Mutex

	// breaker trips open after repeated remote timeouts/failures so a
	// wedged endpoint fails fast instead of stacking up per-request
	// 30s timeouts.
	breaker *gobreaker.CircuitBreaker
}

// NewRemoteConnection targets a remote dataset endpoint. client may be
// nil, in which case http.DefaultClient is used.
func NewRemoteConnection(endpoint string, client *http.Client) *RemoteConnection {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteConnection{
		endpoint: endpoint,
		client:   client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "triplestore-remote",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (c *RemoteConnection) Snapshot(ctx context.Context) (*rdf.Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/n-quads")

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Do(req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("triplestore: remote endpoint circuit open: %w", err)
		}
		return nil, fmt.Errorf("triplestore: fetching remote dataset: %w", err)
	}
	resp := result.(*http.Response)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return rdf.NewDataset(), nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("triplestore: remote endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodeDataset(body)
}

func (c *RemoteConnection) Mutate(ctx context.Context, fn func(*rdf.Dataset) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := fn(current); err != nil {
		return err
	}

	encoded, err := encodeDataset(current)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/n-quads")

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Do(req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return fmt.Errorf("triplestore: remote endpoint circuit open: %w", err)
		}
		return fmt.Errorf("triplestore: writing remote dataset: %w", err)
	}
	resp := result.(*http.Response)
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("triplestore: remote endpoint rejected write with %d", resp.StatusCode)
	}
	return nil
}
