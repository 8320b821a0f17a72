// Package client holds HTTP clients for external collaborators.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("client")

// SyncClient talks to the remote sync API that mirrors the ledger for
// multi-device users.
type SyncClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
}

// NewSyncClient creates a new SyncClient.
func NewSyncClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, bh *resilience.Bulkhead) *SyncClient {
	return &SyncClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   bh,
	}
}

// SyncUser upserts the user on the sync API and returns the canonical
// record, including the remote PRO flag.
func (c *SyncClient) SyncUser(ctx context.Context, partial domain.User) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "SyncClient.SyncUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", partial.ID))

	var user domain.User

	err := resilience.Do(ctx, c.cb, c.cfg, func() error {
		payload, err := json.Marshal(partial)
		if err != nil {
			return err
		}

		url := fmt.Sprintf("%s/v1/users/sync", c.baseURL)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("sync API returned status %d", resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(&user)
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "sync", Err: err}
	}

	return &user, nil
}

// FetchData pulls the user's accounts, cards, and transactions in
// parallel and returns them as one snapshot.
func (c *SyncClient) FetchData(ctx context.Context, userID string) (domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "SyncClient.FetchData")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var snap domain.Snapshot

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.fetchCollection(gctx, userID, "accounts", &snap.Accounts)
	})
	g.Go(func() error {
		return c.fetchCollection(gctx, userID, "cards", &snap.Cards)
	})
	g.Go(func() error {
		return c.fetchCollection(gctx, userID, "transactions", &snap.Transactions)
	})

	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, err
	}

	if snap.Accounts == nil {
		snap.Accounts = []domain.Account{}
	}
	if snap.Cards == nil {
		snap.Cards = []domain.Card{}
	}
	if snap.Transactions == nil {
		snap.Transactions = []domain.Transaction{}
	}

	return snap, nil
}

// fetchCollection pulls one collection through the bulkhead and breaker.
func (c *SyncClient) fetchCollection(ctx context.Context, userID, collection string, out any) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrExternalService{Service: "sync/" + collection, Err: err}
	}
	defer c.bulkhead.Release()

	err := resilience.Do(ctx, c.cb, c.cfg, func() error {
		url := fmt.Sprintf("%s/v1/users/%s/%s", c.baseURL, userID, collection)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil // remote has nothing yet
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("sync API returned status %d for %s", resp.StatusCode, collection)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "sync/" + collection, Err: err}
	}
	return nil
}

// UpdateProStatus flips the remote entitlement flag.
func (c *SyncClient) UpdateProStatus(ctx context.Context, userID string, isPro bool) error {
	ctx, span := tracer.Start(ctx, "SyncClient.UpdateProStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.Bool("user.is_pro", isPro),
	)

	err := resilience.Do(ctx, c.cb, c.cfg, func() error {
		payload, err := json.Marshal(map[string]bool{"isPro": isPro})
		if err != nil {
			return err
		}

		url := fmt.Sprintf("%s/v1/users/%s/pro", c.baseURL, userID)
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			return fmt.Errorf("sync API returned status %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "sync", Err: err}
	}
	return nil
}
