// Package client is the Go consumer of the cart API. It keeps a local
// mirror of the caller's cart, applies mutations optimistically, and
// reconciles: a failed remote call rolls the mirror back to its
// pre-mutation snapshot and re-fetches authoritative state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Line struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type Summary struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// APIError is a non-2xx response decoded from the {"error": ...} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type CartClient struct {
	base  string
	token string
	http  *http.Client
	log   *slog.Logger

	// mu serializes mutations: the optimistic apply, the remote call
	// and any rollback happen as one unit.
	mu      sync.Mutex
	lines   []Line
	summary Summary
}

func New(baseURL, token string) *CartClient {
	return &CartClient{
		base:  baseURL,
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
		log:   slog.Default(),
	}
}

// Lines returns a copy of the mirrored cart.
func (cc *CartClient) Lines() []Line {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	out := make([]Line, len(cc.lines))
	copy(out, cc.lines)
	return out
}

func (cc *CartClient) Summary() Summary {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.summary
}

// Refresh replaces the mirror with the server's view.
func (cc *CartClient) Refresh(ctx context.Context) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.refreshLocked(ctx)
}

func (cc *CartClient) refreshLocked(ctx context.Context) error {
	var envelope struct {
		Data struct {
			Items []struct {
				ID        string `json:"id"`
				ProductID string `json:"productId"`
				Quantity  int    `json:"quantity"`
				Product   struct {
					Name  string  `json:"name"`
					Price float64 `json:"price"`
				} `json:"product"`
			} `json:"items"`
			Summary Summary `json:"summary"`
		} `json:"data"`
	}

	if err := cc.do(ctx, http.MethodGet, "/api/user/cart", nil, &envelope); err != nil {
		return err
	}

	lines := make([]Line, 0, len(envelope.Data.Items))
	for _, it := range envelope.Data.Items {
		lines = append(lines, Line{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Product.Name,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
		})
	}
	cc.lines = lines
	cc.summary = envelope.Data.Summary
	return nil
}

// Add merges quantity into the mirrored line for the product (or
// appends a placeholder) and posts the upsert. On success the mirror
// is re-fetched so placeholder IDs become real ones.
func (cc *CartClient) Add(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return &APIError{Status: http.StatusBadRequest, Message: "quantity must be at least 1"}
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	snapshot := cc.snapshotLocked()
	merged := false
	for i := range cc.lines {
		if cc.lines[i].ProductID == productID {
			cc.lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		cc.lines = append(cc.lines, Line{
			ID:        "pending-" + uuid.NewString(),
			ProductID: productID,
			Quantity:  quantity,
		})
	}

	body := map[string]any{"productId": productID, "quantity": quantity}
	if err := cc.do(ctx, http.MethodPost, "/api/user/cart", body, nil); err != nil {
		cc.rollbackLocked(ctx, snapshot, "add")
		return err
	}

	// Reconcile so the placeholder line picks up its server id.
	if err := cc.refreshLocked(ctx); err != nil {
		cc.log.Warn("cart refresh after add failed", "err", err)
	}
	return nil
}

// UpdateQuantity overwrites a line's quantity. A quantity below 1 is a
// local no-op: no request is issued and the mirror is untouched.
func (cc *CartClient) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity < 1 {
		return nil
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	snapshot := cc.snapshotLocked()
	for i := range cc.lines {
		if cc.lines[i].ID == lineID {
			cc.lines[i].Quantity = quantity
			break
		}
	}

	body := map[string]any{"cartItemId": lineID, "quantity": quantity}
	if err := cc.do(ctx, http.MethodPut, "/api/user/cart", body, nil); err != nil {
		cc.rollbackLocked(ctx, snapshot, "update")
		return err
	}
	return nil
}

func (cc *CartClient) Remove(ctx context.Context, lineID string) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	snapshot := cc.snapshotLocked()
	kept := cc.lines[:0]
	for _, l := range cc.lines {
		if l.ID != lineID {
			kept = append(kept, l)
		}
	}
	cc.lines = kept

	path := "/api/user/cart?cartItemId=" + url.QueryEscape(lineID)
	if err := cc.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		cc.rollbackLocked(ctx, snapshot, "remove")
		return err
	}
	return nil
}

func (cc *CartClient) Clear(ctx context.Context) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	snapshot := cc.snapshotLocked()
	cc.lines = nil

	if err := cc.do(ctx, http.MethodDelete, "/api/user/cart/all", nil, nil); err != nil {
		cc.rollbackLocked(ctx, snapshot, "clear")
		return err
	}
	return nil
}

type snapshot struct {
	lines   []Line
	summary Summary
}

func (cc *CartClient) snapshotLocked() snapshot {
	lines := make([]Line, len(cc.lines))
	copy(lines, cc.lines)
	return snapshot{lines: lines, summary: cc.summary}
}

// rollbackLocked restores the pre-mutation snapshot, then re-fetches
// authoritative state in case the remote mutation landed before the
// response was lost.
func (cc *CartClient) rollbackLocked(ctx context.Context, snap snapshot, op string) {
	cc.lines = snap.lines
	cc.summary = snap.summary
	if err := cc.refreshLocked(ctx); err != nil {
		cc.log.Warn("cart reconcile failed, mirror may be stale", "op", op, "err", err)
	}
}

func (cc *CartClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, cc.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cc.token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := cc.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
