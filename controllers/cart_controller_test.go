package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/middleware"
	"storefront/models"
	"storefront/pricing"
	"storefront/services"
)

var testSecret = []byte("unit-test-secret")

type memStore struct {
	mu       sync.Mutex
	lines    map[primitive.ObjectID]models.CartLine
	products map[primitive.ObjectID]models.Product
}

func newMemStore() *memStore {
	return &memStore{
		lines:    make(map[primitive.ObjectID]models.CartLine),
		products: make(map[primitive.ObjectID]models.Product),
	}
}

func (m *memStore) addProduct(name string, price float64, stock int) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.products[id] = models.Product{ID: id, Name: name, Price: price, StockQuantity: stock}
	return id
}

func (m *memStore) FindLine(ctx context.Context, owner, product primitive.ObjectID) (models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lines {
		if l.OwnerID == owner && l.ProductID == product {
			return l, nil
		}
	}
	return models.CartLine{}, services.ErrNoLine
}

func (m *memStore) GetLine(ctx context.Context, id primitive.ObjectID) (models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	if !ok {
		return models.CartLine{}, services.ErrNoLine
	}
	return l, nil
}

func (m *memStore) InsertLine(ctx context.Context, line models.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[line.ID] = line
	return nil
}

func (m *memStore) SetLineQuantity(ctx context.Context, id primitive.ObjectID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	if !ok {
		return services.ErrNoLine
	}
	l.Quantity = quantity
	m.lines[id] = l
	return nil
}

func (m *memStore) DeleteLine(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, id)
	return nil
}

func (m *memStore) DeleteLinesForOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, l := range m.lines {
		if l.OwnerID == owner {
			delete(m.lines, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) LinesForOwner(ctx context.Context, owner primitive.ObjectID) ([]models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CartLine
	for _, l := range m.lines {
		if l.OwnerID == owner {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) Product(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return models.Product{}, services.ErrNoProduct
	}
	return p, nil
}

func newCartTestRouter(store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cc := &CartController{Cart: services.NewCart(store, store, pricing.Default())}

	r := gin.New()
	user := r.Group("/api/user")
	user.Use(middleware.RequireAuth(testSecret, nil))
	user.GET("/cart", cc.GetCart)
	user.POST("/cart", cc.AddToCart)
	user.PUT("/cart", cc.UpdateCart)
	user.DELETE("/cart", cc.RemoveFromCart)
	user.DELETE("/cart/all", cc.ClearCart)
	return r
}

func signFor(t *testing.T, user primitive.ObjectID) string {
	t.Helper()
	token, err := middleware.SignToken(user, "customer", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestCartRequiresAuth(t *testing.T) {
	r := newCartTestRouter(newMemStore())

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/user/cart"},
		{http.MethodPost, "/api/user/cart"},
		{http.MethodPut, "/api/user/cart"},
		{http.MethodDelete, "/api/user/cart?cartItemId=abc"},
		{http.MethodDelete, "/api/user/cart/all"},
	} {
		w := doJSON(r, tc.method, tc.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status = %d, want 401", tc.method, tc.path, w.Code)
		}
		if body := decodeBody(t, w); body["error"] == nil {
			t.Fatalf("%s %s: missing error body", tc.method, tc.path)
		}
	}
}

func TestAddToCartMergesOverHTTP(t *testing.T) {
	store := newMemStore()
	r := newCartTestRouter(store)

	owner := primitive.NewObjectID()
	token := signFor(t, owner)
	product := store.addProduct("cordless drill", 20, 100)

	for _, qty := range []int{2, 3} {
		w := doJSON(r, http.MethodPost, "/api/user/cart", token,
			gin.H{"productId": product.Hex(), "quantity": qty})
		if w.Code != http.StatusOK {
			t.Fatalf("add: status = %d body=%s", w.Code, w.Body.String())
		}
	}

	w := doJSON(r, http.MethodGet, "/api/user/cart", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}
	data := decodeBody(t, w)["data"].(map[string]any)
	items := data["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 merged line", len(items))
	}
	if qty := items[0].(map[string]any)["quantity"].(float64); qty != 5 {
		t.Fatalf("quantity = %v, want 5", qty)
	}

	summary := data["summary"].(map[string]any)
	if summary["subtotal"].(float64) != 100 {
		t.Fatalf("subtotal = %v, want 100", summary["subtotal"])
	}
	if summary["shipping"].(float64) != 0 {
		t.Fatalf("shipping = %v, want 0 over threshold", summary["shipping"])
	}
}

func TestAddToCartValidation(t *testing.T) {
	store := newMemStore()
	r := newCartTestRouter(store)
	token := signFor(t, primitive.NewObjectID())
	product := store.addProduct("socket set", 10, 5)

	cases := []struct {
		name string
		body gin.H
	}{
		{"zero quantity", gin.H{"productId": product.Hex(), "quantity": 0}},
		{"negative quantity", gin.H{"productId": product.Hex(), "quantity": -2}},
		{"missing productId", gin.H{"quantity": 1}},
		{"malformed productId", gin.H{"productId": "nope", "quantity": 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/user/cart", token, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
		})
	}

	w := doJSON(r, http.MethodPost, "/api/user/cart", token,
		gin.H{"productId": primitive.NewObjectID().Hex(), "quantity": 1})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown product: status = %d, want 404", w.Code)
	}
}

func TestUpdateCartOwnershipOverHTTP(t *testing.T) {
	store := newMemStore()
	r := newCartTestRouter(store)

	owner := primitive.NewObjectID()
	intruder := primitive.NewObjectID()
	product := store.addProduct("claw hammer", 15, 50)

	w := doJSON(r, http.MethodPost, "/api/user/cart", signFor(t, owner),
		gin.H{"productId": product.Hex(), "quantity": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("seed add failed: %d", w.Code)
	}
	lineID := decodeBody(t, w)["data"].(map[string]any)["id"].(string)

	w = doJSON(r, http.MethodPut, "/api/user/cart", signFor(t, intruder),
		gin.H{"cartItemId": lineID, "quantity": 9})
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign update: status = %d, want 403", w.Code)
	}

	w = doJSON(r, http.MethodPut, "/api/user/cart", signFor(t, owner),
		gin.H{"cartItemId": primitive.NewObjectID().Hex(), "quantity": 9})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing line: status = %d, want 404", w.Code)
	}

	w = doJSON(r, http.MethodPut, "/api/user/cart", signFor(t, owner),
		gin.H{"cartItemId": lineID, "quantity": 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("zero quantity: status = %d, want 400", w.Code)
	}

	w = doJSON(r, http.MethodPut, "/api/user/cart", signFor(t, owner),
		gin.H{"cartItemId": lineID, "quantity": 9})
	if w.Code != http.StatusOK {
		t.Fatalf("owner update: status = %d, want 200", w.Code)
	}
}

func TestRemoveFromCartOverHTTP(t *testing.T) {
	store := newMemStore()
	r := newCartTestRouter(store)

	owner := primitive.NewObjectID()
	token := signFor(t, owner)
	product := store.addProduct("tape measure", 8, 20)

	w := doJSON(r, http.MethodDelete, "/api/user/cart", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing cartItemId: status = %d, want 400", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/user/cart", token,
		gin.H{"productId": product.Hex(), "quantity": 1})
	lineID := decodeBody(t, w)["data"].(map[string]any)["id"].(string)

	w = doJSON(r, http.MethodDelete, "/api/user/cart?cartItemId="+lineID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove: status = %d, want 200", w.Code)
	}

	w = doJSON(r, http.MethodDelete, "/api/user/cart?cartItemId="+lineID, token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second remove: status = %d, want 404", w.Code)
	}
}

func TestClearCartOverHTTP(t *testing.T) {
	store := newMemStore()
	r := newCartTestRouter(store)

	owner := primitive.NewObjectID()
	token := signFor(t, owner)
	for i := 0; i < 3; i++ {
		product := store.addProduct(fmt.Sprintf("item-%d", i), 5, 10)
		w := doJSON(r, http.MethodPost, "/api/user/cart", token,
			gin.H{"productId": product.Hex(), "quantity": 1})
		if w.Code != http.StatusOK {
			t.Fatalf("seed add failed: %d", w.Code)
		}
	}

	w := doJSON(r, http.MethodDelete, "/api/user/cart/all", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear: status = %d, want 200", w.Code)
	}
	if removed := decodeBody(t, w)["data"].(map[string]any)["removed"].(float64); removed != 3 {
		t.Fatalf("removed = %v, want 3", removed)
	}

	w = doJSON(r, http.MethodGet, "/api/user/cart", token, nil)
	data := decodeBody(t, w)["data"].(map[string]any)
	if items := data["items"].([]any); len(items) != 0 {
		t.Fatalf("cart not empty after clear: %d items", len(items))
	}
	// The empty cart still quotes flat shipping.
	summary := data["summary"].(map[string]any)
	if summary["total"].(float64) != 9.99 {
		t.Fatalf("empty-cart total = %v, want 9.99", summary["total"])
	}
}
