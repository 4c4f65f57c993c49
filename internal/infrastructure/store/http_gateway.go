package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/brownie-shop/internal/domain/block"
	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/domain/product"
	"github.com/example/brownie-shop/internal/domain/user"
	"github.com/example/brownie-shop/internal/shop"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPGateway talks to a json-server style REST store exposing the users,
// products and blockedUsers collections.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway builds a traced client. Every call is bounded by timeout.
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}
	return NewHTTPGatewayWithClient(baseURL, &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   timeout,
	})
}

func NewHTTPGatewayWithClient(baseURL string, client *http.Client) *HTTPGateway {
	return &HTTPGateway{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Gateway exposes the collections.
func (g *HTTPGateway) Gateway() Gateway {
	return Gateway{
		Users:    &httpUsers{g: g},
		Products: &httpProducts{g: g},
		Blocks:   &httpBlocks{g: g},
	}
}

type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	ifMatch string
}

func (g *HTTPGateway) do(ctx context.Context, r request, out any) error {
	u := g.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return gatewayErr(r.op, 0, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return gatewayErr(r.op, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.ifMatch != "" {
		req.Header.Set("If-Match", r.ifMatch)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return gatewayErr(r.op, 0, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return gatewayErr(r.op, resp.StatusCode, ErrNotFound)
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusPreconditionFailed:
		return gatewayErr(r.op, resp.StatusCode, shop.ErrConflict)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return gatewayErr(r.op, resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(msg))))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return gatewayErr(r.op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func itemPath(collection, id string) string {
	return "/" + collection + "/" + url.PathEscape(id)
}

// ============================================
// Users
// ============================================

type httpUsers struct{ g *HTTPGateway }

func (s *httpUsers) FindByEmail(ctx context.Context, email string) ([]user.Account, error) {
	var out []user.Account
	err := s.g.do(ctx, request{op: "users.findByEmail", method: http.MethodGet, path: "/users",
		query: url.Values{"email": {email}}}, &out)
	return out, err
}

func (s *httpUsers) Get(ctx context.Context, id string) (*user.Account, error) {
	var out user.Account
	if err := s.g.do(ctx, request{op: "users.get", method: http.MethodGet, path: itemPath("users", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *httpUsers) List(ctx context.Context) ([]user.Account, error) {
	var out []user.Account
	err := s.g.do(ctx, request{op: "users.list", method: http.MethodGet, path: "/users"}, &out)
	return out, err
}

func (s *httpUsers) Create(ctx context.Context, a *user.Account) (*user.Account, error) {
	doc := a.Clone()
	doc.Version = 1
	var out user.Account
	if err := s.g.do(ctx, request{op: "users.create", method: http.MethodPost, path: "/users", body: doc}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// checkVersion narrows the lost-update window for stores that ignore
// If-Match; the version is compared again by stores that honour it.
func (s *httpUsers) checkVersion(ctx context.Context, op, id string, version int) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Version != version {
		return gatewayErr(op, 0, fmt.Errorf("%w: have version %d, stored %d", shop.ErrConflict, version, current.Version))
	}
	return nil
}

func (s *httpUsers) Replace(ctx context.Context, a *user.Account) (*user.Account, error) {
	if err := s.checkVersion(ctx, "users.replace", a.ID, a.Version); err != nil {
		return nil, err
	}
	doc := a.Clone()
	doc.Version = a.Version + 1
	var out user.Account
	err := s.g.do(ctx, request{op: "users.replace", method: http.MethodPut, path: itemPath("users", a.ID),
		body: doc, ifMatch: strconv.Itoa(a.Version)}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *httpUsers) PatchOrders(ctx context.Context, id string, orders []order.Order, version int) (*user.Account, error) {
	if err := s.checkVersion(ctx, "users.patchOrders", id, version); err != nil {
		return nil, err
	}
	patch := struct {
		Orders  []order.Order `json:"orders"`
		Version int           `json:"version"`
	}{Orders: orders, Version: version + 1}
	var out user.Account
	err := s.g.do(ctx, request{op: "users.patchOrders", method: http.MethodPatch, path: itemPath("users", id),
		body: patch, ifMatch: strconv.Itoa(version)}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *httpUsers) Delete(ctx context.Context, id string) error {
	return s.g.do(ctx, request{op: "users.delete", method: http.MethodDelete, path: itemPath("users", id)}, nil)
}

// ============================================
// Products
// ============================================

type httpProducts struct{ g *HTTPGateway }

func (s *httpProducts) List(ctx context.Context) ([]product.Product, error) {
	var out []product.Product
	err := s.g.do(ctx, request{op: "products.list", method: http.MethodGet, path: "/products"}, &out)
	return out, err
}

func (s *httpProducts) Search(ctx context.Context, q string) ([]product.Product, error) {
	var out []product.Product
	err := s.g.do(ctx, request{op: "products.search", method: http.MethodGet, path: "/products",
		query: url.Values{"q": {q}}}, &out)
	return out, err
}

func (s *httpProducts) Get(ctx context.Context, id string) (*product.Product, error) {
	var out product.Product
	if err := s.g.do(ctx, request{op: "products.get", method: http.MethodGet, path: itemPath("products", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *httpProducts) Create(ctx context.Context, p product.Product) (*product.Product, error) {
	var out product.Product
	if err := s.g.do(ctx, request{op: "products.create", method: http.MethodPost, path: "/products", body: p}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *httpProducts) Replace(ctx context.Context, p product.Product) (*product.Product, error) {
	var out product.Product
	if err := s.g.do(ctx, request{op: "products.replace", method: http.MethodPut, path: itemPath("products", p.ID), body: p}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *httpProducts) Delete(ctx context.Context, id string) error {
	return s.g.do(ctx, request{op: "products.delete", method: http.MethodDelete, path: itemPath("products", id)}, nil)
}

// ============================================
// Block records
// ============================================

type httpBlocks struct{ g *HTTPGateway }

func (s *httpBlocks) find(ctx context.Context, op, field, value string) ([]block.Record, error) {
	var out []block.Record
	err := s.g.do(ctx, request{op: op, method: http.MethodGet, path: "/blockedUsers",
		query: url.Values{field: {value}}}, &out)
	return out, err
}

func (s *httpBlocks) FindByUserID(ctx context.Context, userID string) ([]block.Record, error) {
	return s.find(ctx, "blocks.findByUserId", "userId", userID)
}

func (s *httpBlocks) FindByEmail(ctx context.Context, email string) ([]block.Record, error) {
	return s.find(ctx, "blocks.findByEmail", "email", email)
}

func (s *httpBlocks) List(ctx context.Context) ([]block.Record, error) {
	var out []block.Record
	err := s.g.do(ctx, request{op: "blocks.list", method: http.MethodGet, path: "/blockedUsers"}, &out)
	return out, err
}

func (s *httpBlocks) Create(ctx context.Context, r block.Record) (*block.Record, error) {
	var out block.Record
	if err := s.g.do(ctx, request{op: "blocks.create", method: http.MethodPost, path: "/blockedUsers", body: r}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *httpBlocks) Delete(ctx context.Context, id string) error {
	return s.g.do(ctx, request{op: "blocks.delete", method: http.MethodDelete, path: itemPath("blockedUsers", id)}, nil)
}
