package mocks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/example/brownie-shop/internal/domain/block"
	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/domain/product"
	"github.com/example/brownie-shop/internal/domain/user"
	"github.com/example/brownie-shop/internal/infrastructure/store"
	"github.com/example/brownie-shop/internal/shop"
)

// MockGateway is an in-memory gateway for testing. It applies the same
// version rules as the real stores, records every call and can be told to
// fail a given operation.
type MockGateway struct {
	mu       sync.Mutex
	users    []*user.Account
	products []product.Product
	blocks   []block.Record
	nextID   int

	// For tracking calls in tests
	Calls []Call

	errs map[string]error
}

// Call records one gateway operation, e.g. {Op: "users.replace", ID: "u1"}.
type Call struct {
	Op string
	ID string
}

// NewMockGateway creates a new MockGateway
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Calls: make([]Call, 0),
		errs:  make(map[string]error),
	}
}

// Gateway exposes the mock as the three store interfaces.
func (m *MockGateway) Gateway() store.Gateway {
	return store.Gateway{
		Users:    &mockUsers{m: m},
		Products: &mockProducts{m: m},
		Blocks:   &mockBlocks{m: m},
	}
}

// FailOn makes every later call to op return err. A nil err clears it.
func (m *MockGateway) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// CallCount returns how many times op was called.
func (m *MockGateway) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Ops returns the recorded operation names in call order.
func (m *MockGateway) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		out[i] = c.Op
	}
	return out
}

// SetUser stores a user directly, bypassing version checks.
func (m *MockGateway) SetUser(a user.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u.ID == a.ID {
			m.users[i] = a.Clone()
			return
		}
	}
	m.users = append(m.users, a.Clone())
}

// GetUser returns a copy of the stored user.
func (m *MockGateway) GetUser(id string) (*user.Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.userIndex(id); i >= 0 {
		return m.users[i].Clone(), true
	}
	return nil, false
}

// SetProduct stores a product directly.
func (m *MockGateway) SetProduct(p product.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == p.ID {
			m.products[i] = p.Clone()
			return
		}
	}
	m.products = append(m.products, p.Clone())
}

// SetBlock stores a block record directly, duplicates included.
func (m *MockGateway) SetBlock(r block.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks = append(m.blocks, r)
}

// BlockRecords returns the stored block records.
func (m *MockGateway) BlockRecords() []block.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]block.Record(nil), m.blocks...)
}

// Reset clears all data, calls and injected errors
func (m *MockGateway) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users, m.products, m.blocks = nil, nil, nil
	m.Calls = make([]Call, 0)
	m.errs = make(map[string]error)
}

// begin records a call and returns the injected error, if any. Callers
// hold m.mu.
func (m *MockGateway) begin(op, id string) error {
	m.Calls = append(m.Calls, Call{Op: op, ID: id})
	if err, ok := m.errs[op]; ok {
		return &store.GatewayError{Op: op, Err: err}
	}
	return nil
}

func (m *MockGateway) newID() string {
	m.nextID++
	return strconv.Itoa(m.nextID)
}

func (m *MockGateway) userIndex(id string) int {
	for i, u := range m.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func notFound(op string) error {
	return &store.GatewayError{Op: op, Status: 404, Err: store.ErrNotFound}
}

func conflict(op string, have, stored int) error {
	return &store.GatewayError{Op: op, Status: 409,
		Err: fmt.Errorf("%w: have version %d, stored %d", shop.ErrConflict, have, stored)}
}

// ============================================
// Users
// ============================================

type mockUsers struct{ m *MockGateway }

func (s *mockUsers) FindByEmail(_ context.Context, email string) ([]user.Account, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("users.findByEmail", email); err != nil {
		return nil, err
	}
	out := []user.Account{}
	for _, u := range s.m.users {
		if u.Email == email {
			out = append(out, *u.Clone())
		}
	}
	return out, nil
}

func (s *mockUsers) Get(_ context.Context, id string) (*user.Account, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("users.get", id); err != nil {
		return nil, err
	}
	i := s.m.userIndex(id)
	if i < 0 {
		return nil, notFound("users.get")
	}
	return s.m.users[i].Clone(), nil
}

func (s *mockUsers) List(_ context.Context) ([]user.Account, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("users.list", ""); err != nil {
		return nil, err
	}
	out := make([]user.Account, len(s.m.users))
	for i, u := range s.m.users {
		out[i] = *u.Clone()
	}
	return out, nil
}

func (s *mockUsers) Create(_ context.Context, a *user.Account) (*user.Account, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("users.create", a.ID); err != nil {
		return nil, err
	}
	doc := a.Clone()
	if doc.ID == "" {
		doc.ID = s.m.newID()
	}
	doc.Version = 1
	s.m.users = append(s.m.users, doc)
	return doc.Clone(), nil
}

func (s *mockUsers) Replace(_ context.Context, a *user.Account) (*user.Account, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	const op = "users.replace"
	if err := s.m.begin(op, a.ID); err != nil {
		return nil, err
	}
	i := s.m.userIndex(a.ID)
	if i < 0 {
		return nil, notFound(op)
	}
	if stored := s.m.users[i].Version; stored != a.Version {
		return nil, conflict(op, a.Version, stored)
	}
	doc := a.Clone()
	doc.Version = a.Version + 1
	s.m.users[i] = doc
	return doc.Clone(), nil
}

func (s *mockUsers) PatchOrders(_ context.Context, id string, orders []order.Order, version int) (*user.Account, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	const op = "users.patchOrders"
	if err := s.m.begin(op, id); err != nil {
		return nil, err
	}
	i := s.m.userIndex(id)
	if i < 0 {
		return nil, notFound(op)
	}
	if stored := s.m.users[i].Version; stored != version {
		return nil, conflict(op, version, stored)
	}
	doc := s.m.users[i].Clone()
	doc.Orders = append([]order.Order{}, orders...)
	doc.Version = version + 1
	s.m.users[i] = doc
	return doc.Clone(), nil
}

func (s *mockUsers) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("users.delete", id); err != nil {
		return err
	}
	i := s.m.userIndex(id)
	if i < 0 {
		return notFound("users.delete")
	}
	s.m.users = append(s.m.users[:i], s.m.users[i+1:]...)
	return nil
}

// ============================================
// Products
// ============================================

type mockProducts struct{ m *MockGateway }

func (s *mockProducts) all() []product.Product {
	out := make([]product.Product, len(s.m.products))
	for i, p := range s.m.products {
		out[i] = p.Clone()
	}
	return out
}

func (s *mockProducts) List(_ context.Context) ([]product.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("products.list", ""); err != nil {
		return nil, err
	}
	return s.all(), nil
}

// Search only matches names, standing in for a naive backend index.
func (s *mockProducts) Search(_ context.Context, q string) ([]product.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("products.search", q); err != nil {
		return nil, err
	}
	out := []product.Product{}
	for _, p := range s.all() {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *mockProducts) Get(_ context.Context, id string) (*product.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("products.get", id); err != nil {
		return nil, err
	}
	for _, p := range s.m.products {
		if p.ID == id {
			c := p.Clone()
			return &c, nil
		}
	}
	return nil, notFound("products.get")
}

func (s *mockProducts) Create(_ context.Context, p product.Product) (*product.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("products.create", p.ID); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = s.m.newID()
	}
	s.m.products = append(s.m.products, p.Clone())
	return &p, nil
}

func (s *mockProducts) Replace(_ context.Context, p product.Product) (*product.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("products.replace", p.ID); err != nil {
		return nil, err
	}
	for i := range s.m.products {
		if s.m.products[i].ID == p.ID {
			s.m.products[i] = p.Clone()
			return &p, nil
		}
	}
	return nil, notFound("products.replace")
}

func (s *mockProducts) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("products.delete", id); err != nil {
		return err
	}
	for i := range s.m.products {
		if s.m.products[i].ID == id {
			s.m.products = append(s.m.products[:i], s.m.products[i+1:]...)
			return nil
		}
	}
	return notFound("products.delete")
}

// ============================================
// Block records
// ============================================

type mockBlocks struct{ m *MockGateway }

func (s *mockBlocks) filter(op, arg string, match func(block.Record) bool) ([]block.Record, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin(op, arg); err != nil {
		return nil, err
	}
	out := []block.Record{}
	for _, r := range s.m.blocks {
		if match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *mockBlocks) FindByUserID(_ context.Context, userID string) ([]block.Record, error) {
	return s.filter("blocks.findByUserId", userID, func(r block.Record) bool { return r.UserID == userID })
}

func (s *mockBlocks) FindByEmail(_ context.Context, email string) ([]block.Record, error) {
	return s.filter("blocks.findByEmail", email, func(r block.Record) bool { return r.Email == email })
}

func (s *mockBlocks) List(_ context.Context) ([]block.Record, error) {
	return s.filter("blocks.list", "", func(block.Record) bool { return true })
}

func (s *mockBlocks) Create(_ context.Context, r block.Record) (*block.Record, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("blocks.create", r.ID); err != nil {
		return nil, err
	}
	s.m.blocks = append(s.m.blocks, r)
	return &r, nil
}

func (s *mockBlocks) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.begin("blocks.delete", id); err != nil {
		return err
	}
	for i := range s.m.blocks {
		if s.m.blocks[i].ID == id {
			s.m.blocks = append(s.m.blocks[:i], s.m.blocks[i+1:]...)
			return nil
		}
	}
	return notFound("blocks.delete")
}
