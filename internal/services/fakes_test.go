package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/clients/razorpay"
	"github.com/yungbote/allbound-backend/internal/clients/supabase"
	"github.com/yungbote/allbound-backend/internal/data/repos"
	"github.com/yungbote/allbound-backend/internal/data/repos/testutil"
	"github.com/yungbote/allbound-backend/internal/learning/bundle"
	"github.com/yungbote/allbound-backend/internal/platform/sendgrid"
)

const testCourseYAML = `
title: Test Course
description: A course for tests.
modules:
  - id: m1
    title: Basics
    order_index: 0
    lessons:
      - id: l1
        title: First
        status: available
        whimsical_links:
          - title: Canvas
            url: https://whimsical.com/canvas
      - id: l2
        title: Second
        status: available
        resources:
          - id: r1
            title: Sheet
            url: https://docs.google.com/spreadsheets/d/sheet
            type: doc
  - id: m2
    title: Advanced
    order_index: 1
    lessons:
      - id: l3
        title: Third
        status: available
      - id: l4
        title: Later
        status: coming-soon
        title_hidden: true
      - id: l5
        title: Unpublished
        status: draft
resources:
  - id: g1
    title: Tool stack
    url: https://notion.so/stack
    type: notion
    category: Tools
`

func testBundle(t *testing.T) *bundle.Bundle {
	t.Helper()
	b, err := bundle.Parse([]byte(testCourseYAML))
	if err != nil {
		t.Fatalf("parse test bundle: %v", err)
	}
	return b
}

type testEnv struct {
	db        *gorm.DB
	modules   repos.ModuleRepo
	lessons   repos.LessonRepo
	resources repos.ResourceRepo
	progress  repos.ProgressRepo
	orders    repos.OrderRepo
	members   repos.MemberRepo
	cache     *fakeCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &testEnv{
		db:        db,
		modules:   repos.NewModuleRepo(db, log),
		lessons:   repos.NewLessonRepo(db, log),
		resources: repos.NewResourceRepo(db, log),
		progress:  repos.NewProgressRepo(db, log),
		orders:    repos.NewOrderRepo(db, log),
		members:   repos.NewMemberRepo(db, log),
		cache:     newFakeCache(),
	}
}

func (e *testEnv) contentService(t *testing.T, source string) ContentService {
	t.Helper()
	return NewContentService(e.db, testutil.Logger(t), source, testBundle(t), e.cache, e.modules, e.lessons, e.resources)
}

// seededContent returns a db-backed content service with the test bundle
// copied into the store.
func (e *testEnv) seededContent(t *testing.T) ContentService {
	t.Helper()
	svc := e.contentService(t, ContentSourceDB)
	if _, err := svc.SeedIfEmpty(context.Background()); err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}
	return svc
}

// ---- cache ----

type fakeCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	gets        int
	invalidated int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte(nil), raw...)
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) Enabled() bool { return true }
func (c *fakeCache) Close() error  { return nil }

// ---- mailer ----

type fakeMailer struct {
	mu         sync.Mutex
	sent       []sendgrid.Message
	contacts   []sendgrid.Contact
	sendErr    error
	contactErr error
	// failFor makes Send fail for one recipient only.
	failFor string
}

func (m *fakeMailer) Send(ctx context.Context, msg sendgrid.Message) (*sendgrid.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	if m.failFor != "" && msg.To.Email == m.failFor {
		return nil, fmt.Errorf("mailbox unavailable: %s", msg.To.Email)
	}
	m.sent = append(m.sent, msg)
	return &sendgrid.Result{StatusCode: 202}, nil
}

func (m *fakeMailer) UpsertContact(ctx context.Context, c sendgrid.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.contactErr != nil {
		return m.contactErr
	}
	m.contacts = append(m.contacts, c)
	return nil
}

// ---- identity provider ----

type fakeAuth struct {
	mu        sync.Mutex
	users     map[string]string
	deleted   []string
	createErr error
	updateErr error
	seq       int
}

func newFakeAuth() *fakeAuth { return &fakeAuth{users: map[string]string{}} }

func (a *fakeAuth) CreateUser(ctx context.Context, req supabase.CreateUserRequest) (*supabase.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.createErr != nil {
		return nil, a.createErr
	}
	if _, ok := a.users[req.Email]; ok {
		return nil, supabase.ErrUserExists
	}
	a.seq++
	id := fmt.Sprintf("auth-%d", a.seq)
	a.users[req.Email] = id
	return &supabase.User{ID: id, Email: req.Email}, nil
}

func (a *fakeAuth) DeleteUser(ctx context.Context, userID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleted = append(a.deleted, userID)
	return nil
}

func (a *fakeAuth) UpdateUserEmail(ctx context.Context, userID, email string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.updateErr != nil {
		return a.updateErr
	}
	for e, id := range a.users {
		if id == userID {
			delete(a.users, e)
			a.users[email] = id
			return nil
		}
	}
	return fmt.Errorf("auth user %s not found", userID)
}

func (a *fakeAuth) RecoveryLink(ctx context.Context, email, redirectTo string) (string, error) {
	return "https://auth.test/recover?email=" + email, nil
}

// ---- payment gateway ----

const (
	testKeySecret     = "key-secret"
	testWebhookSecret = "webhook-secret"
)

type fakeGateway struct {
	mu       sync.Mutex
	orders   []razorpay.OrderRequest
	payments map[string]*razorpay.Payment
	fetches  int
	orderErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: map[string]*razorpay.Payment{}}
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	g.orders = append(g.orders, req)
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_%d", len(g.orders)),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
		Notes:    req.Notes,
	}, nil
}

func (g *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, errors.New("payment not found")
	}
	cp := *p
	return &cp, nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return razorpay.VerifySignature(testKeySecret, []byte(orderID+"|"+paymentID), signature)
}

func (g *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return razorpay.VerifySignature(testWebhookSecret, body, signature)
}

// ---- invoice archive ----

type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeArchive() *fakeArchive { return &fakeArchive{objects: map[string][]byte{}} }

func (a *fakeArchive) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.putErr != nil {
		return "", a.putErr
	}
	a.objects[key] = data
	return a.URL(key), nil
}

func (a *fakeArchive) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return v, nil
}

func (a *fakeArchive) URL(key string) string { return "https://storage.test/invoices/" + key }
