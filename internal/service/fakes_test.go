package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

type fakeProcessor struct {
	mu        sync.Mutex
	sessions  map[string]*payment.Session
	onGet     func(id string)
	getCalls  int
	created   []payment.SessionRequest
	customers []payment.Customer
	custErr   error
	createErr error
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{sessions: map[string]*payment.Session{}}
}

func (f *fakeProcessor) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.CreatedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &payment.CreatedSession{ID: "cs_new", URL: "https://checkout.example/pay/cs_new"}, nil
}

func (f *fakeProcessor) FindOrCreateCustomer(_ context.Context, c payment.Customer) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers = append(f.customers, c)
	if f.custErr != nil {
		return "", f.custErr
	}
	return "cus_123", nil
}

func (f *fakeProcessor) GetSession(_ context.Context, id string) (*payment.Session, error) {
	f.mu.Lock()
	f.getCalls++
	s, ok := f.sessions[id]
	hook := f.onGet
	f.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if !ok {
		return nil, errors.New("no such session")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeProcessor) ParseWebhook([]byte, string) (*payment.Event, error) {
	return nil, errors.New("not implemented")
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Email
	err  error
}

func (m *fakeMailer) Send(_ context.Context, e notify.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return m.err
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type published struct {
	Topic string
	Key   string
	Event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Key: key, Event: event})
	return p.err
}

func (p *fakePublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]published, len(p.events))
	copy(out, p.events)
	return out
}

type testEnv struct {
	repo     *repo.GormRepo
	pay      *fakeProcessor
	mail     *fakeMailer
	pub      *fakePublisher
	settings *SettingsService
	orders   *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	r := testutil.NewRepo(t)
	env := &testEnv{
		repo:     r,
		pay:      newFakeProcessor(),
		mail:     &fakeMailer{},
		pub:      &fakePublisher{},
		settings: &SettingsService{Repo: r},
	}
	env.orders = &OrderService{
		Repo:     r,
		Payments: env.pay,
		Mailer:   env.mail,
		Events:   env.pub,
		Settings: env.settings,
	}
	return env
}
