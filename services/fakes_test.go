package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/fadhlanhapp/rentlot-backend/gateway"
	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/repository"
)

var testNow = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeLeaseStore struct {
	mu     sync.Mutex
	leases map[string]*models.Lease
}

func newFakeLeaseStore(leases ...*models.Lease) *fakeLeaseStore {
	s := &fakeLeaseStore{leases: make(map[string]*models.Lease)}
	for _, l := range leases {
		s.leases[l.ID] = l
	}
	return s
}

func (s *fakeLeaseStore) CreateLease(_ context.Context, lease *models.Lease, check repository.SpotCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing []models.Lease
	for _, l := range s.leases {
		if l.SpotID == lease.SpotID && l.CancelledAt == nil && !l.IsDeleted() {
			existing = append(existing, *l)
		}
	}
	if check != nil {
		if err := check(existing); err != nil {
			return err
		}
	}
	cp := *lease
	s.leases[lease.ID] = &cp
	return nil
}

func (s *fakeLeaseStore) GetLease(_ context.Context, id string) (*models.Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *fakeLeaseStore) DeleteLease(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leases[id]
	if !ok || l.IsDeleted() {
		return repository.ErrNotFound
	}
	l.DeletedAt = gorm.DeletedAt{Time: testNow, Valid: true}
	return nil
}

type fakeAnomalyStore struct {
	mu        sync.Mutex
	anomalies []models.WebhookAnomaly
}

func (s *fakeAnomalyStore) RecordAnomaly(_ context.Context, a *models.WebhookAnomaly) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anomalies = append(s.anomalies, *a)
	return nil
}

func (s *fakeAnomalyStore) ListAnomalies(_ context.Context, limit int, _ bool) ([]models.WebhookAnomaly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > 0 && limit < len(s.anomalies) {
		return append([]models.WebhookAnomaly(nil), s.anomalies[:limit]...), nil
	}
	return append([]models.WebhookAnomaly(nil), s.anomalies...), nil
}

// fakeGateway records link requests and doubles as its own router
type fakeGateway struct {
	mu       sync.Mutex
	requests []gateway.LinkRequest
	err      error
	block    bool
}

func (g *fakeGateway) ForProperty(string) (gateway.Gateway, error) {
	return g, nil
}

func (g *fakeGateway) CreateLink(ctx context.Context, req gateway.LinkRequest) (*gateway.Link, error) {
	if g.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	id := "LINK-" + req.RecordID()
	return &gateway.Link{ID: id, URL: "https://pay.test/" + id, Status: gateway.LinkOpen}, nil
}

func (g *fakeGateway) RetrieveLink(_ context.Context, linkID string) (*gateway.Link, error) {
	return &gateway.Link{ID: linkID, URL: "https://pay.test/" + linkID, Status: gateway.LinkApproved}, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []string
	err     error
}

func (n *fakeNotifier) PaymentLinkCreated(_ context.Context, p *models.PaymentRecord, _ *gateway.Link) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, p.ID)
	return n.err
}
