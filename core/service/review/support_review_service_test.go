package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"support_server/core/domain"
	"support_server/core/port/out"
	"support_server/pkg/apperr"

	"github.com/google/uuid"
)

type fakeReviewRepo struct {
	items    map[uuid.UUID]*domain.ReviewItem
	resolved []uuid.UUID
}

func newFakeReviewRepo(items ...*domain.ReviewItem) *fakeReviewRepo {
	repo := &fakeReviewRepo{items: make(map[uuid.UUID]*domain.ReviewItem)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (f *fakeReviewRepo) Create(_ context.Context, item *domain.ReviewItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeReviewRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.ReviewItem, error) {
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeReviewRepo) ListPending(_ context.Context) ([]*domain.ReviewItem, error) {
	var pending []*domain.ReviewItem
	for _, item := range f.items {
		if item.Status == domain.ReviewPending {
			pending = append(pending, item)
		}
	}
	return pending, nil
}

func (f *fakeReviewRepo) Resolve(_ context.Context, id uuid.UUID, resolvedBy string) error {
	item, ok := f.items[id]
	if !ok {
		return errors.New("not found")
	}
	now := time.Now()
	item.Status = domain.ReviewResolved
	item.ResolvedAt = &now
	item.ResolvedBy = resolvedBy
	f.resolved = append(f.resolved, id)
	return nil
}

func (f *fakeReviewRepo) CountByStatus(_ context.Context) (int, int, error) {
	pending, resolved := 0, 0
	for _, item := range f.items {
		if item.Status == domain.ReviewResolved {
			resolved++
		} else {
			pending++
		}
	}
	return pending, resolved, nil
}

type fakeLedgerRepo struct {
	entries map[string]*domain.LedgerEntry
	totals  out.LedgerCounts
}

func (f *fakeLedgerRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.entries[id]
	return ok, nil
}

func (f *fakeLedgerRepo) Get(_ context.Context, id string) (*domain.LedgerEntry, error) {
	if e, ok := f.entries[id]; ok {
		return e, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeLedgerRepo) Record(_ context.Context, _ *domain.LedgerEntry) error { return nil }

func (f *fakeLedgerRepo) CountsSince(_ context.Context, _ time.Time) (*out.LedgerCounts, error) {
	return &f.totals, nil
}

func (f *fakeLedgerRepo) Totals(_ context.Context) (*out.LedgerCounts, error) {
	return &f.totals, nil
}

func pendingItem(messageID string) *domain.ReviewItem {
	return &domain.ReviewItem{
		ID:            uuid.New(),
		MessageID:     messageID,
		CustomerEmail: "jane@example.com",
		Reason:        "overdue",
		Priority:      domain.PriorityHigh,
		Status:        domain.ReviewPending,
		CreatedAt:     time.Now(),
	}
}

func TestDetailJoinsLedger(t *testing.T) {
	item := pendingItem("m-1")
	repo := newFakeReviewRepo(item)
	ledger := &fakeLedgerRepo{entries: map[string]*domain.LedgerEntry{
		"m-1": {MessageID: "m-1", Disposition: domain.DispositionEscalated},
	}}
	svc := NewService(repo, ledger, nil)

	detail, err := svc.Detail(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if detail.Review.ID != item.ID {
		t.Errorf("Review.ID = %s, want %s", detail.Review.ID, item.ID)
	}
	if detail.Ledger == nil || detail.Ledger.MessageID != "m-1" {
		t.Errorf("Ledger = %+v, want entry for m-1", detail.Ledger)
	}
}

func TestDetailWithoutLedgerEntry(t *testing.T) {
	item := pendingItem("m-orphan")
	svc := NewService(newFakeReviewRepo(item), &fakeLedgerRepo{entries: map[string]*domain.LedgerEntry{}}, nil)

	detail, err := svc.Detail(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if detail.Ledger != nil {
		t.Error("missing ledger entry must be omitted, not fail the request")
	}
}

func TestDetailUnknownID(t *testing.T) {
	svc := NewService(newFakeReviewRepo(), &fakeLedgerRepo{}, nil)

	_, err := svc.Detail(context.Background(), uuid.New())
	if !apperr.IsAppError(err) {
		t.Fatalf("err = %v, want app error", err)
	}
	if apperr.GetHTTPStatus(err) != 404 {
		t.Errorf("status = %d, want 404", apperr.GetHTTPStatus(err))
	}
}

func TestResolve(t *testing.T) {
	item := pendingItem("m-2")
	repo := newFakeReviewRepo(item)
	svc := NewService(repo, &fakeLedgerRepo{}, nil)

	if err := svc.Resolve(context.Background(), item.ID, "alex"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if item.Status != domain.ReviewResolved || item.ResolvedBy != "alex" {
		t.Errorf("item = %+v, want resolved by alex", item)
	}

	err := svc.Resolve(context.Background(), item.ID, "alex")
	if err == nil {
		t.Fatal("second resolve must fail")
	}
	if apperr.GetHTTPStatus(err) != 400 {
		t.Errorf("status = %d, want 400", apperr.GetHTTPStatus(err))
	}
}

func TestStats(t *testing.T) {
	resolvedAt := time.Now()
	resolved := pendingItem("m-3")
	resolved.Status = domain.ReviewResolved
	resolved.ResolvedAt = &resolvedAt
	repo := newFakeReviewRepo(pendingItem("m-4"), resolved)
	ledger := &fakeLedgerRepo{totals: out.LedgerCounts{Total: 10, ResponsesSent: 8, SpamDetected: 1, Flagged: 2}}
	svc := NewService(repo, ledger, nil)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Pending != 1 || stats.Resolved != 1 {
		t.Errorf("counts = %d/%d, want 1/1", stats.Pending, stats.Resolved)
	}
	if stats.Automated != 8 || stats.TotalMessages != 10 {
		t.Errorf("ledger side = %d/%d, want 8/10", stats.Automated, stats.TotalMessages)
	}
	if stats.AutomationRate != 80 {
		t.Errorf("AutomationRate = %v, want 80", stats.AutomationRate)
	}
}

type fakeOrderStore struct {
	updated map[string]*out.ShippingAddress
	err     error
}

func (f *fakeOrderStore) FindByNumber(_ context.Context, _ string) (*domain.OrderContext, error) {
	return nil, out.ErrOrderNotFound
}

func (f *fakeOrderStore) FindByEmail(_ context.Context, _ string) (*domain.OrderContext, error) {
	return nil, out.ErrOrderNotFound
}

func (f *fakeOrderStore) UpdateShippingAddress(_ context.Context, number string, addr *out.ShippingAddress) error {
	if f.err != nil {
		return f.err
	}
	if f.updated == nil {
		f.updated = make(map[string]*out.ShippingAddress)
	}
	f.updated[number] = addr
	return nil
}

func TestUpdateAddress(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewService(newFakeReviewRepo(), &fakeLedgerRepo{}, store)

	addr := &out.ShippingAddress{Address1: "12 High St", City: "Leeds", Zip: "LS1 1AA", Country: "GB"}
	if err := svc.UpdateAddress(context.Background(), "10234", addr); err != nil {
		t.Fatalf("UpdateAddress: %v", err)
	}
	if store.updated["10234"] != addr {
		t.Error("address change did not reach the order store")
	}
}

func TestUpdateAddressValidation(t *testing.T) {
	svc := NewService(newFakeReviewRepo(), &fakeLedgerRepo{}, &fakeOrderStore{})

	err := svc.UpdateAddress(context.Background(), "10234", &out.ShippingAddress{City: "Leeds"})
	if apperr.GetHTTPStatus(err) != 400 {
		t.Errorf("status = %d, want 400 for incomplete address", apperr.GetHTTPStatus(err))
	}
}

func TestUpdateAddressUnknownOrder(t *testing.T) {
	svc := NewService(newFakeReviewRepo(), &fakeLedgerRepo{}, &fakeOrderStore{err: out.ErrOrderNotFound})

	addr := &out.ShippingAddress{Address1: "12 High St", City: "Leeds", Zip: "LS1 1AA", Country: "GB"}
	err := svc.UpdateAddress(context.Background(), "99999", addr)
	if apperr.GetHTTPStatus(err) != 404 {
		t.Errorf("status = %d, want 404 for unknown order", apperr.GetHTTPStatus(err))
	}
}

func TestUpdateAddressWithoutStore(t *testing.T) {
	svc := NewService(newFakeReviewRepo(), &fakeLedgerRepo{}, nil)

	addr := &out.ShippingAddress{Address1: "12 High St", City: "Leeds", Zip: "LS1 1AA", Country: "GB"}
	err := svc.UpdateAddress(context.Background(), "10234", addr)
	if apperr.GetHTTPStatus(err) != 503 {
		t.Errorf("status = %d, want 503 when no order store is wired", apperr.GetHTTPStatus(err))
	}
}

func TestStatsEmptyLedger(t *testing.T) {
	svc := NewService(newFakeReviewRepo(), &fakeLedgerRepo{}, nil)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.AutomationRate != 0 {
		t.Errorf("AutomationRate = %v, want 0 on empty ledger", stats.AutomationRate)
	}
}
