package service

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/beta-access-portal/internal/model"
	"github.com/iliyamo/beta-access-portal/internal/queue"
	"github.com/iliyamo/beta-access-portal/internal/repository"
)

// In-memory fakes standing in for the MySQL repositories and the relay
// publisher so the services can be exercised without infrastructure.

type fakeAccounts struct {
	nextID   uint64
	accounts map[uint64]model.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[uint64]model.Account)}
}

func (f *fakeAccounts) Create(_ context.Context, a *model.Account) (uint64, error) {
	for _, existing := range f.accounts {
		if existing.Email == a.Email {
			return 0, repository.ErrEmailExists
		}
	}
	f.nextID++
	a.ID = f.nextID
	f.accounts[a.ID] = *a
	return a.ID, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	email = repository.NormalizeEmail(email)
	for _, a := range f.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return model.Account{}, repository.ErrNotFound
}

func (f *fakeAccounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) Update(_ context.Context, a *model.Account) error {
	if _, ok := f.accounts[a.ID]; !ok {
		return repository.ErrNotFound
	}
	f.accounts[a.ID] = *a
	return nil
}

func (f *fakeAccounts) List(_ context.Context) ([]model.Account, error) {
	out := make([]model.Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeNotices struct {
	nextID  uint64
	notices map[uint64]model.Notice
}

func newFakeNotices() *fakeNotices {
	return &fakeNotices{notices: make(map[uint64]model.Notice)}
}

func (f *fakeNotices) Create(_ context.Context, n *model.Notice) (uint64, error) {
	f.nextID++
	n.ID = f.nextID
	f.notices[n.ID] = *n
	return n.ID, nil
}

func (f *fakeNotices) ListByAccount(_ context.Context, accountID uint64) ([]model.Notice, error) {
	var out []model.Notice
	for _, n := range f.notices {
		if n.AccountID == accountID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeNotices) MarkRead(_ context.Context, id uint64) error {
	n, ok := f.notices[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.Read = true
	f.notices[id] = n
	return nil
}

func (f *fakeNotices) CountUnread(_ context.Context, accountID uint64) (int, error) {
	count := 0
	for _, n := range f.notices {
		if n.AccountID == accountID && !n.Read {
			count++
		}
	}
	return count, nil
}

type fakeRequests struct {
	nextID   uint64
	requests map[model.Variant]map[uint64]model.AccessRequest
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{requests: map[model.Variant]map[uint64]model.AccessRequest{
		model.VariantBeta: {},
		model.VariantTeam: {},
	}}
}

func (f *fakeRequests) Create(_ context.Context, req *model.AccessRequest) (uint64, error) {
	f.nextID++
	req.ID = f.nextID
	f.requests[req.Variant][req.ID] = *req
	return req.ID, nil
}

func (f *fakeRequests) GetByID(_ context.Context, v model.Variant, id uint64) (model.AccessRequest, error) {
	req, ok := f.requests[v][id]
	if !ok {
		return model.AccessRequest{}, repository.ErrNotFound
	}
	return req, nil
}

func (f *fakeRequests) byVariant(v model.Variant) []model.AccessRequest {
	out := make([]model.AccessRequest, 0, len(f.requests[v]))
	for _, req := range f.requests[v] {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeRequests) List(_ context.Context, v model.Variant) ([]model.AccessRequest, error) {
	return f.byVariant(v), nil
}

func (f *fakeRequests) ListByStatus(_ context.Context, v model.Variant, s model.Status) ([]model.AccessRequest, error) {
	var out []model.AccessRequest
	for _, req := range f.byVariant(v) {
		if req.Status == s {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeRequests) ListByAccount(_ context.Context, v model.Variant, accountID uint64) ([]model.AccessRequest, error) {
	var out []model.AccessRequest
	for _, req := range f.byVariant(v) {
		if req.AccountID == accountID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeRequests) Latest(ctx context.Context, v model.Variant, accountID uint64) (model.AccessRequest, error) {
	reqs, _ := f.ListByAccount(ctx, v, accountID)
	if len(reqs) == 0 {
		return model.AccessRequest{}, repository.ErrNotFound
	}
	return reqs[0], nil
}

func (f *fakeRequests) UpdateDecision(_ context.Context, req *model.AccessRequest) error {
	if _, ok := f.requests[req.Variant][req.ID]; !ok {
		return repository.ErrNotFound
	}
	f.requests[req.Variant][req.ID] = *req
	return nil
}

func (f *fakeRequests) Delete(_ context.Context, v model.Variant, id uint64) error {
	if _, ok := f.requests[v][id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.requests[v], id)
	return nil
}

type fakeSessions struct {
	saved map[uint64]model.Account
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{saved: make(map[uint64]model.Account)}
}

func (f *fakeSessions) SaveAccount(_ context.Context, a model.Account) error {
	f.saved[a.ID] = a
	return nil
}

func (f *fakeSessions) GetAccount(_ context.Context, id uint64) (model.Account, bool, error) {
	a, ok := f.saved[id]
	return a, ok, nil
}

func (f *fakeSessions) DeleteAccount(_ context.Context, id uint64) error {
	delete(f.saved, id)
	return nil
}

type fakePublisher struct {
	events []queue.RequestEvent
}

func (f *fakePublisher) Publish(_ context.Context, ev queue.RequestEvent) error {
	f.events = append(f.events, ev)
	return nil
}

// frozenClock returns a now() func pinned to base plus an offset the
// test can advance.
type frozenClock struct {
	base   time.Time
	offset time.Duration
}

func (c *frozenClock) now() time.Time { return c.base.Add(c.offset) }
