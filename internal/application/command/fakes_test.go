package command

import (
	"context"
	"sync"
	"time"

	"github.com/Tojustn/Shepherd/internal/domain/account"
	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
	"github.com/Tojustn/Shepherd/pkg/dateutil"
)

// In-memory repository fakes shared by the command tests.

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*account.Account
}

func newFakeAccountRepo(accs ...*account.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: make(map[string]*account.Account)}
	for _, a := range accs {
		r.accounts[a.ID] = a.Clone()
	}
	return r
}

func (r *fakeAccountRepo) Create(_ context.Context, acc *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Handle == acc.Handle {
			return account.ErrAccountAlreadyExists
		}
	}
	r.accounts[acc.ID] = acc.Clone()
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return acc.Clone(), nil
}

func (r *fakeAccountRepo) GetByHandle(_ context.Context, handle account.Handle) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range r.accounts {
		if acc.Handle == handle {
			return acc.Clone(), nil
		}
	}
	return nil, account.ErrAccountNotFound
}

func (r *fakeAccountRepo) Update(_ context.Context, acc *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[acc.ID]; !ok {
		return account.ErrAccountNotFound
	}
	r.accounts[acc.ID] = acc.Clone()
	return nil
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries []*progression.Entry
}

func (r *fakeLedgerRepo) Append(_ context.Context, entry *progression.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *entry
	r.entries = append(r.entries, &e)
	return nil
}

func (r *fakeLedgerRepo) CountForDay(_ context.Context, accountID string, source progression.Source, day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, e := range r.entries {
		if e.AccountID == accountID && e.Source == source && dateutil.SameDay(e.Day, day) {
			count++
		}
	}
	return count, nil
}

func (r *fakeLedgerRepo) ListUnnotified(_ context.Context, accountID string) ([]*progression.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progression.Entry
	for _, e := range r.entries {
		if e.AccountID == accountID && !e.Notified {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) MarkNotified(_ context.Context, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == entryID {
			e.Notified = true
		}
	}
	return nil
}

func (r *fakeLedgerRepo) MarkAllNotified(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.AccountID == accountID {
			e.Notified = true
		}
	}
	return nil
}

func (r *fakeLedgerRepo) bySource(source progression.Source) []*progression.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progression.Entry
	for _, e := range r.entries {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}

type fakeStreakRepo struct {
	mu      sync.Mutex
	streaks map[string]*progression.Streak
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: make(map[string]*progression.Streak)}
}

func streakKey(accountID string, kind progression.StreakKind) string {
	return accountID + "/" + string(kind)
}

func (r *fakeStreakRepo) Get(_ context.Context, accountID string, kind progression.StreakKind) (*progression.Streak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streaks[streakKey(accountID, kind)]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeStreakRepo) Save(_ context.Context, s *progression.Streak) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *s
	r.streaks[streakKey(s.AccountID, s.Kind)] = &copied
	return nil
}

type fakeGoalRepo struct {
	mu    sync.Mutex
	goals map[string]*goal.Goal
}

func newFakeGoalRepo() *fakeGoalRepo {
	return &fakeGoalRepo{goals: make(map[string]*goal.Goal)}
}

func (r *fakeGoalRepo) Create(_ context.Context, g *goal.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.Kind.IsDaily() {
		for _, existing := range r.goals {
			if existing.AccountID == g.AccountID && existing.Kind == g.Kind &&
				dateutil.SameDay(existing.Date, g.Date) {
				return shared.ErrAlreadyExists
			}
		}
	}
	r.goals[g.ID] = g.Clone()
	return nil
}

func (r *fakeGoalRepo) GetByID(_ context.Context, accountID, goalID string) (*goal.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[goalID]
	if !ok || g.AccountID != accountID {
		return nil, goal.ErrGoalNotFound
	}
	return g.Clone(), nil
}

func (r *fakeGoalRepo) GetForUpdate(ctx context.Context, accountID, goalID string) (*goal.Goal, error) {
	return r.GetByID(ctx, accountID, goalID)
}

func (r *fakeGoalRepo) ListDaily(_ context.Context, accountID string, date time.Time) ([]*goal.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*goal.Goal
	for _, g := range r.goals {
		if g.AccountID == accountID && g.Active && g.Kind.IsDaily() && dateutil.SameDay(g.Date, date) {
			out = append(out, g.Clone())
		}
	}
	return out, nil
}

func (r *fakeGoalRepo) ListCustom(_ context.Context, accountID string) ([]*goal.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*goal.Goal
	for _, g := range r.goals {
		if g.AccountID == accountID && g.Active && g.Kind == goal.KindCustom {
			out = append(out, g.Clone())
		}
	}
	return out, nil
}

func (r *fakeGoalRepo) Update(_ context.Context, g *goal.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.goals[g.ID]; !ok {
		return goal.ErrGoalNotFound
	}
	r.goals[g.ID] = g.Clone()
	return nil
}

func (r *fakeGoalRepo) Delete(_ context.Context, accountID, goalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[goalID]
	if !ok || g.AccountID != accountID {
		return goal.ErrGoalNotFound
	}
	delete(r.goals, goalID)
	return nil
}
