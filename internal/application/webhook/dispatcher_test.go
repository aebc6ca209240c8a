package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tojustn/Shepherd/internal/application/command"
	"github.com/Tojustn/Shepherd/internal/domain/account"
	"github.com/Tojustn/Shepherd/internal/domain/goal"
	"github.com/Tojustn/Shepherd/internal/domain/progression"
	"github.com/Tojustn/Shepherd/internal/domain/shared"
	"github.com/Tojustn/Shepherd/pkg/dateutil"
)

const testSecret = "webhook-test-secret"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeAccounts struct {
	byHandle map[account.Handle]*account.Account
}

func (r *fakeAccounts) Create(_ context.Context, acc *account.Account) error {
	r.byHandle[acc.Handle] = acc
	return nil
}

func (r *fakeAccounts) GetByID(_ context.Context, id string) (*account.Account, error) {
	for _, acc := range r.byHandle {
		if acc.ID == id {
			return acc.Clone(), nil
		}
	}
	return nil, account.ErrAccountNotFound
}

func (r *fakeAccounts) GetByHandle(_ context.Context, handle account.Handle) (*account.Account, error) {
	acc, ok := r.byHandle[handle]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return acc.Clone(), nil
}

func (r *fakeAccounts) Update(_ context.Context, acc *account.Account) error {
	r.byHandle[acc.Handle] = acc.Clone()
	return nil
}

type fakeLedger struct {
	entries []*progression.Entry
}

func (r *fakeLedger) Append(_ context.Context, entry *progression.Entry) error {
	e := *entry
	r.entries = append(r.entries, &e)
	return nil
}

func (r *fakeLedger) CountForDay(_ context.Context, accountID string, source progression.Source, day time.Time) (int, error) {
	count := 0
	for _, e := range r.entries {
		if e.AccountID == accountID && e.Source == source && dateutil.SameDay(e.Day, day) {
			count++
		}
	}
	return count, nil
}

func (r *fakeLedger) ListUnnotified(context.Context, string) ([]*progression.Entry, error) {
	return nil, nil
}

func (r *fakeLedger) MarkNotified(context.Context, string) error { return nil }

func (r *fakeLedger) MarkAllNotified(context.Context, string) error { return nil }

func (r *fakeLedger) countSource(source progression.Source) int {
	count := 0
	for _, e := range r.entries {
		if e.Source == source {
			count++
		}
	}
	return count
}

type fakeStreaks struct {
	streaks map[string]*progression.Streak
}

func (r *fakeStreaks) Get(_ context.Context, accountID string, kind progression.StreakKind) (*progression.Streak, error) {
	s, ok := r.streaks[accountID+"/"+string(kind)]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeStreaks) Save(_ context.Context, s *progression.Streak) error {
	copied := *s
	r.streaks[s.AccountID+"/"+string(s.Kind)] = &copied
	return nil
}

type fakeGoals struct {
	goals map[string]*goal.Goal
}

func (r *fakeGoals) Create(_ context.Context, g *goal.Goal) error {
	r.goals[g.ID] = g.Clone()
	return nil
}

func (r *fakeGoals) GetByID(_ context.Context, accountID, goalID string) (*goal.Goal, error) {
	g, ok := r.goals[goalID]
	if !ok || g.AccountID != accountID {
		return nil, goal.ErrGoalNotFound
	}
	return g.Clone(), nil
}

func (r *fakeGoals) GetForUpdate(ctx context.Context, accountID, goalID string) (*goal.Goal, error) {
	return r.GetByID(ctx, accountID, goalID)
}

func (r *fakeGoals) ListDaily(_ context.Context, accountID string, date time.Time) ([]*goal.Goal, error) {
	var out []*goal.Goal
	for _, g := range r.goals {
		if g.AccountID == accountID && g.Kind.IsDaily() && g.Date.Equal(date) {
			out = append(out, g.Clone())
		}
	}
	return out, nil
}

func (r *fakeGoals) ListCustom(context.Context, string) ([]*goal.Goal, error) {
	return nil, nil
}

func (r *fakeGoals) Update(_ context.Context, g *goal.Goal) error {
	r.goals[g.ID] = g.Clone()
	return nil
}

func (r *fakeGoals) Delete(_ context.Context, _, goalID string) error {
	delete(r.goals, goalID)
	return nil
}

type fakeDeliveries struct {
	seen map[string]bool
}

func (r *fakeDeliveries) Record(_ context.Context, deliveryID string) error {
	if r.seen[deliveryID] {
		return shared.ErrAlreadyProcessed
	}
	r.seen[deliveryID] = true
	return nil
}

// passTx runs fn directly; the dispatcher tests only care about ordering,
// not transactional rollback.
type passTx struct{}

func (passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type capturePublisher struct {
	events []shared.Event
}

func (p *capturePublisher) Publish(_ context.Context, event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

type captureCache struct {
	keys []string
}

func (c *captureCache) Invalidate(_ context.Context, key string) error {
	c.keys = append(c.keys, key)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Test wiring
// ──────────────────────────────────────────────────────────────────────────────

type dispatcherEnv struct {
	dispatcher *Dispatcher
	accounts   *fakeAccounts
	ledger     *fakeLedger
	streaks    *fakeStreaks
	goals      *fakeGoals
	deliveries *fakeDeliveries
	publisher  *capturePublisher
	cache      *captureCache
}

func newDispatcherEnv(t *testing.T) *dispatcherEnv {
	t.Helper()

	acc, err := account.NewAccount(account.NewAccountParams{ID: "acc-1", Handle: "octocat"})
	require.NoError(t, err)

	env := &dispatcherEnv{
		accounts:   &fakeAccounts{byHandle: map[account.Handle]*account.Account{acc.Handle: acc}},
		ledger:     &fakeLedger{},
		streaks:    &fakeStreaks{streaks: make(map[string]*progression.Streak)},
		goals:      &fakeGoals{goals: make(map[string]*goal.Goal)},
		deliveries: &fakeDeliveries{seen: make(map[string]bool)},
		publisher:  &capturePublisher{},
		cache:      &captureCache{},
	}

	award := command.NewAwardXPHandler(env.accounts, env.ledger, env.streaks, nil, time.UTC)
	advance := command.NewAdvanceStreakHandler(env.streaks, time.UTC)
	incr := command.NewIncrementGoalHandler(env.goals, award)

	env.dispatcher = NewDispatcher(testSecret, env.accounts, env.deliveries, passTx{}, env.publisher, env.cache, nil)
	env.dispatcher.Register("push", NewPushHandler(award, advance, env.goals, incr, time.UTC))
	return env
}

// ──────────────────────────────────────────────────────────────────────────────
// Dispatcher
// ──────────────────────────────────────────────────────────────────────────────

func TestDispatcher_RejectsBadSignature(t *testing.T) {
	env := newDispatcherEnv(t)
	body := []byte(`{"pusher":{"name":"octocat"},"commits":[]}`)

	_, err := env.dispatcher.Dispatch(context.Background(), body, "sha256=deadbeef", "push", "d-1")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = env.dispatcher.Dispatch(context.Background(), body, "", "push", "d-1")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDispatcher_VerifySignature(t *testing.T) {
	env := newDispatcherEnv(t)
	body := []byte(`{"zen":"Design for failure."}`)

	assert.True(t, env.dispatcher.VerifySignature(body, sign(body)))
	assert.False(t, env.dispatcher.VerifySignature([]byte(`tampered`), sign(body)))
}

func TestDispatcher_IgnoresUnregisteredEvent(t *testing.T) {
	env := newDispatcherEnv(t)
	body := []byte(`{"zen":"Keep it logically awesome."}`)

	outcome, err := env.dispatcher.Dispatch(context.Background(), body, sign(body), "ping", "d-1")
	require.NoError(t, err)
	assert.Equal(t, StatusIgnored, outcome.Status)
}

func TestDispatcher_NoSender(t *testing.T) {
	env := newDispatcherEnv(t)
	body := []byte(`{"commits":[]}`)

	outcome, err := env.dispatcher.Dispatch(context.Background(), body, sign(body), "push", "d-1")
	require.NoError(t, err)
	assert.Equal(t, StatusNoSender, outcome.Status)
}

func TestDispatcher_UnknownAccountIsSoftIgnored(t *testing.T) {
	env := newDispatcherEnv(t)
	body := []byte(`{"pusher":{"name":"stranger"},"commits":[]}`)

	outcome, err := env.dispatcher.Dispatch(context.Background(), body, sign(body), "push", "d-1")
	require.NoError(t, err)
	assert.Equal(t, StatusUnknownAccount, outcome.Status)
	assert.Empty(t, env.ledger.entries)
}

func TestDispatcher_DuplicateDelivery(t *testing.T) {
	env := newDispatcherEnv(t)
	body := []byte(`{"pusher":{"name":"octocat"},"commits":[{"id":"sha1","added":["a.go"]}]}`)

	first, err := env.dispatcher.Dispatch(context.Background(), body, sign(body), "push", "d-1")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, first.Status)

	replay, err := env.dispatcher.Dispatch(context.Background(), body, sign(body), "push", "d-1")
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, replay.Status)

	// the replay must not award again
	assert.Equal(t, 1, env.ledger.countSource(progression.SourceCommit))
}

func TestDispatcher_SenderFallsBackToSenderLogin(t *testing.T) {
	env := newDispatcherEnv(t)
	body := []byte(`{"sender":{"login":"octocat"},"commits":[]}`)

	outcome, err := env.dispatcher.Dispatch(context.Background(), body, sign(body), "push", "d-1")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, outcome.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Push handler
// ──────────────────────────────────────────────────────────────────────────────

func TestDispatcher_PushAwardsPerCommit(t *testing.T) {
	env := newDispatcherEnv(t)
	body := []byte(`{
		"pusher": {"name": "octocat"},
		"repository": {"full_name": "octocat/hello-world"},
		"commits": [
			{"id": "sha1", "added": ["a.go"], "modified": ["b.go"]},
			{"id": "sha2", "modified": ["c.go"]}
		]
	}`)

	outcome, err := env.dispatcher.Dispatch(context.Background(), body, sign(body), "push", "d-1")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, outcome.Status)
	assert.Equal(t, 2, outcome.Detail["commits_processed"])

	// 10+2*2 for the first commit, 10+2*1 for the second, plus a day-one
	// streak bonus of 5
	assert.Equal(t, 26, outcome.Detail["xp_awarded"])
	assert.Equal(t, 1, outcome.Detail["streak"])
	assert.Equal(t, 2, env.ledger.countSource(progression.SourceCommit))
	assert.Equal(t, 1, env.ledger.countSource(progression.SourceStreakBonus))

	// events published after commit, caches invalidated
	assert.Len(t, env.publisher.events, 3)
	assert.Contains(t, env.cache.keys, "account:summary:acc-1")
	assert.Contains(t, env.cache.keys, "github:repos:acc-1")
}

func TestDispatcher_PushProgressesCommitQuest(t *testing.T) {
	env := newDispatcherEnv(t)
	today := dateutil.DayOf(time.Now(), time.UTC)
	quest := goal.NewDailyGoal("quest-1", "acc-1", goal.DailyCatalog[0], today)
	require.NoError(t, env.goals.Create(context.Background(), quest))

	body := []byte(`{"pusher":{"name":"octocat"},"commits":[{"id":"sha1"}]}`)
	outcome, err := env.dispatcher.Dispatch(context.Background(), body, sign(body), "push", "d-1")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, outcome.Status)

	stored, err := env.goals.GetByID(context.Background(), "acc-1", "quest-1")
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.Equal(t, 1, env.ledger.countSource(progression.SourceGoalComplete))
}

func TestDispatcher_EmptyPushStillAdvancesStreak(t *testing.T) {
	env := newDispatcherEnv(t)
	body := []byte(`{"pusher":{"name":"octocat"},"commits":[]}`)

	outcome, err := env.dispatcher.Dispatch(context.Background(), body, sign(body), "push", "d-1")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, outcome.Status)
	assert.Equal(t, 0, outcome.Detail["commits_processed"])
	assert.Equal(t, 1, outcome.Detail["streak"])
	assert.Zero(t, env.ledger.countSource(progression.SourceCommit))
}
