// Package memory is an in-process Store used by the memory backend and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"brankas/internal/core"
	"brankas/internal/storage"
)

type state struct {
	seq          int64
	accounts     map[int64]core.Account
	transactions map[int64]core.Transaction
	categories   map[int64]core.Category
	budgets      map[int64]core.Budget
	goals        map[int64]core.Goal
	debts        map[int64]core.Debt
	profiles     map[string]core.Profile
	settings     map[string]core.Settings
	outbox       map[int64]storage.OutboxEvent
}

func (s *state) clone() *state {
	c := &state{
		seq:          s.seq,
		accounts:     make(map[int64]core.Account, len(s.accounts)),
		transactions: make(map[int64]core.Transaction, len(s.transactions)),
		categories:   make(map[int64]core.Category, len(s.categories)),
		budgets:      make(map[int64]core.Budget, len(s.budgets)),
		goals:        make(map[int64]core.Goal, len(s.goals)),
		debts:        make(map[int64]core.Debt, len(s.debts)),
		profiles:     make(map[string]core.Profile, len(s.profiles)),
		settings:     make(map[string]core.Settings, len(s.settings)),
		outbox:       make(map[int64]storage.OutboxEvent, len(s.outbox)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.budgets {
		c.budgets[k] = v
	}
	for k, v := range s.goals {
		c.goals[k] = v
	}
	for k, v := range s.debts {
		c.debts[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	return c
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

type failure struct {
	nth int
	err error
}

// Store keeps every row in maps guarded by one mutex. WithTx holds the mutex
// for the whole unit and restores a snapshot when fn fails.
type Store struct {
	*view

	mu       sync.Mutex
	st       *state
	calls    map[string]int
	failures map[string]*failure
	now      func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store seeded with the built-in categories.
func New() *Store {
	s := &Store{
		st: &state{
			accounts:     map[int64]core.Account{},
			transactions: map[int64]core.Transaction{},
			categories:   map[int64]core.Category{},
			budgets:      map[int64]core.Budget{},
			goals:        map[int64]core.Goal{},
			debts:        map[int64]core.Debt{},
			profiles:     map[string]core.Profile{},
			settings:     map[string]core.Settings{},
			outbox:       map[int64]storage.OutboxEvent{},
		},
		calls:    map[string]int{},
		failures: map[string]*failure{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.view = &view{s: s}
	s.seedCategories()
	return s
}

func (s *Store) seedCategories() {
	roots := []struct {
		name string
		typ  core.CategoryType
		subs []string
	}{
		{"Income", core.CategoryIncome, []string{"Salary", "Bonus", "Investment"}},
		{"Expense", core.CategoryExpense, []string{"Food", "Transport", "Bills", "Shopping", "Health", "Entertainment"}},
		{"Debt", core.CategoryDebt, []string{"Loan payment"}},
	}
	for _, r := range roots {
		root := core.Category{ID: s.st.nextID(), Name: r.name, Type: r.typ, Default: true, Active: true}
		s.st.categories[root.ID] = root
		for _, name := range r.subs {
			c := core.Category{ID: s.st.nextID(), Name: name, Type: r.typ, ParentID: root.ID, Default: true, Active: true}
			s.st.categories[c.ID] = c
		}
	}
}

// FailOn makes the nth next call of method return err. Used by tests to
// break a multi-write unit halfway through.
func (s *Store) FailOn(method string, nth int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = &failure{nth: nth, err: err}
}

// Calls returns how often each gateway method has been called.
func (s *Store) Calls() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.calls))
	for k, v := range s.calls {
		out[k] = v
	}
	return out
}

// TotalCalls sums Calls.
func (s *Store) TotalCalls() int {
	total := 0
	for _, n := range s.Calls() {
		total += n
	}
	return total
}

func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = map[string]int{}
}

func (s *Store) WithTx(ctx context.Context, fn func(storage.Gateway) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(&view{s: s, inTx: true}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// view implements storage.Gateway. Outside a transaction every call takes
// the store mutex; inside WithTx the mutex is already held.
type view struct {
	s    *Store
	inTx bool
}

// enter records the call, takes the lock when needed and returns any
// injected failure.
func (v *view) enter(method string) (func(), error) {
	release := func() {}
	if !v.inTx {
		v.s.mu.Lock()
		release = v.s.mu.Unlock
	}
	v.s.calls[method]++
	if f, ok := v.s.failures[method]; ok {
		f.nth--
		if f.nth <= 0 {
			delete(v.s.failures, method)
			return release, f.err
		}
	}
	return release, nil
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("get %s %d: %w", kind, id, storage.ErrNotFound)
}

// Accounts

func (v *view) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	release, err := v.enter("ListAccounts")
	defer release()
	if err != nil {
		return nil, err
	}
	var out []core.Account
	for _, id := range sortedIDs(v.s.st.accounts) {
		if a := v.s.st.accounts[id]; a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (v *view) GetAccount(_ context.Context, userID string, id int64) (core.Account, error) {
	release, err := v.enter("GetAccount")
	defer release()
	if err != nil {
		return core.Account{}, err
	}
	a, ok := v.s.st.accounts[id]
	if !ok || a.UserID != userID {
		return core.Account{}, notFound("account", id)
	}
	return a, nil
}

func (v *view) InsertAccount(_ context.Context, a core.Account) (core.Account, error) {
	release, err := v.enter("InsertAccount")
	defer release()
	if err != nil {
		return core.Account{}, err
	}
	for _, other := range v.s.st.accounts {
		if other.UserID == a.UserID && other.Name == a.Name {
			return core.Account{}, fmt.Errorf("insert account: UNIQUE constraint failed: accounts.user_id, accounts.name")
		}
	}
	a.ID = v.s.st.nextID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = v.s.now()
	}
	v.s.st.accounts[a.ID] = a
	return a, nil
}

func (v *view) UpdateAccount(_ context.Context, userID string, id int64, p storage.AccountPatch) (core.Account, error) {
	release, err := v.enter("UpdateAccount")
	defer release()
	if err != nil {
		return core.Account{}, err
	}
	a, ok := v.s.st.accounts[id]
	if !ok || a.UserID != userID {
		return core.Account{}, notFound("account", id)
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	if p.Savings != nil {
		a.Savings = *p.Savings
	}
	if p.Color != nil {
		a.Color = *p.Color
	}
	v.s.st.accounts[id] = a
	return a, nil
}

func (v *view) DeleteAccount(_ context.Context, userID string, id int64) error {
	release, err := v.enter("DeleteAccount")
	defer release()
	if err != nil {
		return err
	}
	a, ok := v.s.st.accounts[id]
	if !ok || a.UserID != userID {
		return notFound("account", id)
	}
	delete(v.s.st.accounts, id)
	return nil
}

// Transactions

func (v *view) ListTransactions(_ context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error) {
	release, err := v.enter("ListTransactions")
	defer release()
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, id := range sortedIDs(v.s.st.transactions) {
		t := v.s.st.transactions[id]
		if t.UserID != userID {
			continue
		}
		if f.AccountID > 0 && t.AccountID != f.AccountID && t.DestinationID != f.AccountID {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if !f.From.IsZero() && t.Date.Time.Before(f.From.Time) {
			continue
		}
		if !f.To.IsZero() && t.Date.Time.After(f.To.Time) {
			continue
		}
		out = append(out, v.withLiveNames(t))
	}
	// Newest first, like the SQL gateway.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Time.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (v *view) GetTransaction(_ context.Context, userID string, id int64) (core.Transaction, error) {
	release, err := v.enter("GetTransaction")
	defer release()
	if err != nil {
		return core.Transaction{}, err
	}
	t, ok := v.s.st.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, notFound("transaction", id)
	}
	return v.withLiveNames(t), nil
}

// withLiveNames swaps the stored account names for those of accounts that
// still exist.
func (v *view) withLiveNames(t core.Transaction) core.Transaction {
	if a, ok := v.s.st.accounts[t.AccountID]; ok && a.UserID == t.UserID {
		t.AccountName = a.Name
	}
	if a, ok := v.s.st.accounts[t.DestinationID]; ok && t.DestinationID > 0 && a.UserID == t.UserID {
		t.DestinationName = a.Name
	}
	return t
}

func (v *view) InsertTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	release, err := v.enter("InsertTransaction")
	defer release()
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = v.s.st.nextID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = v.s.now()
	}
	v.s.st.transactions[t.ID] = t
	return t, nil
}

func (v *view) UpdateTransaction(_ context.Context, userID string, id int64, p storage.TransactionPatch) (core.Transaction, error) {
	release, err := v.enter("UpdateTransaction")
	defer release()
	if err != nil {
		return core.Transaction{}, err
	}
	t, ok := v.s.st.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, notFound("transaction", id)
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Subcategory != nil {
		t.Subcategory = *p.Subcategory
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.AccountName != nil {
		t.AccountName = *p.AccountName
	}
	if p.DestinationID != nil {
		t.DestinationID = *p.DestinationID
	}
	if p.DestinationName != nil {
		t.DestinationName = *p.DestinationName
	}
	if p.ReceiptURL != nil {
		t.ReceiptURL = *p.ReceiptURL
	}
	if p.Struck != nil {
		t.Struck = *p.Struck
	}
	v.s.st.transactions[id] = t
	return v.withLiveNames(t), nil
}

func (v *view) DeleteTransaction(_ context.Context, userID string, id int64) error {
	release, err := v.enter("DeleteTransaction")
	defer release()
	if err != nil {
		return err
	}
	t, ok := v.s.st.transactions[id]
	if !ok || t.UserID != userID {
		return notFound("transaction", id)
	}
	delete(v.s.st.transactions, id)
	return nil
}

// Categories

func visible(c core.Category, userID string) bool {
	return c.UserID == "" || c.UserID == userID
}

func (v *view) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	release, err := v.enter("ListCategories")
	defer release()
	if err != nil {
		return nil, err
	}
	var out []core.Category
	for _, id := range sortedIDs(v.s.st.categories) {
		if c := v.s.st.categories[id]; visible(c, userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (v *view) GetCategory(_ context.Context, userID string, id int64) (core.Category, error) {
	release, err := v.enter("GetCategory")
	defer release()
	if err != nil {
		return core.Category{}, err
	}
	c, ok := v.s.st.categories[id]
	if !ok || !visible(c, userID) {
		return core.Category{}, notFound("category", id)
	}
	return c, nil
}

func (v *view) InsertCategory(_ context.Context, c core.Category) (core.Category, error) {
	release, err := v.enter("InsertCategory")
	defer release()
	if err != nil {
		return core.Category{}, err
	}
	c.ID = v.s.st.nextID()
	c.Subcategories = nil
	v.s.st.categories[c.ID] = c
	return c, nil
}

func (v *view) UpdateCategory(_ context.Context, userID string, id int64, p storage.CategoryPatch) (core.Category, error) {
	release, err := v.enter("UpdateCategory")
	defer release()
	if err != nil {
		return core.Category{}, err
	}
	c, ok := v.s.st.categories[id]
	if !ok || c.UserID == "" || c.UserID != userID {
		return core.Category{}, notFound("category", id)
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
	v.s.st.categories[id] = c
	return c, nil
}

// Budgets

func (v *view) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	release, err := v.enter("ListBudgets")
	defer release()
	if err != nil {
		return nil, err
	}
	var out []core.Budget
	for _, id := range sortedIDs(v.s.st.budgets) {
		if b := v.s.st.budgets[id]; b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (v *view) GetBudget(_ context.Context, userID string, id int64) (core.Budget, error) {
	release, err := v.enter("GetBudget")
	defer release()
	if err != nil {
		return core.Budget{}, err
	}
	b, ok := v.s.st.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, notFound("budget", id)
	}
	return b, nil
}

func (v *view) InsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	release, err := v.enter("InsertBudget")
	defer release()
	if err != nil {
		return core.Budget{}, err
	}
	b.ID = v.s.st.nextID()
	v.s.st.budgets[b.ID] = b
	return b, nil
}

func (v *view) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	release, err := v.enter("UpdateBudget")
	defer release()
	if err != nil {
		return core.Budget{}, err
	}
	old, ok := v.s.st.budgets[b.ID]
	if !ok || old.UserID != b.UserID {
		return core.Budget{}, notFound("budget", b.ID)
	}
	v.s.st.budgets[b.ID] = b
	return b, nil
}

func (v *view) DeleteBudget(_ context.Context, userID string, id int64) error {
	release, err := v.enter("DeleteBudget")
	defer release()
	if err != nil {
		return err
	}
	b, ok := v.s.st.budgets[id]
	if !ok || b.UserID != userID {
		return notFound("budget", id)
	}
	delete(v.s.st.budgets, id)
	return nil
}

// Goals and debts

func (v *view) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	release, err := v.enter("ListGoals")
	defer release()
	if err != nil {
		return nil, err
	}
	var out []core.Goal
	for _, id := range sortedIDs(v.s.st.goals) {
		if g := v.s.st.goals[id]; g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (v *view) InsertGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	release, err := v.enter("InsertGoal")
	defer release()
	if err != nil {
		return core.Goal{}, err
	}
	g.ID = v.s.st.nextID()
	v.s.st.goals[g.ID] = g
	return g, nil
}

func (v *view) UpdateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	release, err := v.enter("UpdateGoal")
	defer release()
	if err != nil {
		return core.Goal{}, err
	}
	old, ok := v.s.st.goals[g.ID]
	if !ok || old.UserID != g.UserID {
		return core.Goal{}, notFound("goal", g.ID)
	}
	v.s.st.goals[g.ID] = g
	return g, nil
}

func (v *view) DeleteGoal(_ context.Context, userID string, id int64) error {
	release, err := v.enter("DeleteGoal")
	defer release()
	if err != nil {
		return err
	}
	g, ok := v.s.st.goals[id]
	if !ok || g.UserID != userID {
		return notFound("goal", id)
	}
	delete(v.s.st.goals, id)
	return nil
}

func (v *view) ListDebts(_ context.Context, userID string) ([]core.Debt, error) {
	release, err := v.enter("ListDebts")
	defer release()
	if err != nil {
		return nil, err
	}
	var out []core.Debt
	for _, id := range sortedIDs(v.s.st.debts) {
		if d := v.s.st.debts[id]; d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (v *view) InsertDebt(_ context.Context, d core.Debt) (core.Debt, error) {
	release, err := v.enter("InsertDebt")
	defer release()
	if err != nil {
		return core.Debt{}, err
	}
	d.ID = v.s.st.nextID()
	v.s.st.debts[d.ID] = d
	return d, nil
}

func (v *view) UpdateDebt(_ context.Context, d core.Debt) (core.Debt, error) {
	release, err := v.enter("UpdateDebt")
	defer release()
	if err != nil {
		return core.Debt{}, err
	}
	old, ok := v.s.st.debts[d.ID]
	if !ok || old.UserID != d.UserID {
		return core.Debt{}, notFound("debt", d.ID)
	}
	v.s.st.debts[d.ID] = d
	return d, nil
}

func (v *view) DeleteDebt(_ context.Context, userID string, id int64) error {
	release, err := v.enter("DeleteDebt")
	defer release()
	if err != nil {
		return err
	}
	d, ok := v.s.st.debts[id]
	if !ok || d.UserID != userID {
		return notFound("debt", id)
	}
	delete(v.s.st.debts, id)
	return nil
}

// Profiles and settings

func (v *view) GetProfile(_ context.Context, userID string) (core.Profile, error) {
	release, err := v.enter("GetProfile")
	defer release()
	if err != nil {
		return core.Profile{}, err
	}
	p, ok := v.s.st.profiles[userID]
	if !ok {
		return core.Profile{}, fmt.Errorf("get profile: %w", storage.ErrNotFound)
	}
	return p, nil
}

func (v *view) SaveProfile(_ context.Context, p core.Profile) (core.Profile, error) {
	release, err := v.enter("SaveProfile")
	defer release()
	if err != nil {
		return core.Profile{}, err
	}
	p.UpdatedAt = v.s.now()
	v.s.st.profiles[p.UserID] = p
	return p, nil
}

func (v *view) GetSettings(_ context.Context, userID string) (core.Settings, error) {
	release, err := v.enter("GetSettings")
	defer release()
	if err != nil {
		return core.Settings{}, err
	}
	s, ok := v.s.st.settings[userID]
	if !ok {
		return core.Settings{}, fmt.Errorf("get settings: %w", storage.ErrNotFound)
	}
	return s, nil
}

func (v *view) SaveSettings(_ context.Context, s core.Settings) (core.Settings, error) {
	release, err := v.enter("SaveSettings")
	defer release()
	if err != nil {
		return core.Settings{}, err
	}
	v.s.st.settings[s.UserID] = s
	return s, nil
}

// Outbox

func (v *view) EnqueueEvent(_ context.Context, e storage.OutboxEvent) error {
	release, err := v.enter("EnqueueEvent")
	defer release()
	if err != nil {
		return err
	}
	e.ID = v.s.st.nextID()
	e.Status = storage.EventPending
	if e.CreatedAt.IsZero() {
		e.CreatedAt = v.s.now()
	}
	v.s.st.outbox[e.ID] = e
	return nil
}

func (v *view) PendingEvents(_ context.Context, limit int) ([]storage.OutboxEvent, error) {
	release, err := v.enter("PendingEvents")
	defer release()
	if err != nil {
		return nil, err
	}
	var out []storage.OutboxEvent
	for _, id := range sortedIDs(v.s.st.outbox) {
		if len(out) >= limit {
			break
		}
		if e := v.s.st.outbox[id]; e.Status == storage.EventPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (v *view) updateEvent(method string, id int64, fn func(*storage.OutboxEvent)) error {
	release, err := v.enter(method)
	defer release()
	if err != nil {
		return err
	}
	e, ok := v.s.st.outbox[id]
	if !ok {
		return fmt.Errorf("event %d: %w", id, storage.ErrNotFound)
	}
	fn(&e)
	v.s.st.outbox[id] = e
	return nil
}

func (v *view) MarkEventPublished(_ context.Context, id int64) error {
	return v.updateEvent("MarkEventPublished", id, func(e *storage.OutboxEvent) {
		e.Status = storage.EventPublished
		e.PublishedAt = v.s.now()
	})
}

func (v *view) MarkEventRetry(_ context.Context, id int64, reason string) error {
	return v.updateEvent("MarkEventRetry", id, func(e *storage.OutboxEvent) {
		e.Attempts++
		e.LastError = reason
	})
}

func (v *view) MarkEventFailed(_ context.Context, id int64, reason string) error {
	return v.updateEvent("MarkEventFailed", id, func(e *storage.OutboxEvent) {
		e.Status = storage.EventFailed
		e.Attempts++
		e.LastError = reason
	})
}

func (v *view) CleanupPublished(_ context.Context, before time.Time) error {
	release, err := v.enter("CleanupPublished")
	defer release()
	if err != nil {
		return err
	}
	for id, e := range v.s.st.outbox {
		if e.Status == storage.EventPublished && e.PublishedAt.Before(before) {
			delete(v.s.st.outbox, id)
		}
	}
	return nil
}

func (v *view) RetryFailedEvents(_ context.Context) error {
	release, err := v.enter("RetryFailedEvents")
	defer release()
	if err != nil {
		return err
	}
	for id, e := range v.s.st.outbox {
		if e.Status == storage.EventFailed {
			e.Status = storage.EventPending
			e.Attempts = 0
			v.s.st.outbox[id] = e
		}
	}
	return nil
}

func (v *view) OutboxStats(_ context.Context) (storage.OutboxStats, error) {
	release, err := v.enter("OutboxStats")
	defer release()
	if err != nil {
		return storage.OutboxStats{}, err
	}
	var s storage.OutboxStats
	for _, e := range v.s.st.outbox {
		switch e.Status {
		case storage.EventPending:
			s.Pending++
		case storage.EventPublished:
			s.Published++
		case storage.EventFailed:
			s.Failed++
		}
	}
	return s, nil
}
