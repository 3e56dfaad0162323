// Package ledger owns the household collections and persists every change to
// a key-value backend.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"conti/internal/core"
	applog "conti/internal/log"
	"conti/internal/storage"
)

// Operations carried by Event.Op.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpReplace = "replace"
	OpSet     = "set"
)

// Event describes a mutation that was applied to the store.
type Event struct {
	Collection string
	Op         string
	ID         string
	Month      core.Month
	// Err is non-nil when the change could not be persisted.
	Err error
}

// Observer is notified about persistence failures. Metrics implement it.
type Observer interface {
	PersistFailed(key string)
}

// Options configures a Store.
type Options struct {
	Logger   *applog.Logger
	Observer Observer
}

// Snapshot is a deep copy of the ledger state, safe to hand to pure
// computations while the store keeps changing.
type Snapshot struct {
	Transactions []core.Transaction `json:"transactions"`
	Budgets      []core.Budget      `json:"budgets"`
	FixedBills   []core.FixedBill   `json:"fixed_bills"`
	Settlements  []core.Settlement  `json:"settlements"`
	CurrentUser  core.Person        `json:"current_user"`
	Theme        core.Theme         `json:"theme"`
}

// Store holds the authoritative ledger. All methods are safe for concurrent use.
type Store struct {
	kv       storage.KV
	logger   *applog.Logger
	observer Observer

	mu           sync.Mutex
	transactions []core.Transaction
	budgets      []core.Budget
	fixedBills   []core.FixedBill
	settlements  []core.Settlement
	currentUser  core.Person
	theme        core.Theme
	anomalies    []Anomaly

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// Open loads the ledger from kv. Malformed entries are skipped and listed by
// Anomalies; only a failing backend read is returned as an error.
func Open(ctx context.Context, kv storage.KV, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	s := &Store{
		kv:       kv,
		logger:   logger.WithComponent(applog.ComponentLedger),
		observer: opts.Observer,
		subs:     make(map[int]func(Event)),
	}

	var all []Anomaly
	var err error
	var found []Anomaly

	if s.transactions, found, err = loadList(ctx, kv, storage.KeyTransactions, func(t core.Transaction) string { return t.ID }); err != nil {
		return nil, err
	}
	all = append(all, found...)
	if s.budgets, found, err = loadList(ctx, kv, storage.KeyBudgets, func(b core.Budget) string { return b.ID }); err != nil {
		return nil, err
	}
	all = append(all, found...)
	if s.fixedBills, found, err = loadList(ctx, kv, storage.KeyFixedBills, func(f core.FixedBill) string { return f.ID }); err != nil {
		return nil, err
	}
	all = append(all, found...)
	if s.settlements, found, err = loadList(ctx, kv, storage.KeySettlements, func(st core.Settlement) string { return st.ID }); err != nil {
		return nil, err
	}
	all = append(all, found...)
	if s.currentUser, found, err = loadCurrentUser(ctx, kv); err != nil {
		return nil, err
	}
	all = append(all, found...)
	if s.theme, found, err = loadTheme(ctx, kv); err != nil {
		return nil, err
	}
	all = append(all, found...)

	for _, a := range all {
		s.logger.WarnContext(ctx, "Skipped malformed ledger entry",
			applog.FieldKey, a.Key, "index", a.Index, "reason", a.Reason)
	}
	s.anomalies = all

	s.logger.InfoContext(ctx, "Ledger loaded",
		"transactions", len(s.transactions),
		"budgets", len(s.budgets),
		"fixed_bills", len(s.fixedBills),
		"settlements", len(s.settlements),
		"anomalies", len(all))
	return s, nil
}

// Anomalies returns the entries skipped while loading.
func (s *Store) Anomalies() []Anomaly {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Anomaly(nil), s.anomalies...)
}

// Subscribe registers fn to run after every mutation. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) emit(ev Event) {
	s.subMu.RLock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// persist writes value under key. Must be called with s.mu held.
func (s *Store) persist(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err == nil {
		err = s.kv.Put(ctx, key, b)
	}
	if err == nil {
		return nil
	}
	s.logger.WarnContext(ctx, "Ledger change kept in memory only",
		applog.FieldKey, key, applog.FieldError, err)
	if s.observer != nil {
		s.observer.PersistFailed(key)
	}
	return &PersistError{Key: key, Err: err}
}

// commit persists key, releases the lock and notifies subscribers.
// Must be called with s.mu held.
func (s *Store) commit(ctx context.Context, key string, value any, ev Event) error {
	err := s.persist(ctx, key, value)
	s.mu.Unlock()
	ev.Collection = key
	ev.Err = err
	s.emit(ev)
	return err
}

func (s *Store) transactionIndex(id string) int {
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			return i
		}
	}
	return -1
}

// AddTransaction validates t and inserts it at the head of the list.
func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("add transaction: %w", err)
	}
	s.mu.Lock()
	if s.transactionIndex(t.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("add transaction %s: %w", t.ID, ErrDuplicateID)
	}
	next := make([]core.Transaction, 0, len(s.transactions)+1)
	next = append(next, t.Clone())
	next = append(next, s.transactions...)
	s.transactions = next
	return s.commit(ctx, storage.KeyTransactions, s.transactions,
		Event{Op: OpCreate, ID: t.ID, Month: core.MonthOf(t.Date)})
}

// UpdateTransaction applies patch to the transaction with id. It reports
// false when no such transaction exists.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (bool, error) {
	if err := patch.Validate(); err != nil {
		return false, fmt.Errorf("update transaction %s: %w", id, err)
	}
	s.mu.Lock()
	i := s.transactionIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	updated := patch.Apply(s.transactions[i])
	next := append([]core.Transaction(nil), s.transactions...)
	next[i] = updated
	s.transactions = next
	return true, s.commit(ctx, storage.KeyTransactions, s.transactions,
		Event{Op: OpUpdate, ID: id, Month: core.MonthOf(updated.Date)})
}

// MarkPaid sets the status to paid and records when.
func (s *Store) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	st := core.Paid
	return s.UpdateTransaction(ctx, id, core.TransactionPatch{Status: &st, PaidAt: &at})
}

// MarkPending reverts a payment.
func (s *Store) MarkPending(ctx context.Context, id string) (bool, error) {
	st := core.Pending
	return s.UpdateTransaction(ctx, id, core.TransactionPatch{Status: &st, ClearPaidAt: true})
}

// DeleteTransaction removes the transaction with id, if present.
func (s *Store) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	i := s.transactionIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	removed := s.transactions[i]
	next := make([]core.Transaction, 0, len(s.transactions)-1)
	next = append(next, s.transactions[:i]...)
	next = append(next, s.transactions[i+1:]...)
	s.transactions = next
	return true, s.commit(ctx, storage.KeyTransactions, s.transactions,
		Event{Op: OpDelete, ID: id, Month: core.MonthOf(removed.Date)})
}

// DuplicateTransaction copies the transaction with id under newID, dated now,
// and inserts the copy at the head. It returns the copy and false when id is
// unknown.
func (s *Store) DuplicateTransaction(ctx context.Context, id, newID string, now time.Time) (core.Transaction, bool, error) {
	s.mu.Lock()
	i := s.transactionIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Transaction{}, false, nil
	}
	dup := s.transactions[i].Clone()
	dup.ID = newID
	dup.Date = now
	if err := dup.Validate(); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, false, fmt.Errorf("duplicate transaction %s: %w", id, err)
	}
	if s.transactionIndex(newID) >= 0 {
		s.mu.Unlock()
		return core.Transaction{}, false, fmt.Errorf("duplicate transaction %s: %w", id, ErrDuplicateID)
	}
	next := make([]core.Transaction, 0, len(s.transactions)+1)
	next = append(next, dup)
	next = append(next, s.transactions...)
	s.transactions = next
	err := s.commit(ctx, storage.KeyTransactions, s.transactions,
		Event{Op: OpCreate, ID: newID, Month: core.MonthOf(now)})
	return dup.Clone(), true, err
}

// Transaction returns a copy of the transaction with id.
func (s *Store) Transaction(id string) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.transactionIndex(id); i >= 0 {
		return s.transactions[i].Clone(), true
	}
	return core.Transaction{}, false
}

// AddBudget stores b, replacing any budget for the same category, month and owner.
func (s *Store) AddBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("add budget: %w", err)
	}
	s.mu.Lock()
	op := OpCreate
	next := make([]core.Budget, 0, len(s.budgets)+1)
	for _, existing := range s.budgets {
		if existing.Key() == b.Key() {
			op = OpReplace
			continue
		}
		if existing.ID == b.ID {
			s.mu.Unlock()
			return fmt.Errorf("add budget %s: %w", b.ID, ErrDuplicateID)
		}
		next = append(next, existing)
	}
	next = append(next, b)
	s.budgets = next
	return s.commit(ctx, storage.KeyBudgets, s.budgets,
		Event{Op: op, ID: b.ID, Month: b.Month})
}

// AddFixedBill appends a fixed bill template.
func (s *Store) AddFixedBill(ctx context.Context, f core.FixedBill) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("add fixed bill: %w", err)
	}
	s.mu.Lock()
	for _, existing := range s.fixedBills {
		if existing.ID == f.ID {
			s.mu.Unlock()
			return fmt.Errorf("add fixed bill %s: %w", f.ID, ErrDuplicateID)
		}
	}
	next := make([]core.FixedBill, 0, len(s.fixedBills)+1)
	next = append(next, s.fixedBills...)
	next = append(next, f)
	s.fixedBills = next
	return s.commit(ctx, storage.KeyFixedBills, s.fixedBills, Event{Op: OpCreate, ID: f.ID})
}

// RemoveFixedBill deletes the fixed bill with id, if present.
func (s *Store) RemoveFixedBill(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	next := make([]core.FixedBill, 0, len(s.fixedBills))
	for _, f := range s.fixedBills {
		if f.ID != id {
			next = append(next, f)
		}
	}
	if len(next) == len(s.fixedBills) {
		s.mu.Unlock()
		return false, nil
	}
	s.fixedBills = next
	return true, s.commit(ctx, storage.KeyFixedBills, s.fixedBills, Event{Op: OpDelete, ID: id})
}

// AddSettlement appends a settlement record. Settlements are never edited.
func (s *Store) AddSettlement(ctx context.Context, st core.Settlement) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("add settlement: %w", err)
	}
	s.mu.Lock()
	for _, existing := range s.settlements {
		if existing.ID == st.ID {
			s.mu.Unlock()
			return fmt.Errorf("add settlement %s: %w", st.ID, ErrDuplicateID)
		}
	}
	next := make([]core.Settlement, 0, len(s.settlements)+1)
	next = append(next, s.settlements...)
	next = append(next, st)
	s.settlements = next
	return s.commit(ctx, storage.KeySettlements, s.settlements,
		Event{Op: OpCreate, ID: st.ID, Month: st.Month})
}

// SetCurrentUser records which member is using the app.
func (s *Store) SetCurrentUser(ctx context.Context, p core.Person) error {
	if !p.IsMember() {
		return fmt.Errorf("set current user: %w", core.ErrInvalidPerson)
	}
	s.mu.Lock()
	s.currentUser = p
	return s.commit(ctx, storage.KeyCurrentUser, p, Event{Op: OpSet, ID: p.String()})
}

// SetTheme records the display theme.
func (s *Store) SetTheme(ctx context.Context, th core.Theme) error {
	if err := th.Validate(); err != nil {
		return fmt.Errorf("set theme: %w", err)
	}
	s.mu.Lock()
	s.theme = th
	return s.commit(ctx, storage.KeyTheme, th, Event{Op: OpSet, ID: string(th)})
}

// CurrentUser returns the active member.
func (s *Store) CurrentUser() core.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentUser
}

// Theme returns the display theme.
func (s *Store) Theme() core.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Transactions: make([]core.Transaction, len(s.transactions)),
		Budgets:      append(make([]core.Budget, 0, len(s.budgets)), s.budgets...),
		FixedBills:   append(make([]core.FixedBill, 0, len(s.fixedBills)), s.fixedBills...),
		Settlements:  append(make([]core.Settlement, 0, len(s.settlements)), s.settlements...),
		CurrentUser:  s.currentUser,
		Theme:        s.theme,
	}
	for i, t := range s.transactions {
		snap.Transactions[i] = t.Clone()
	}
	return snap
}
