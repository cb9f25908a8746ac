// Package memory provides an in-memory implementation of every repository
// used for local runs and tests. Transactions are serialized and roll back by
// restoring a snapshot taken at Begin.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("transaction already finished")

type state struct {
	companies  map[string]*domain.Company
	entrySeq   map[string]int64
	accounts   map[string]*domain.Account
	entries    map[string]*domain.JournalEntry
	entryOrder []string
	reversedBy map[string]string
	payments   map[string]*domain.Payment
	documents  map[string]*domain.Document
	contacts   map[string]*domain.Contact
	rates      []*domain.ExchangeRate
	outbox     []*domain.OutboxEvent
	audit      []*domain.AuditLog
}

func newState() *state {
	return &state{
		companies:  make(map[string]*domain.Company),
		entrySeq:   make(map[string]int64),
		accounts:   make(map[string]*domain.Account),
		entries:    make(map[string]*domain.JournalEntry),
		reversedBy: make(map[string]string),
		payments:   make(map[string]*domain.Payment),
		documents:  make(map[string]*domain.Document),
		contacts:   make(map[string]*domain.Contact),
	}
}

// clone deep-copies the mutable parts of the state. Journal entries are
// immutable once stored and are shared.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.companies {
		cp := *v
		c.companies[k] = &cp
	}
	for k, v := range s.entrySeq {
		c.entrySeq[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = cloneAccount(v)
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	c.entryOrder = append([]string(nil), s.entryOrder...)
	for k, v := range s.reversedBy {
		c.reversedBy[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = clonePayment(v)
	}
	for k, v := range s.documents {
		c.documents[k] = cloneDocument(v)
	}
	for k, v := range s.contacts {
		c.contacts[k] = cloneContact(v)
	}
	c.rates = append([]*domain.ExchangeRate(nil), s.rates...)
	for _, e := range s.outbox {
		cp := *e
		c.outbox = append(c.outbox, &cp)
	}
	c.audit = append([]*domain.AuditLog(nil), s.audit...)
	return c
}

// Store is an in-memory database. mu guards data access and txMu
// serializes transactions, which stands in for row locks.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{data: newState()}
}

// Tx is an in-memory transaction.
type Tx struct {
	store    *Store
	snapshot *state
	done     bool
}

// Begin starts a transaction. It blocks while another transaction runs.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	locked := make(chan struct{})
	go func() {
		s.txMu.Lock()
		close(locked)
	}()

	select {
	case <-locked:
	case <-ctx.Done():
		// Hand the mutex back once the waiter gets it.
		go func() {
			<-locked
			s.txMu.Unlock()
		}()
		return nil, ctx.Err()
	}

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	return &Tx{store: s, snapshot: snapshot}, nil
}

// Commit keeps every change made since Begin.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

// Rollback restores the snapshot taken at Begin. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	t.store.mu.Lock()
	t.store.data = t.snapshot
	t.store.mu.Unlock()

	t.store.txMu.Unlock()
	return nil
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func cloneAccount(a *domain.Account) *domain.Account {
	cp := *a
	return &cp
}

func clonePayment(p *domain.Payment) *domain.Payment {
	cp := *p
	cp.JournalEntryID = cloneString(p.JournalEntryID)
	cp.InvoiceID = cloneString(p.InvoiceID)
	cp.BillID = cloneString(p.BillID)
	return &cp
}

func cloneDocument(d *domain.Document) *domain.Document {
	cp := *d
	cp.Lines = append([]domain.DocumentLine(nil), d.Lines...)
	cp.JournalEntryID = cloneString(d.JournalEntryID)
	if d.DueDate != nil {
		due := *d.DueDate
		cp.DueDate = &due
	}
	return &cp
}

func cloneContact(c *domain.Contact) *domain.Contact {
	cp := *c
	cp.OpeningBalanceEntryID = cloneString(c.OpeningBalanceEntryID)
	return &cp
}

func cloneEntry(e *domain.JournalEntry, reversedBy string) *domain.JournalEntry {
	cp := *e
	cp.Lines = append([]domain.JournalLine(nil), e.Lines...)
	cp.ReversesEntryID = cloneString(e.ReversesEntryID)
	cp.ReversedByEntryID = nil
	if reversedBy != "" {
		id := reversedBy
		cp.ReversedByEntryID = &id
	}
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// Reset drops every record. Intended for tests.
func (s *Store) Reset() {
	s.mu.Lock()
	s.data = newState()
	s.mu.Unlock()
}

// OutboxEvents returns a copy of every outbox event. Intended for tests.
func (s *Store) OutboxEvents() []*domain.OutboxEvent {
	var out []*domain.OutboxEvent
	s.read(func(d *state) {
		for _, e := range d.outbox {
			cp := *e
			out = append(out, &cp)
		}
	})
	return out
}

// AuditLogs returns every audit log. Intended for tests.
func (s *Store) AuditLogs() []*domain.AuditLog {
	var out []*domain.AuditLog
	s.read(func(d *state) {
		out = append(out, d.audit...)
	})
	return out
}
