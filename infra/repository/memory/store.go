// Package memory provides an in-process implementation of the repository
// contracts with the same atomicity and isolation guarantees as the SQL store.
//
// Each unit of work locks the keys it touches (accounts, owners, transactions)
// on first access and holds them until it ends. Writes are staged on the unit
// and applied to the committed state in one step on success. Transaction keys
// are always taken before account keys, and account keys before owner keys,
// so units cannot deadlock.
package memory

import (
	"sync"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/google/uuid"
)

// Store holds the committed state shared by every UoW built on it.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
	owners   map[string]string
	txns     map[uuid.UUID]*account.Transaction
	order    []uuid.UUID

	locks keyLocks
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*account.Account),
		owners:   make(map[string]string),
		txns:     make(map[uuid.UUID]*account.Transaction),
		locks:    keyLocks{m: make(map[string]*sync.Mutex)},
	}
}

func (s *Store) committedAccount(number string) *account.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accounts[number]; ok {
		return a.Clone()
	}
	return nil
}

func (s *Store) committedTxn(id uuid.UUID) *account.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.txns[id]; ok {
		return t.Clone()
	}
	return nil
}

type keyLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (k *keyLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.m[key]
	if !ok {
		l = &sync.Mutex{}
		k.m[key] = l
	}
	return l
}

func accountKey(number string) string { return "acct:" + number }
func ownerKey(ref string) string       { return "owner:" + ref }
func txnKey(id uuid.UUID) string       { return "txn:" + id.String() }

// unit is the staged state of one unit of work.
type unit struct {
	store *Store

	held     map[string]*sync.Mutex
	heldList []*sync.Mutex

	accounts map[string]*account.Account
	dirty    map[string]bool
	created  map[string]bool

	txns    map[uuid.UUID]*account.Transaction
	newTxns []uuid.UUID
}

func newUnit(s *Store) *unit {
	return &unit{
		store:    s,
		held:     make(map[string]*sync.Mutex),
		accounts: make(map[string]*account.Account),
		dirty:    make(map[string]bool),
		created:  make(map[string]bool),
		txns:     make(map[uuid.UUID]*account.Transaction),
	}
}

func (u *unit) lock(key string) {
	if _, ok := u.held[key]; ok {
		return
	}
	l := u.store.locks.get(key)
	l.Lock()
	u.held[key] = l
	u.heldList = append(u.heldList, l)
}

func (u *unit) release() {
	for i := len(u.heldList) - 1; i >= 0; i-- {
		u.heldList[i].Unlock()
	}
	u.heldList = nil
	u.held = nil
}

// account returns the unit's working copy of the account, locking it first.
func (u *unit) account(number string) *account.Account {
	u.lock(accountKey(number))
	if a, ok := u.accounts[number]; ok {
		return a
	}
	a := u.store.committedAccount(number)
	if a != nil {
		u.accounts[number] = a
	}
	return a
}

func (u *unit) txn(id uuid.UUID) *account.Transaction {
	if t, ok := u.txns[id]; ok {
		return t
	}
	return u.store.committedTxn(id)
}

func (u *unit) commit() {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for number := range u.dirty {
		a := u.accounts[number]
		s.accounts[number] = a
		if u.created[number] {
			s.owners[a.OwnerRef] = number
		}
	}
	for _, id := range u.newTxns {
		s.order = append(s.order, id)
	}
	for id, t := range u.txns {
		s.txns[id] = t
	}
}
