package store

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[int64]Application
	locks   map[int64]*sync.Mutex
}

// NewMemory constructs an in-memory Store implementation for tests and
// development. Updates of the same chat serialize on a per-chat mutex.
func NewMemory() Store {
	return &memoryStore{
		records: make(map[int64]Application),
		locks:   make(map[int64]*sync.Mutex),
	}
}

func (m *memoryStore) Get(_ context.Context, chatID int64) (Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.records[chatID]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

func (m *memoryStore) Update(ctx context.Context, chatID int64, fn func(*Tx) error) error {
	lock := m.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	app, exists := m.records[chatID]
	m.mu.RUnlock()
	app.ChatID = chatID

	tx := newTx(app, exists, time.Now())
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	m.mu.Lock()
	m.records[chatID] = tx.app
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) chatLock(chatID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[chatID] = lock
	}
	return lock
}
