package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ErikTechForce/TechForcePortal-sub000/model"
)

// MemStore is the in-memory Store implementation, used when no database DSN
// is configured and as the test double.
type MemStore struct {
	mu        sync.RWMutex
	orders    map[string]*model.Order
	activity  map[string][]*model.ActivityLogEntry
	contracts map[string]*model.Contract
	nextLogID uint
}

func NewMemStore() *MemStore {
	return &MemStore{
		orders:    make(map[string]*model.Order),
		activity:  make(map[string][]*model.ActivityLogEntry),
		contracts: make(map[string]*model.Contract),
	}
}

func (m *MemStore) CreateOrder(ctx context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.OrderNumber]; ok {
		return ErrDuplicateOrder
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	cp := *order
	m.orders[order.OrderNumber] = &cp
	return nil
}

func (m *MemStore) GetOrder(ctx context.Context, orderNumber string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[orderNumber]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *MemStore) ListOrders(ctx context.Context) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Order, 0, len(m.orders))
	for _, order := range m.orders {
		cp := *order
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderNumber < result[j].OrderNumber
	})
	return result, nil
}

func (m *MemStore) UpdateOrder(ctx context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.orders[order.OrderNumber]
	if !ok {
		return ErrNotFound
	}
	order.ID = existing.ID
	order.CreatedAt = existing.CreatedAt
	order.UpdatedAt = time.Now()
	cp := *order
	m.orders[order.OrderNumber] = &cp
	return nil
}

func (m *MemStore) AppendActivity(ctx context.Context, entry *model.ActivityLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextLogID++
	entry.ID = m.nextLogID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.User == "" {
		entry.User = model.SystemUser
	}
	cp := *entry
	m.activity[entry.OrderNumber] = append(m.activity[entry.OrderNumber], &cp)
	return nil
}

// ListActivity returns entries newest first.
func (m *MemStore) ListActivity(ctx context.Context, orderNumber string, limit int) ([]*model.ActivityLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.activity[orderNumber]
	result := make([]*model.ActivityLogEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		cp := *entries[i]
		result = append(result, &cp)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *MemStore) CreateContract(ctx context.Context, contract *model.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *contract
	m.contracts[contract.ContractID] = &cp
	return nil
}

func (m *MemStore) GetContract(ctx context.Context, contractID string) (*model.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contract, ok := m.contracts[contractID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *contract
	return &cp, nil
}

// MarkSigned performs the compare-and-set under the store lock: only a
// pending contract accepts the PDF, so concurrent submitters cannot both win.
func (m *MemStore) MarkSigned(ctx context.Context, contractID string, pdf []byte, signedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	contract, ok := m.contracts[contractID]
	if !ok {
		return ErrNotFound
	}
	if contract.Status != model.ContractPending {
		return ErrAlreadySigned
	}
	contract.Status = model.ContractSigned
	contract.PDFSigned = append([]byte(nil), pdf...)
	contract.SignedAt = &signedAt
	return nil
}
