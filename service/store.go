package service

import (
	"context"
	"errors"
	"time"

	"github.com/ErikTechForce/TechForcePortal-sub000/model"
)

var (
	// ErrNotFound is returned when an order or contract does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadySigned is returned when a signed contract receives another
	// submission. The loser of a double-submit race gets this, not a write.
	ErrAlreadySigned = errors.New("contract already signed")
	// ErrDuplicateOrder is returned when an order number is already taken.
	ErrDuplicateOrder = errors.New("order number already exists")
)

// Store is the persistence boundary for orders, the append-only activity log
// and contracts. Backed by MySQL in production and by MemStore in demo mode
// and tests.
//
// MarkSigned must apply pending -> signed as a single conditional write: the
// first caller wins, later callers get ErrAlreadySigned and the stored PDF is
// left untouched.
type Store interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrder(ctx context.Context, orderNumber string) (*model.Order, error)
	ListOrders(ctx context.Context) ([]*model.Order, error)
	UpdateOrder(ctx context.Context, order *model.Order) error

	AppendActivity(ctx context.Context, entry *model.ActivityLogEntry) error
	ListActivity(ctx context.Context, orderNumber string, limit int) ([]*model.ActivityLogEntry, error)

	CreateContract(ctx context.Context, contract *model.Contract) error
	GetContract(ctx context.Context, contractID string) (*model.Contract, error)
	MarkSigned(ctx context.Context, contractID string, pdf []byte, signedAt time.Time) error
}
