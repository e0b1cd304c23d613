package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ErikTechForce/TechForcePortal-sub000/config"
	"github.com/ErikTechForce/TechForcePortal-sub000/model"
	"github.com/ErikTechForce/TechForcePortal-sub000/service"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the MySQL connection and runs auto-migration for the portal
// tables.
func Connect(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.DSN
	// Accept mysql:// URLs as used on managed hosts.
	if strings.HasPrefix(dsn, "mysql://") {
		dsn = strings.TrimPrefix(dsn, "mysql://")
		if at := strings.Index(dsn, "@"); at >= 0 && !strings.Contains(dsn, "@tcp(") {
			creds, rest := dsn[:at], dsn[at+1:]
			if slash := strings.Index(rest, "/"); slash >= 0 {
				dsn = fmt.Sprintf("%s@tcp(%s)/%s", creds, rest[:slash], rest[slash+1:])
			}
		}
	}
	if !strings.Contains(dsn, "parseTime") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "parseTime=true"
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifeMins) * time.Minute)

	if err := db.AutoMigrate(&model.Order{}, &model.ActivityLogEntry{}, &model.Contract{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	slog.Info("database connected and migrated")
	return db, nil
}

// Store is the GORM-backed service.Store implementation.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateOrder(ctx context.Context, order *model.Order) error {
	err := s.db.WithContext(ctx).Create(order).Error
	if err != nil && strings.Contains(err.Error(), "Duplicate entry") {
		return service.ErrDuplicateOrder
	}
	return err
}

func (s *Store) GetOrder(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Where("order_number = ?", orderNumber).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, service.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) ListOrders(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := s.db.WithContext(ctx).Order("order_number").Find(&orders).Error
	return orders, err
}

func (s *Store) UpdateOrder(ctx context.Context, order *model.Order) error {
	res := s.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("order_number = ?", order.OrderNumber).
		Select("*").
		Omit("id", "created_at", "order_number").
		Updates(order)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (s *Store) AppendActivity(ctx context.Context, entry *model.ActivityLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.User == "" {
		entry.User = model.SystemUser
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *Store) ListActivity(ctx context.Context, orderNumber string, limit int) ([]*model.ActivityLogEntry, error) {
	var entries []*model.ActivityLogEntry
	q := s.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&entries).Error
	return entries, err
}

func (s *Store) CreateContract(ctx context.Context, contract *model.Contract) error {
	return s.db.WithContext(ctx).Create(contract).Error
}

func (s *Store) GetContract(ctx context.Context, contractID string) (*model.Contract, error) {
	var contract model.Contract
	err := s.db.WithContext(ctx).Where("contract_id = ?", contractID).First(&contract).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, service.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// MarkSigned flips pending -> signed with a conditional UPDATE; the WHERE on
// status makes the transition atomic, so the loser of a double submit
// affects zero rows and the stored PDF stays untouched.
func (s *Store) MarkSigned(ctx context.Context, contractID string, pdf []byte, signedAt time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("contract_id = ? AND status = ?", contractID, model.ContractPending).
		Updates(map[string]any{
			"status":     model.ContractSigned,
			"pdf_signed": pdf,
			"signed_at":  signedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Contract{}).
			Where("contract_id = ?", contractID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return service.ErrNotFound
		}
		return service.ErrAlreadySigned
	}
	return nil
}
