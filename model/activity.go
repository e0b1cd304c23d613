package model

import (
	"time"
)

// SystemUser is recorded as the acting user when no staff member is named.
const SystemUser = "System"

// ActivityLogEntry is one row of an order's append-only audit trail.
// Entries are never edited or removed.
type ActivityLogEntry struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	OrderNumber string    `json:"order_number" gorm:"column:order_number;size:50;not null;index"`
	Timestamp   time.Time `json:"timestamp" gorm:"column:timestamp"`
	Action      string    `json:"action" gorm:"column:action;type:text"`
	User        string    `json:"user" gorm:"column:user;size:100"`
}

func (ActivityLogEntry) TableName() string { return "activity_log" }

// ChatMessage is a session-scoped message on an order's chat panel. Messages
// are not persisted to the database; they live for the life of the process.
type ChatMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	User      string    `json:"user"`
}
