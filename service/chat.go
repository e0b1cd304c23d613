package service

import (
	"context"
	"sync"
	"time"

	"github.com/ErikTechForce/TechForcePortal-sub000/model"
)

// Chat holds per-order message threads. Messages are session-scoped: they
// live in process memory, not the database.
type Chat struct {
	mu        sync.RWMutex
	messages  map[string][]model.ChatMessage
	store     Store
	lifecycle *Lifecycle
}

func NewChat(store Store, lifecycle *Lifecycle) *Chat {
	return &Chat{
		messages:  make(map[string][]model.ChatMessage),
		store:     store,
		lifecycle: lifecycle,
	}
}

// Send appends a message to the order's thread and logs it. While the order
// is in Contract stage a message also counts as client contact, so the
// order's last contact date is stamped with today.
func (c *Chat) Send(ctx context.Context, orderNumber, message, user string) (*model.ChatMessage, error) {
	order, err := c.store.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	msg := model.ChatMessage{
		Timestamp: time.Now(),
		Message:   message,
		User:      user,
	}
	if msg.User == "" {
		msg.User = model.SystemUser
	}

	c.mu.Lock()
	c.messages[orderNumber] = append(c.messages[orderNumber], msg)
	c.mu.Unlock()

	if _, err := c.lifecycle.Append(ctx, orderNumber, "Message sent: "+truncate(message, 80), msg.User); err != nil {
		return nil, err
	}

	if order.Stage == model.StageContract {
		order.LastContactDate = msg.Timestamp.Format("2006-01-02")
		if err := c.store.UpdateOrder(ctx, order); err != nil {
			return nil, err
		}
	}

	return &msg, nil
}

// List returns the order's messages, oldest first.
func (c *Chat) List(ctx context.Context, orderNumber string) ([]model.ChatMessage, error) {
	if _, err := c.store.GetOrder(ctx, orderNumber); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]model.ChatMessage, len(c.messages[orderNumber]))
	copy(result, c.messages[orderNumber])
	return result, nil
}

// truncate cuts on rune boundaries so log entries stay valid UTF-8.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
