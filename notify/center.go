// Package notify keeps the user-visible error notifications.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelError Level = "error"
	LevelInfo  Level = "info"
)

type Notification struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
	// ExpiresAt is zero for notifications that stay until dismissed.
	ExpiresAt time.Time
}

func (n Notification) Expired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && !now.Before(n.ExpiresAt)
}

// Center collects notifications. Pushing never blocks the caller.
type Center struct {
	mu      sync.Mutex
	items   []Notification
	timeout time.Duration
	now     func() time.Time
	changed chan struct{}
}

// NewCenter creates a Center. With a zero timeout notifications stay until
// they are dismissed.
func NewCenter(timeout time.Duration) *Center {
	return &Center{
		timeout: timeout,
		now:     time.Now,
		changed: make(chan struct{}, 1),
	}
}

func (c *Center) Error(msg string) string {
	return c.push(LevelError, msg)
}

func (c *Center) Info(msg string) string {
	return c.push(LevelInfo, msg)
}

func (c *Center) push(level Level, msg string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   msg,
		CreatedAt: now,
	}
	if c.timeout > 0 {
		n.ExpiresAt = now.Add(c.timeout)
	}
	c.items = append(c.items, n)
	c.signal()

	return n.ID
}

// Dismiss removes a notification. Unknown ids are ignored.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = slices.DeleteFunc(c.items, func(n Notification) bool { return n.ID == id })
	c.signal()
}

func (c *Center) DismissAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.signal()
}

// Active returns the notifications that are neither dismissed nor expired,
// oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.items = slices.DeleteFunc(c.items, func(n Notification) bool { return n.Expired(now) })
	return slices.Clone(c.items)
}

// Changed fires after the set of notifications was modified.
func (c *Center) Changed() <-chan struct{} {
	return c.changed
}

func (c *Center) signal() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}
