package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCenterIndefinite(t *testing.T) {
	c := NewCenter(0)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	id := c.Error("could not fetch feeds")
	now = now.Add(24 * time.Hour)

	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)
	assert.Equal(t, LevelError, active[0].Level)
	assert.True(t, active[0].ExpiresAt.IsZero())

	c.Dismiss(id)
	assert.Empty(t, c.Active())
}

func TestCenterTimeout(t *testing.T) {
	c := NewCenter(5 * time.Second)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Error("first")
	now = now.Add(3 * time.Second)
	c.Info("second")
	require.Len(t, c.Active(), 2)

	now = now.Add(3 * time.Second)
	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "second", active[0].Message)
}

func TestCenterChanged(t *testing.T) {
	c := NewCenter(0)
	c.Error("a")
	c.Error("b")

	select {
	case <-c.Changed():
	default:
		t.Fatal("expected change notification")
	}

	c.DismissAll()
	<-c.Changed()
	assert.Empty(t, c.Active())
}

func TestCenterDismissUnknown(t *testing.T) {
	c := NewCenter(0)
	c.Error("a")
	c.Dismiss("nope")
	assert.Len(t, c.Active(), 1)
}
