package readiness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalReplaysCurrentValue(t *testing.T) {
	s := New(Init)
	s.Set(Loading)
	s.Set(Ready)

	ch, cancel := s.Subscribe()
	defer cancel()

	select {
	case v := <-ch:
		assert.Equal(t, Ready, v)
	case <-time.After(time.Second):
		t.Fatal("no replayed value")
	}
}

func TestSignalMulticast(t *testing.T) {
	s := New(Init)
	a, cancelA := s.Subscribe()
	defer cancelA()
	b, cancelB := s.Subscribe()
	defer cancelB()
	<-a
	<-b

	s.Set(Loading)
	assert.Equal(t, Loading, <-a)
	assert.Equal(t, Loading, <-b)
}

func TestSignalSlowSubscriberGetsLatest(t *testing.T) {
	s := New(Init)
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Set(Loading)
	s.Set(Error)
	s.Set(Ready)

	assert.Equal(t, Ready, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %v", v)
	default:
	}
}

func TestSignalCancelClosesChannel(t *testing.T) {
	s := New(Init)
	ch, cancel := s.Subscribe()
	require.Equal(t, 1, s.Subscribers())
	<-ch

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, s.Subscribers())

	s.Set(Ready)
	assert.Equal(t, Ready, s.Current())
}

func TestSignalWaitFor(t *testing.T) {
	s := New(Init)
	done := make(chan error, 1)
	go func() {
		done <- s.WaitFor(context.Background(), Ready)
	}()

	s.Set(Loading)
	s.Set(Error)
	s.Set(Ready)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not return")
	}
}

func TestSignalWaitForContext(t *testing.T) {
	s := New(Loading)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.WaitFor(ctx, Ready)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
