package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rehearsal-room-booking/internal/model"
)

// memLocks mimics the conditional-update semantics of the notify columns:
// the lock is acquired only from UNSET or FAILED.
type memLocks struct {
	mu     sync.Mutex
	states map[string]string
}

func newMemLocks() *memLocks { return &memLocks{states: make(map[string]string)} }

func (l *memLocks) key(id, channel string) string { return id + "/" + channel }

func (l *memLocks) AcquireNotifyLock(ctx context.Context, id, channel string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.states[l.key(id, channel)] {
	case "", model.NotifyUnset, model.NotifyFailed:
		l.states[l.key(id, channel)] = model.NotifyPending
		return true, nil
	default:
		return false, nil
	}
}

func (l *memLocks) SetNotifyState(ctx context.Context, id, channel, state string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[l.key(id, channel)] = state
	return nil
}

func (l *memLocks) state(id, channel string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[l.key(id, channel)]
}

type memTransport struct {
	mu        sync.Mutex
	published []Message
	err       error
}

func (t *memTransport) Publish(ctx context.Context, msg Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.published = append(t.published, msg)
	return nil
}

func (t *memTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.published)
}

func TestSendOnceConcurrentSingleSend(t *testing.T) {
	locks := newMemLocks()
	transport := &memTransport{}
	d := NewDispatcher(locks, transport)

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- d.SendOnce(context.Background(), "res-1", model.ChannelEmail, func() Message {
				return Message{Channel: model.ChannelEmail, To: "jo@example.com", Body: "hi"}
			})
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, transport.count())
	assert.Equal(t, model.NotifySent, locks.state("res-1", model.ChannelEmail))
}

func TestSendOnceSentIsFinal(t *testing.T) {
	locks := newMemLocks()
	transport := &memTransport{}
	d := NewDispatcher(locks, transport)

	require.True(t, d.SendOnce(context.Background(), "res-1", model.ChannelSMS, func() Message {
		return Message{Channel: model.ChannelSMS, To: "+12125552368", Body: "hi"}
	}))
	assert.False(t, d.SendOnce(context.Background(), "res-1", model.ChannelSMS, func() Message {
		t.Fatal("builder must not run when the lock is held")
		return Message{}
	}))
	assert.Equal(t, 1, transport.count())
}

func TestSendOncePublishFailureAllowsRetry(t *testing.T) {
	locks := newMemLocks()
	transport := &memTransport{err: assert.AnError}
	d := NewDispatcher(locks, transport)

	build := func() Message {
		return Message{Channel: model.ChannelEmail, To: "jo@example.com", Body: "hi"}
	}
	assert.False(t, d.SendOnce(context.Background(), "res-1", model.ChannelEmail, build))
	assert.Equal(t, model.NotifyFailed, locks.state("res-1", model.ChannelEmail))

	// FAILED re-arms the lock, so the next trigger delivers.
	transport.err = nil
	assert.True(t, d.SendOnce(context.Background(), "res-1", model.ChannelEmail, build))
	assert.Equal(t, model.NotifySent, locks.state("res-1", model.ChannelEmail))
}

func TestSendConfirmationBothChannels(t *testing.T) {
	locks := newMemLocks()
	transport := &memTransport{}
	d := NewDispatcher(locks, transport)

	res := &model.Reservation{
		ID:       "res-1",
		Date:     "2026-01-05",
		Slots:    []string{"20:00-21:00"},
		Customer: model.Customer{Name: "Jo", Email: "jo@example.com", Phone: "+12125552368"},
	}
	d.SendConfirmation(context.Background(), res, "4242")

	require.Equal(t, 2, transport.count())
	channels := map[string]bool{}
	for _, msg := range transport.published {
		channels[msg.Channel] = true
		assert.Contains(t, msg.Body, "4242")
	}
	assert.True(t, channels[model.ChannelEmail])
	assert.True(t, channels[model.ChannelSMS])

	// Replayed trigger sends nothing more.
	d.SendConfirmation(context.Background(), res, "4242")
	assert.Equal(t, 2, transport.count())
}
