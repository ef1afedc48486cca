package fraktor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_FIFOOrdering(t *testing.T) {
	mb := NewMailbox(DefaultMailboxPolicy(), nil)
	for i := 0; i < 5; i++ {
		_, err := mb.EnqueueUser(context.Background(), NewAnyMessage(i, nil))
		require.Nil(t, err)
	}
	for i := 0; i < 5; i++ {
		msg, ok := mb.PopUser()
		require.True(t, ok)
		assert.Equal(t, i, msg.Payload)
	}
	_, ok := mb.PopUser()
	assert.False(t, ok)
}

func TestMailbox_SystemMessagesJumpTheQueue(t *testing.T) {
	mb := NewMailbox(DefaultMailboxPolicy(), nil)
	_, err := mb.EnqueueUser(context.Background(), NewAnyMessage("user", nil))
	require.Nil(t, err)
	mb.EnqueueSystem(StopMessage())

	dq, ok := mb.Dequeue()
	require.True(t, ok)
	assert.True(t, dq.IsSystem)
	assert.Equal(t, SysStop, dq.System.Kind)

	dq, ok = mb.Dequeue()
	require.True(t, ok)
	assert.False(t, dq.IsSystem)
	assert.Equal(t, "user", dq.User.Payload)
}

func TestMailbox_DropNewestDropsTheOffer(t *testing.T) {
	var dropped []AnyMessage
	policy := MailboxPolicy{Capacity: 1, Overflow: DropNewest, ThroughputLimit: 10}
	mb := NewMailbox(policy, func(msg AnyMessage, reason DeadLetterReason) {
		dropped = append(dropped, msg)
	})

	_, err := mb.EnqueueUser(context.Background(), NewAnyMessage("kept", nil))
	require.Nil(t, err)
	outcome, err := mb.EnqueueUser(context.Background(), NewAnyMessage("offered", nil))
	require.Nil(t, err)
	assert.Equal(t, Enqueued, outcome)

	require.Len(t, dropped, 1)
	assert.Equal(t, "offered", dropped[0].Payload)

	msg, ok := mb.PopUser()
	require.True(t, ok)
	assert.Equal(t, "kept", msg.Payload)
}

func TestMailbox_DropOldestEvictsTheHead(t *testing.T) {
	var dropped []AnyMessage
	policy := MailboxPolicy{Capacity: 1, Overflow: DropOldest, ThroughputLimit: 10}
	mb := NewMailbox(policy, func(msg AnyMessage, reason DeadLetterReason) {
		dropped = append(dropped, msg)
	})

	_, err := mb.EnqueueUser(context.Background(), NewAnyMessage("first", nil))
	require.Nil(t, err)
	_, err = mb.EnqueueUser(context.Background(), NewAnyMessage("second", nil))
	require.Nil(t, err)

	require.Len(t, dropped, 1)
	assert.Equal(t, "first", dropped[0].Payload)

	msg, ok := mb.PopUser()
	require.True(t, ok)
	assert.Equal(t, "second", msg.Payload)
}

func TestMailbox_GrowDoublesUpToMax(t *testing.T) {
	policy := MailboxPolicy{Capacity: 1, Overflow: Grow, MaxGrowCapacity: 2, ThroughputLimit: 10}
	mb := NewMailbox(policy, nil)

	for i := 0; i < 2; i++ {
		_, err := mb.EnqueueUser(context.Background(), NewAnyMessage(i, nil))
		require.Nil(t, err)
	}
	// Capacity is now 2 and full; a third offer must fail.
	_, err := mb.EnqueueUser(context.Background(), NewAnyMessage(2, nil))
	require.NotNil(t, err)
	assert.Equal(t, SendFull, err.Kind)
}

func TestMailbox_BlockWaitsForCapacityThenUnblocks(t *testing.T) {
	policy := MailboxPolicy{Capacity: 1, Overflow: Block, ThroughputLimit: 10}
	mb := NewMailbox(policy, nil)

	_, err := mb.EnqueueUser(context.Background(), NewAnyMessage("first", nil))
	require.Nil(t, err)

	done := make(chan *SendError, 1)
	go func() {
		_, err := mb.EnqueueUser(context.Background(), NewAnyMessage("second", nil))
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("blocked enqueue returned before capacity freed")
	case <-time.After(50 * time.Millisecond):
	}

	_, ok := mb.PopUser()
	require.True(t, ok)

	select {
	case err := <-done:
		assert.Nil(t, err)
	case <-time.After(time.Second):
		t.Fatal("blocked enqueue never unblocked after capacity freed")
	}
}

func TestMailbox_BlockTimesOutViaContext(t *testing.T) {
	policy := MailboxPolicy{Capacity: 1, Overflow: Block, ThroughputLimit: 10}
	mb := NewMailbox(policy, nil)
	_, err := mb.EnqueueUser(context.Background(), NewAnyMessage("first", nil))
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = mb.EnqueueUser(ctx, NewAnyMessage("second", nil))
	require.NotNil(t, err)
	assert.Equal(t, SendTimeout, err.Kind)
}

func TestMailbox_SuspendWithholdsUserMessagesNotSystem(t *testing.T) {
	mb := NewMailbox(DefaultMailboxPolicy(), nil)
	_, err := mb.EnqueueUser(context.Background(), NewAnyMessage("user", nil))
	require.Nil(t, err)
	mb.Suspend()

	_, ok := mb.PopUser()
	assert.False(t, ok, "suspended mailbox must withhold user messages")

	mb.EnqueueSystem(StopMessage())
	sysMsg, ok := mb.PopSystem()
	require.True(t, ok, "system messages bypass suspension")
	assert.Equal(t, SysStop, sysMsg.Kind)

	mb.Resume()
	msg, ok := mb.PopUser()
	require.True(t, ok)
	assert.Equal(t, "user", msg.Payload)
}

func TestMailbox_PrependUserGoesAheadOfQueue(t *testing.T) {
	mb := NewMailbox(DefaultMailboxPolicy(), nil)
	_, err := mb.EnqueueUser(context.Background(), NewAnyMessage("queued", nil))
	require.Nil(t, err)

	mb.PrependUser([]AnyMessage{NewAnyMessage("stashed-1", nil), NewAnyMessage("stashed-2", nil)})

	order := []interface{}{}
	for {
		msg, ok := mb.PopUser()
		if !ok {
			break
		}
		order = append(order, msg.Payload)
	}
	assert.Equal(t, []interface{}{"stashed-1", "stashed-2", "queued"}, order)
}

func TestMailbox_CloseWakesBlockedWaitersWithClosedError(t *testing.T) {
	policy := MailboxPolicy{Capacity: 1, Overflow: Block, ThroughputLimit: 10}
	mb := NewMailbox(policy, nil)
	_, err := mb.EnqueueUser(context.Background(), NewAnyMessage("first", nil))
	require.Nil(t, err)

	done := make(chan *SendError, 1)
	go func() {
		_, err := mb.EnqueueUser(context.Background(), NewAnyMessage("second", nil))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	mb.Close()

	select {
	case err := <-done:
		require.NotNil(t, err)
		assert.Equal(t, SendClosed, err.Kind)
	case <-time.After(time.Second):
		t.Fatal("blocked enqueue never observed mailbox close")
	}
}
