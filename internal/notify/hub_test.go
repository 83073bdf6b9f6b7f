package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"loklagbe/internal/domain"
)

func note(id, to string) domain.Notification {
	return domain.Notification{ID: id, ToUserID: to, Type: domain.NotificationGeneral}
}

func TestPublishReachesOnlyRecipient(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub(4, nil)
	ctx := context.Background()
	alice, cancelA := h.Subscribe(ctx, "alice")
	defer cancelA()
	bob, cancelB := h.Subscribe(ctx, "bob")
	defer cancelB()

	assert.Equal(t, 1, h.Publish(note("n1", "alice")))
	got := <-alice
	assert.Equal(t, "n1", got.ID)
	select {
	case n := <-bob:
		t.Fatalf("bob received %s", n.ID)
	default:
	}
	assert.Zero(t, h.Publish(note("n2", "carol")))
}

func TestCancelIsIdempotentAndClosesChannel(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub(1, nil)
	ch, cancel := h.Subscribe(context.Background(), "alice")
	require.Equal(t, 1, h.Subscribers("alice"))
	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, h.Subscribers("alice"))
	assert.Zero(t, h.Publish(note("n1", "alice")))
}

func TestContextEndReleasesSubscription(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub(1, nil)
	ctx, cancelCtx := context.WithCancel(context.Background())
	ch, cancel := h.Subscribe(ctx, "alice")
	defer cancel()
	cancelCtx()
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not released on context end")
	}
	assert.Zero(t, h.Subscribers("alice"))
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub(2, nil)
	ch, cancel := h.Subscribe(context.Background(), "alice")
	defer cancel()

	done := make(chan int)
	go func() {
		delivered := 0
		for i := 0; i < 10; i++ {
			delivered += h.Publish(note("n", "alice"))
		}
		done <- delivered
	}()
	select {
	case delivered := <-done:
		assert.Equal(t, 2, delivered)
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, ch, 2)
}

func TestCloseReleasesEverything(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub(1, nil)
	var chans []<-chan domain.Notification
	for _, id := range []string{"a", "b", "a"} {
		ch, _ := h.Subscribe(context.Background(), id)
		chans = append(chans, ch)
	}
	h.Close()
	for _, ch := range chans {
		_, open := <-ch
		assert.False(t, open)
	}
	ch, cancel := h.Subscribe(context.Background(), "a")
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestConcurrentSubscribePublish(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub(8, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithCancel(context.Background())
			_, unsubscribe := h.Subscribe(ctx, "alice")
			cancel()
			unsubscribe()
		}()
		go func() {
			defer wg.Done()
			h.Publish(note("n", "alice"))
		}()
	}
	wg.Wait()
	assert.Zero(t, h.Subscribers("alice"))
}
