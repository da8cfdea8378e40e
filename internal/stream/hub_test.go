package stream

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/itsatony/trackhub/internal/models"
)

type testObserver struct {
	id       string
	mu       sync.Mutex
	received []models.LocationUpdate
	failSend bool
	closed   bool
}

func (o *testObserver) ID() string { return o.id }

func (o *testObserver) Send(update models.LocationUpdate) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failSend {
		return errors.New("connection lost")
	}
	o.received = append(o.received, update)
	return nil
}

func (o *testObserver) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *testObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.received)
}

func testUpdate() models.LocationUpdate {
	return models.LocationUpdate{
		Type:      models.LocationUpdateType,
		DeviceID:  "dev001",
		Timestamp: time.Date(2023, 11, 14, 10, 0, 0, 0, time.UTC),
		Latitude:  39.9,
		Longitude: 32.8,
	}
}

func TestBroadcastReachesAllObservers(t *testing.T) {
	hub := New()
	a := &testObserver{id: "a"}
	b := &testObserver{id: "b"}
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(testUpdate())

	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}

func TestBroadcastIsolatesFailingObserver(t *testing.T) {
	hub := New()
	a := &testObserver{id: "a"}
	bad := &testObserver{id: "bad", failSend: true}
	c := &testObserver{id: "c"}
	hub.Register(a)
	hub.Register(bad)
	hub.Register(c)

	hub.Broadcast(testUpdate())

	// The two healthy observers still receive the update.
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, c.count())
	// The failing one is removed and closed.
	assert.Equal(t, 2, hub.Count())
	assert.True(t, bad.closed)

	hub.Broadcast(testUpdate())
	assert.Equal(t, 2, a.count())
	assert.Equal(t, 2, c.count())
	assert.Equal(t, 0, bad.count())
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := New()
	a := &testObserver{id: "a"}
	hub.Register(a)

	hub.Unregister("a")
	assert.Equal(t, 0, hub.Count())

	// Removing an absent observer is a no-op, not an error.
	hub.Unregister("a")
	hub.Unregister("never-registered")
	assert.Equal(t, 0, hub.Count())
}

func TestObserverEvents(t *testing.T) {
	hub := New()

	var mu sync.Mutex
	connected := []string{}
	disconnected := []string{}
	hub.OnObserverEvent("observer.connected", func(id string) {
		mu.Lock()
		connected = append(connected, id)
		mu.Unlock()
	})
	hub.OnObserverEvent("observer.disconnected", func(id string) {
		mu.Lock()
		disconnected = append(disconnected, id)
		mu.Unlock()
	})

	a := &testObserver{id: "a"}
	hub.Register(a)
	hub.Unregister("a")
	hub.Unregister("a") // no second disconnect event

	// The emitter dispatches asynchronously.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(connected) == 1 && len(disconnected) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestConcurrentRegisterAndBroadcast(t *testing.T) {
	hub := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := fmt.Sprintf("obs-%d", i)
		go func() {
			defer wg.Done()
			hub.Register(&testObserver{id: id})
		}()
		go func() {
			defer wg.Done()
			hub.Broadcast(testUpdate())
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, hub.Count())
}
