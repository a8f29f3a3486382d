package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-formdemo/pkg/form"
	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/state"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(clock *fakeClock, options ...Option) *Store {
	return NewStore(func() *form.Component { return form.New() }, append(options, WithClock(clock.Now))...)
}

func TestStore_CreateGetAndIsolation(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	store := newStore(clock)

	a, err := store.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, _ := store.Create()
	if a.ID == b.ID || a.CSRFToken == "" || a.CSRFToken == a.ID {
		t.Fatalf("ids and tokens must be distinct: %+v %+v", a, b)
	}

	_ = a.Do(func(c *form.Component) error {
		c.HandleChange(state.ChangeEvent{Name: "text", Kind: model.KindText, Value: "mine"})
		return nil
	})
	_ = b.Do(func(c *form.Component) error {
		if v, _ := c.State().Get("text"); v.String() != "" {
			t.Fatalf("sessions must not share state")
		}
		return nil
	})

	got, err := store.Get(a.ID)
	if err != nil || got != a {
		t.Fatalf("get = %v, %v", got, err)
	}
	if _, err := store.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_IdleExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	store := newStore(clock, WithIdleTimeout(time.Minute))

	stale, _ := store.Create()
	fresh, _ := store.Create()

	clock.Advance(45 * time.Second)
	if _, err := store.Get(fresh.ID); err != nil {
		t.Fatalf("fresh session should be live: %v", err)
	}
	clock.Advance(30 * time.Second)

	if _, err := store.Get(stale.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale session should expire, got %v", err)
	}
	if dropped := store.Sweep(); dropped != 0 {
		t.Fatalf("fresh session was touched 30s ago, dropped %d", dropped)
	}
	clock.Advance(time.Minute)
	if dropped := store.Sweep(); dropped != 1 || store.Len() != 0 {
		t.Fatalf("sweep dropped %d, %d left", dropped, store.Len())
	}
}

func TestStore_GetOrCreateAndEviction(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	store := newStore(clock, WithMaxSessions(2))

	first, created, err := store.GetOrCreate("")
	if err != nil || !created {
		t.Fatalf("expected creation, got %v %v", created, err)
	}
	again, created, _ := store.GetOrCreate(first.ID)
	if created || again != first {
		t.Fatalf("existing session should be reused")
	}

	clock.Advance(time.Second)
	second, _ := store.Create()
	clock.Advance(time.Second)
	if _, err := store.Get(first.ID); err != nil {
		t.Fatalf("touch first: %v", err)
	}
	clock.Advance(time.Second)
	third, _ := store.Create()

	if store.Len() != 2 {
		t.Fatalf("store should stay bounded, len=%d", store.Len())
	}
	if _, err := store.Get(second.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("least recently used session should be evicted")
	}
	for _, sess := range []*Session{first, third} {
		if _, err := store.Get(sess.ID); err != nil {
			t.Fatalf("session %s should survive: %v", sess.ID, err)
		}
	}
}

func TestSession_DoSerialisesAccess(t *testing.T) {
	store := NewStore(nil)
	sess, _ := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sess.Do(func(c *form.Component) error {
				v, _ := c.State().Get("text")
				c.HandleChange(state.ChangeEvent{Name: "text", Kind: model.KindText, Value: v.String() + "x"})
				return nil
			})
		}()
	}
	wg.Wait()

	_ = sess.Do(func(c *form.Component) error {
		if v, _ := c.State().Get("text"); len(v.String()) != 50 {
			t.Fatalf("lost updates: %d", len(v.String()))
		}
		return nil
	})
}

func TestStore_RunWithTinyIdleTimeoutSweeps(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	store := newStore(clock, WithIdleTimeout(time.Nanosecond))
	if _, err := store.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}
	clock.Advance(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	store.Run(ctx, 0)

	if store.Len() != 0 {
		t.Fatalf("expired session should be swept, %d left", store.Len())
	}
}
