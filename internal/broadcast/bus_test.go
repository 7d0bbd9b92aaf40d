package broadcast

import (
	"sync"
	"testing"
)

func TestPublish_FansOut(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe(4)
	b := bus.Subscribe(4)
	defer a.Close()
	defer b.Close()

	bus.Publish(FavoritesChanged{ItemID: "7", Added: true})

	for name, sub := range map[string]*Subscription{"a": a, "b": b} {
		ev := <-sub.C()
		fav, ok := ev.(FavoritesChanged)
		if !ok || fav.ItemID != "7" || !fav.Added {
			t.Fatalf("subscriber %s got %#v", name, ev)
		}
	}
}

func TestPublish_DropsWhenFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(1)
	defer sub.Close()

	bus.Publish(UnreadCount{Count: 1})
	bus.Publish(UnreadCount{Count: 2})

	if got := bus.Dropped(); got != 1 {
		t.Fatalf("Dropped = %d, want 1", got)
	}
	if ev := <-sub.C(); ev.(UnreadCount).Count != 1 {
		t.Fatalf("first event = %#v, want count 1", ev)
	}
}

func TestClose_Unsubscribes(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(0)
	if bus.Subscribers() != 1 {
		t.Fatalf("Subscribers = %d, want 1", bus.Subscribers())
	}
	sub.Close()
	sub.Close()
	if bus.Subscribers() != 0 {
		t.Fatalf("Subscribers = %d after Close, want 0", bus.Subscribers())
	}
	if _, ok := <-sub.C(); ok {
		t.Fatalf("channel still open after Close")
	}
	bus.Publish(UnreadCount{Count: 3})
}

func TestPublish_ConcurrentWithClose(t *testing.T) {
	bus := NewBus()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		sub := bus.Subscribe(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(UnreadCount{Count: j})
			}
		}()
		go func() {
			defer wg.Done()
			sub.Close()
		}()
	}
	wg.Wait()
}
