package store

import (
	"sync"
	"testing"
	"time"
)

func tick(seq uint64) TickEvent {
	return TickEvent{
		RunID:   "run-1",
		Seq:     seq,
		URL:     "https://target.example.com",
		FiredAt: time.Unix(int64(seq), 0),
	}
}

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore("https://c.example.com", 10)
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	snap := store.Snapshot()
	if snap.State != "uninitialized" {
		t.Errorf("State = %q, want uninitialized", snap.State)
	}
	if snap.ConfigURL != "https://c.example.com" {
		t.Errorf("ConfigURL = %q", snap.ConfigURL)
	}
	if snap.TickCount != 0 || snap.LastTick != nil {
		t.Errorf("Snapshot() = %+v, want no ticks", snap)
	}
	if len(store.Recent(0)) != 0 {
		t.Errorf("Recent(0) = %v items, want 0", len(store.Recent(0)))
	}
}

func TestNewMemoryStore_DefaultHistory(t *testing.T) {
	store := NewMemoryStore("", 0)
	if len(store.ring) != DefaultHistory {
		t.Errorf("len(ring) = %d, want %d", len(store.ring), DefaultHistory)
	}
}

func TestMemoryStore_SetState(t *testing.T) {
	store := NewMemoryStore("", 10)
	before := store.Snapshot().UpdatedAt

	time.Sleep(time.Millisecond)
	store.SetState("armed", "run-1")

	snap := store.Snapshot()
	if snap.State != "armed" {
		t.Errorf("State = %q, want armed", snap.State)
	}
	if snap.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", snap.RunID)
	}
	if !snap.UpdatedAt.After(before) {
		t.Errorf("UpdatedAt = %v, want after %v", snap.UpdatedAt, before)
	}
}

func TestMemoryStore_Record(t *testing.T) {
	store := NewMemoryStore("", 10)

	store.Record(tick(1))
	store.Record(tick(2))

	snap := store.Snapshot()
	if snap.TickCount != 2 {
		t.Errorf("TickCount = %d, want 2", snap.TickCount)
	}
	if snap.LastTick == nil || snap.LastTick.Seq != 2 {
		t.Fatalf("LastTick = %+v, want seq 2", snap.LastTick)
	}

	// LastTick must be a copy
	snap.LastTick.Seq = 99
	if store.Snapshot().LastTick.Seq != 2 {
		t.Error("modifying Snapshot().LastTick changed the store")
	}
}

func TestMemoryStore_RingOverwritesOldest(t *testing.T) {
	store := NewMemoryStore("", 3)

	for i := uint64(1); i <= 5; i++ {
		store.Record(tick(i))
	}

	got := store.Recent(0)
	if len(got) != 3 {
		t.Fatalf("Recent(0) = %v items, want 3", len(got))
	}
	for i, want := range []uint64{3, 4, 5} {
		if got[i].Seq != want {
			t.Errorf("Recent(0)[%d].Seq = %d, want %d", i, got[i].Seq, want)
		}
	}

	if snap := store.Snapshot(); snap.TickCount != 5 || snap.LastTick.Seq != 5 {
		t.Errorf("Snapshot() = count %d last %d, want 5 and 5", snap.TickCount, snap.LastTick.Seq)
	}
}

func TestMemoryStore_Recent(t *testing.T) {
	store := NewMemoryStore("", 10)
	for i := uint64(1); i <= 4; i++ {
		store.Record(tick(i))
	}

	tests := []struct {
		n    int
		want []uint64
	}{
		{0, []uint64{1, 2, 3, 4}},
		{-1, []uint64{1, 2, 3, 4}},
		{2, []uint64{3, 4}},
		{1, []uint64{4}},
		{50, []uint64{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		got := store.Recent(tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("Recent(%d) = %v items, want %v", tt.n, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i].Seq != tt.want[i] {
				t.Errorf("Recent(%d)[%d].Seq = %d, want %d", tt.n, i, got[i].Seq, tt.want[i])
			}
		}
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore("", 10)

	ch := store.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() = nil")
	}

	go func() {
		store.Record(tick(7))
	}()

	select {
	case ev := <-ch:
		if ev.Seq != 7 {
			t.Errorf("received Seq = %v, want %v", ev.Seq, 7)
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive event")
	}
}

func TestMemoryStore_MultipleSubscribers(t *testing.T) {
	store := NewMemoryStore("", 10)

	ch1 := store.Subscribe()
	ch2 := store.Subscribe()
	ch3 := store.Subscribe()

	// record should fanout to all subscribers
	go func() {
		store.Record(tick(1))
	}()

	received := 0
	timeout := time.After(1 * time.Second)

	for received < 3 {
		select {
		case <-ch1:
			received++
		case <-ch2:
			received++
		case <-ch3:
			received++
		case <-timeout:
			t.Fatalf("Only received %d/3 events", received)
		}
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore("", 10)

	ch := store.Subscribe()
	store.Unsubscribe(ch)
	store.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Unsubscribe() channel should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore("", 10)

	// create a subscriber but don't read from it
	_ = store.Subscribe()

	done := make(chan bool)
	go func() {
		for i := uint64(0); i < 200; i++ {
			store.Record(tick(i))
		}
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Record() blocked on slow subscriber")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore("", 16)

	var wg sync.WaitGroup
	numGoroutines := 10
	numOps := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				store.Record(tick(uint64(j)))
				store.SetState("armed", "run-1")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				_ = store.Snapshot()
				_ = store.Recent(5)
			}
		}()
		go func() {
			defer wg.Done()
			ch := store.Subscribe()
			time.Sleep(10 * time.Millisecond)
			store.Unsubscribe(ch)
		}()
	}

	wg.Wait()

	if got := store.Snapshot().TickCount; got != uint64(numGoroutines*numOps) {
		t.Errorf("TickCount = %d, want %d", got, numGoroutines*numOps)
	}
}
