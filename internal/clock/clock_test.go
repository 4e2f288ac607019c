package clock

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAdvanceOrder(t *testing.T) {
	c := NewFake(epoch)
	var order []string

	c.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, "b") })

	c.Advance(20 * time.Millisecond)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("after 20ms order = %v, want [a b]", order)
	}
	if got := c.Now(); !got.Equal(epoch.Add(20 * time.Millisecond)) {
		t.Errorf("Now() = %v, want epoch+20ms", got)
	}

	c.Advance(10 * time.Millisecond)
	if len(order) != 3 || order[2] != "c" {
		t.Errorf("after 30ms order = %v, want [a b c]", order)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", c.Pending())
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("Stop() on pending timer = false, want true")
	}
	if timer.Stop() {
		t.Error("second Stop() = true, want false")
	}
	c.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestFakeStopAfterFire(t *testing.T) {
	c := NewFake(epoch)
	timer := c.AfterFunc(0, func() {})
	c.Advance(0)
	if timer.Stop() {
		t.Error("Stop() after firing = true, want false")
	}
}

func TestFakeNestedScheduling(t *testing.T) {
	c := NewFake(epoch)
	count := 0
	var tick func()
	tick = func() {
		count++
		c.AfterFunc(100*time.Millisecond, tick)
	}
	c.AfterFunc(100*time.Millisecond, tick)

	c.Advance(350 * time.Millisecond)
	if count != 3 {
		t.Errorf("periodic callback ran %d times in 350ms, want 3", count)
	}
}

func TestSerialized(t *testing.T) {
	var mu sync.Mutex
	fake := NewFake(epoch)
	c := Serialized(fake, &mu)

	held := false
	c.AfterFunc(time.Millisecond, func() {
		held = !mu.TryLock()
	})
	fake.Advance(time.Millisecond)
	if !held {
		t.Error("callback did not run under the lock")
	}
	if !c.Now().Equal(fake.Now()) {
		t.Error("Serialized Now() differs from inner clock")
	}
}

func TestRealClock(t *testing.T) {
	c := New()
	done := make(chan struct{})
	c.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real timer did not fire")
	}
}
