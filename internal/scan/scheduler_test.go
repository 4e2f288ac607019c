package scan

import (
	"testing"
	"time"

	"github.com/dshills/previewsync/internal/clock"
	"github.com/dshills/previewsync/internal/host"
)

func newTestScheduler(scan func(), opts ...Option) (*Scheduler, *clock.Fake) {
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(fake, scan, opts...), fake
}

var childList = []host.Mutation{{Kind: host.MutationChildList, TargetID: "body", Added: 1}}

func TestScheduler_CoalescesBurst(t *testing.T) {
	count := 0
	s, fake := newTestScheduler(func() { count++ })

	for i := 0; i < 5; i++ {
		s.OnChangeNotification(childList)
	}
	if count != 0 {
		t.Fatalf("scan ran synchronously from a notification")
	}
	if !s.Scheduled() {
		t.Fatal("Scheduled() = false after notification")
	}

	fake.Advance(0)
	if count != 1 {
		t.Errorf("scans = %d, want 1", count)
	}
	notifications, coalesced := s.Stats()
	if notifications != 5 || coalesced != 4 {
		t.Errorf("Stats() = %d, %d; want 5, 4", notifications, coalesced)
	}
}

func TestScheduler_Filter(t *testing.T) {
	s, fake := newTestScheduler(func() {}, WithFilter(Relevant))

	removed := []host.Mutation{{Kind: host.MutationChildList, TargetID: "document"}}
	s.OnChangeNotification(removed)
	fake.Advance(time.Second)
	if s.Scans() != 0 || s.Ignored() != 1 {
		t.Fatalf("Scans() = %d, Ignored() = %d; want 0, 1", s.Scans(), s.Ignored())
	}

	tab := host.Mutation{Kind: host.MutationAttributes, TargetID: "tab", Attribute: "aria-selected"}
	s.OnChangeNotification(append(removed, tab))
	fake.Advance(time.Second)
	if s.Scans() != 1 {
		t.Errorf("Scans() = %d, want 1 for a batch with a tab switch", s.Scans())
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		m    host.Mutation
		want bool
	}{
		{"added children", host.Mutation{Kind: host.MutationChildList, Added: 2}, true},
		{"removal only", host.Mutation{Kind: host.MutationChildList}, false},
		{"attribute", host.Mutation{Kind: host.MutationAttributes, Attribute: "aria-selected"}, true},
		{"unknown kind", host.Mutation{Kind: host.MutationKind(9)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Relevant(tt.m); got != tt.want {
				t.Errorf("Relevant() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestScheduler_OneScanPerFrame(t *testing.T) {
	count := 0
	s, fake := newTestScheduler(func() { count++ }, WithFrame(20*time.Millisecond))

	s.OnChangeNotification(childList)
	fake.Advance(0)
	if count != 1 {
		t.Fatalf("scans = %d, want 1", count)
	}

	fake.Advance(5 * time.Millisecond)
	s.OnChangeNotification(childList)
	fake.Advance(9 * time.Millisecond)
	if count != 1 {
		t.Errorf("second scan ran within the first frame")
	}
	fake.Advance(10 * time.Millisecond)
	if count != 2 {
		t.Errorf("scans = %d, want 2 after the frame elapsed", count)
	}
}

func TestScheduler_IgnoresEmptyBatch(t *testing.T) {
	s, fake := newTestScheduler(func() {})
	s.OnChangeNotification(nil)
	fake.Advance(time.Second)
	if s.Scans() != 0 || s.Scheduled() {
		t.Errorf("empty batch scheduled a scan")
	}
}

func TestScheduler_PeriodicSweep(t *testing.T) {
	count := 0
	s, fake := newTestScheduler(func() { count++ }, WithInterval(time.Second))

	s.Start()
	if count != 1 {
		t.Fatalf("Start() ran %d scans, want 1", count)
	}
	s.Start()
	if count != 1 {
		t.Errorf("second Start() ran a scan")
	}

	fake.Advance(time.Second)
	fake.Advance(time.Second)
	if count != 3 {
		t.Errorf("scans = %d, want 3", count)
	}

	s.Stop()
	if s.Running() {
		t.Error("Running() = true after Stop")
	}
	fake.Advance(5 * time.Second)
	if count != 3 {
		t.Errorf("sweep ran after Stop: %d scans", count)
	}
	if fake.Pending() != 0 {
		t.Errorf("timers left after Stop: %d", fake.Pending())
	}
}

func TestScheduler_StopDropsScheduledFrame(t *testing.T) {
	count := 0
	s, fake := newTestScheduler(func() { count++ })
	s.OnChangeNotification(childList)
	s.Stop()
	fake.Advance(time.Second)
	if count != 0 {
		t.Errorf("scheduled scan ran after Stop")
	}

	s.OnChangeNotification(childList)
	fake.Advance(time.Second)
	if count != 1 {
		t.Errorf("scans = %d, want 1 after rescheduling", count)
	}
}

func TestScheduler_RequestFromScan(t *testing.T) {
	var s *Scheduler
	count := 0
	s, fake := newTestScheduler(func() {
		count++
		if count == 1 {
			s.Request()
		}
	})

	s.Request()
	fake.Advance(0)
	if count != 1 {
		t.Fatalf("scans = %d after first frame, want 1", count)
	}
	fake.Advance(2 * DefaultFrame)
	if count != 2 {
		t.Errorf("scans = %d, want 2", count)
	}
}
