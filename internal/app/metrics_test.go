package app

import (
	"testing"
	"time"
)

func TestMetrics_RecordScan(t *testing.T) {
	m := NewMetrics()

	m.RecordScan(4 * time.Millisecond)
	m.RecordScan(2 * time.Millisecond)
	m.RecordScan(6 * time.Millisecond)

	snap := m.Snapshot()
	if snap.Scans != 3 {
		t.Errorf("Scans = %d, want 3", snap.Scans)
	}
	if snap.AvgScan != 4*time.Millisecond {
		t.Errorf("AvgScan = %v, want 4ms", snap.AvgScan)
	}
	if snap.MinScan != 2*time.Millisecond || snap.MaxScan != 6*time.Millisecond {
		t.Errorf("Min/Max = %v/%v, want 2ms/6ms", snap.MinScan, snap.MaxScan)
	}
}

func TestMetrics_Empty(t *testing.T) {
	snap := NewMetrics().Snapshot()
	if snap.MinScan != 0 || snap.AvgScan != 0 {
		t.Errorf("empty snapshot = %+v, want zero durations", snap)
	}
	if snap.SyncRate() != 0 {
		t.Errorf("SyncRate() = %v, want 0", snap.SyncRate())
	}
}

func TestMetrics_Outcomes(t *testing.T) {
	m := NewMetrics()
	m.RecordSync(true)
	m.RecordSync(true)
	m.RecordSync(true)
	m.RecordSync(false)
	m.RecordToggle(true)
	m.RecordToggle(false)

	snap := m.Snapshot()
	if snap.Synced != 3 || snap.Unsynced != 1 {
		t.Errorf("Synced/Unsynced = %d/%d, want 3/1", snap.Synced, snap.Unsynced)
	}
	if snap.SyncRate() != 75 {
		t.Errorf("SyncRate() = %v, want 75", snap.SyncRate())
	}
	if snap.Toggled != 1 || snap.Dropped != 1 {
		t.Errorf("Toggled/Dropped = %d/%d, want 1/1", snap.Toggled, snap.Dropped)
	}

	m.Reset()
	if snap := m.Snapshot(); snap.Synced != 0 || snap.Scans != 0 {
		t.Errorf("after Reset = %+v", snap)
	}
}
