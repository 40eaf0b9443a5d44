package conference

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestTracker() *Tracker {
	t := NewTracker(0, 0)
	return t
}

func TestPeakConcurrencyTracksMaxActiveSet(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	tr.RecordJoin("conf1", "callA", "+15550001")
	tr.RecordJoin("conf1", "callB", "+15550002")
	tr.RecordJoin("conf1", "callC", "+15550003")
	tr.RecordLeave("conf1", "callA")
	tr.RecordLeave("conf1", "callB")
	tr.RecordJoin("conf1", "callD", "+15550004")

	snap := tr.Snapshot("conf1")
	if snap.PeakConcurrency != 3 {
		t.Errorf("PeakConcurrency = %d, want 3", snap.PeakConcurrency)
	}
}

func TestPeakConcurrencyNeverDecreases(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	tr.RecordJoin("conf1", "callA", "")
	tr.RecordJoin("conf1", "callB", "")
	tr.RecordLeave("conf1", "callA")
	tr.RecordLeave("conf1", "callB")

	snap := tr.Snapshot("conf1")
	if snap.PeakConcurrency != 2 {
		t.Errorf("PeakConcurrency after everyone left = %d, want 2", snap.PeakConcurrency)
	}
}

func TestRejoinIsNoOpForMembership(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	tr.RecordJoin("conf1", "callA", "")
	tr.RecordJoin("conf1", "callA", "")
	tr.RecordJoin("conf1", "callA", "")

	snap := tr.Snapshot("conf1")
	if snap.PeakConcurrency != 1 {
		t.Errorf("PeakConcurrency = %d, want 1", snap.PeakConcurrency)
	}
}

func TestRejoinFillsUnknownPhoneNumber(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	tr.RecordJoin("conf1", "callA", "")
	tr.RecordJoin("conf1", "callA", "+15550001")

	snap := tr.Snapshot("conf1")
	if snap.CallPhoneNumber["callA"] != "+15550001" {
		t.Errorf("CallPhoneNumber[callA] = %q, want +15550001", snap.CallPhoneNumber["callA"])
	}
}

func TestRejoinDoesNotOverwriteKnownPhoneNumber(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	tr.RecordJoin("conf1", "callA", "+15550001")
	tr.RecordJoin("conf1", "callA", "+19999999")

	snap := tr.Snapshot("conf1")
	if snap.CallPhoneNumber["callA"] != "+15550001" {
		t.Errorf("CallPhoneNumber[callA] = %q, want original +15550001", snap.CallPhoneNumber["callA"])
	}
}

func TestSnapshotUnknownConferenceIsEmpty(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	snap := tr.Snapshot("never-seen")
	if snap.PeakConcurrency != 0 {
		t.Errorf("PeakConcurrency = %d, want 0", snap.PeakConcurrency)
	}
	if len(snap.PhoneNumbers) != 0 {
		t.Errorf("PhoneNumbers = %v, want empty", snap.PhoneNumbers)
	}
	if len(snap.CallPhoneNumber) != 0 {
		t.Errorf("CallPhoneNumber = %v, want empty", snap.CallPhoneNumber)
	}
}

func TestLeaveKeepsPhoneNumberMapping(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	tr.RecordJoin("conf1", "callA", "+15550001")
	tr.RecordJoin("conf1", "callB", "+15550002")
	tr.RecordLeave("conf1", "callA")

	snap := tr.Snapshot("conf1")
	if snap.PeakConcurrency != 2 {
		t.Errorf("PeakConcurrency = %d, want 2", snap.PeakConcurrency)
	}
	if len(snap.PhoneNumbers) != 2 {
		t.Errorf("PhoneNumbers = %v, want both numbers", snap.PhoneNumbers)
	}
	if snap.CallPhoneNumber["callA"] != "+15550001" {
		t.Errorf("departed callA lost its number: %v", snap.CallPhoneNumber)
	}
}

func TestMalformedEventsAreSilentNoOps(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	tr.RecordJoin("", "callA", "+15550001")
	tr.RecordJoin("conf1", "", "+15550001")
	tr.RecordLeave("", "callA")
	tr.RecordLeave("conf1", "")

	if tr.Len() != 0 {
		t.Errorf("Len = %d, want 0 sessions after malformed events", tr.Len())
	}
}

func TestConsumeReturnsSnapshotAndDiscards(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	tr.RecordJoin("conf1", "callA", "+15550001")
	tr.RecordJoin("conf1", "callB", "+15550002")

	snap := tr.Consume("conf1")
	if snap.PeakConcurrency != 2 {
		t.Errorf("PeakConcurrency = %d, want 2", snap.PeakConcurrency)
	}

	after := tr.Snapshot("conf1")
	if after.PeakConcurrency != 0 || len(after.CallPhoneNumber) != 0 {
		t.Errorf("session survived Consume: %+v", after)
	}
}

func TestConsumeUnknownConferenceIsEmpty(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	snap := tr.Consume("never-seen")
	if snap.PeakConcurrency != 0 || len(snap.PhoneNumbers) != 0 {
		t.Errorf("Consume of unknown conference = %+v, want empty", snap)
	}
}

func TestDiscardRemovesSession(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	tr.RecordJoin("conf1", "callA", "")
	tr.Discard("conf1")

	if tr.Len() != 0 {
		t.Errorf("Len = %d, want 0 after Discard", tr.Len())
	}
}

func TestPhoneNumbersAreDeduplicated(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	tr.RecordJoin("conf1", "callA", "+15550001")
	tr.RecordJoin("conf1", "callB", "+15550001")

	snap := tr.Snapshot("conf1")
	if len(snap.PhoneNumbers) != 1 {
		t.Errorf("PhoneNumbers = %v, want single deduplicated number", snap.PhoneNumbers)
	}
}

func TestEvictStaleRemovesIdleSessions(t *testing.T) {
	tr := NewTracker(time.Minute, time.Hour)
	defer tr.Close()

	tr.RecordJoin("old", "callA", "")
	tr.RecordJoin("fresh", "callB", "")

	// Backdate the old session past the TTL.
	tr.mu.Lock()
	tr.sessions["old"].touchedAt = time.Now().Add(-2 * time.Minute)
	tr.mu.Unlock()

	evicted := tr.evictStale(time.Now())
	if evicted != 1 {
		t.Fatalf("evictStale evicted %d sessions, want 1", evicted)
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1", tr.Len())
	}
	if snap := tr.Snapshot("fresh"); snap.PeakConcurrency != 1 {
		t.Errorf("fresh session was evicted")
	}
}

func TestConcurrentEventsOnSeparateConferences(t *testing.T) {
	tr := newTestTracker()
	defer tr.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(conf int) {
			defer wg.Done()
			confId := fmt.Sprintf("conf%d", conf)
			for j := 0; j < 50; j++ {
				callId := fmt.Sprintf("call%d", j)
				tr.RecordJoin(confId, callId, fmt.Sprintf("+1555%04d", j))
				tr.RecordLeave(confId, callId)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		snap := tr.Snapshot(fmt.Sprintf("conf%d", i))
		if snap.PeakConcurrency < 1 {
			t.Errorf("conf%d PeakConcurrency = %d, want >= 1", i, snap.PeakConcurrency)
		}
		if len(snap.CallPhoneNumber) != 50 {
			t.Errorf("conf%d retained %d call mappings, want 50", i, len(snap.CallPhoneNumber))
		}
	}
}
