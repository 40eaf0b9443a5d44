package conference

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of one conference instance's occupancy.
// PhoneNumbers covers every caller seen during the session, including
// participants that already left.
type Snapshot struct {
	PeakConcurrency int
	PhoneNumbers    []string
	CallPhoneNumber map[string]string
}

type session struct {
	mu              sync.Mutex
	activeCalls     map[string]struct{}
	peakConcurrency int
	callPhoneNumber map[string]string
	touchedAt       time.Time
}

// Tracker accumulates conference lifecycle events into per-instance sessions.
// Sessions are created lazily on the first event for an unseen conference
// instance and live until a mixed-recording ingest consumes them, or until the
// janitor evicts them after the idle TTL. Lock granularity is per session; the
// tracker mutex only guards the map itself.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*session

	ttl       time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// NewTracker starts a tracker with the given idle TTL. A non-positive ttl
// disables passive expiry. sweepInterval controls how often the janitor runs.
func NewTracker(ttl, sweepInterval time.Duration) *Tracker {
	t := &Tracker{
		sessions: make(map[string]*session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		if sweepInterval <= 0 {
			sweepInterval = 10 * time.Minute
		}
		go t.janitor(sweepInterval)
	}
	return t
}

// Close stops the janitor goroutine. Safe to call more than once.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
	})
}

// RecordJoin marks a call as bridged into the conference. Adding a call that
// is already active only fills in a previously unknown phone number. Events
// with a missing conference or call id are dropped; the emitting system is
// best-effort and a partial event is not worth failing over.
func (t *Tracker) RecordJoin(conferenceInstanceId, callId, phoneNumber string) {
	if conferenceInstanceId == "" || callId == "" {
		return
	}

	s := t.getOrCreate(conferenceInstanceId)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeCalls[callId] = struct{}{}
	if len(s.activeCalls) > s.peakConcurrency {
		s.peakConcurrency = len(s.activeCalls)
	}
	if phoneNumber != "" {
		if _, known := s.callPhoneNumber[callId]; !known {
			s.callPhoneNumber[callId] = phoneNumber
		}
	}
	s.touchedAt = time.Now()
}

// RecordLeave removes a call from the active set. The phone-number mapping is
// kept so a stem recording arriving after the call ended can still resolve its
// caller.
func (t *Tracker) RecordLeave(conferenceInstanceId, callId string) {
	if conferenceInstanceId == "" || callId == "" {
		return
	}

	s := t.get(conferenceInstanceId)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.activeCalls, callId)
	s.touchedAt = time.Now()
}

// Snapshot reads the session without consuming it. An unseen conference
// instance yields an empty snapshot, never an error: completion webhooks can
// legitimately race ahead of lifecycle webhooks.
func (t *Tracker) Snapshot(conferenceInstanceId string) Snapshot {
	s := t.get(conferenceInstanceId)
	if s == nil {
		return emptySnapshot()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchedAt = time.Now()
	return s.snapshotLocked()
}

// Consume atomically snapshots and discards the session. Used by mixed
// recording ingests, which are the single point where a conference instance's
// lifetime ends.
func (t *Tracker) Consume(conferenceInstanceId string) Snapshot {
	t.mu.Lock()
	s, ok := t.sessions[conferenceInstanceId]
	if ok {
		delete(t.sessions, conferenceInstanceId)
	}
	t.mu.Unlock()

	if s == nil {
		return emptySnapshot()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Discard drops the session outright.
func (t *Tracker) Discard(conferenceInstanceId string) {
	t.mu.Lock()
	delete(t.sessions, conferenceInstanceId)
	t.mu.Unlock()
}

// Len reports the number of live sessions.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *Tracker) get(conferenceInstanceId string) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[conferenceInstanceId]
}

func (t *Tracker) getOrCreate(conferenceInstanceId string) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[conferenceInstanceId]
	if !ok {
		s = &session{
			activeCalls:     make(map[string]struct{}),
			callPhoneNumber: make(map[string]string),
			touchedAt:       time.Now(),
		}
		t.sessions[conferenceInstanceId] = s
	}
	return s
}

func (t *Tracker) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.evictStale(time.Now())
		case <-t.done:
			return
		}
	}
}

// evictStale removes sessions idle longer than the TTL. Stem correlation only
// needs a session to survive from join until the stem's completion webhook,
// which arrives promptly after the call ends, so a stale session is garbage.
func (t *Tracker) evictStale(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, s := range t.sessions {
		s.mu.Lock()
		stale := now.Sub(s.touchedAt) > t.ttl
		s.mu.Unlock()
		if stale {
			delete(t.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (s *session) snapshotLocked() Snapshot {
	numbers := make([]string, 0, len(s.callPhoneNumber))
	seen := make(map[string]struct{}, len(s.callPhoneNumber))
	for _, n := range s.callPhoneNumber {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		numbers = append(numbers, n)
	}

	mapping := make(map[string]string, len(s.callPhoneNumber))
	for c, n := range s.callPhoneNumber {
		mapping[c] = n
	}

	return Snapshot{
		PeakConcurrency: s.peakConcurrency,
		PhoneNumbers:    numbers,
		CallPhoneNumber: mapping,
	}
}

func emptySnapshot() Snapshot {
	return Snapshot{
		PhoneNumbers:    []string{},
		CallPhoneNumber: map[string]string{},
	}
}
