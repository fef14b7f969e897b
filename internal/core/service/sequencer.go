package service

// ticket identifies one issued remote request.
type ticket struct {
	key   string
	seq   uint64
	epoch uint64
}

// sequencer hands out monotonically increasing sequence numbers and remembers,
// per logical key, the most recently issued one. A response is only allowed
// to touch state while its ticket is still current: same epoch and, for keyed
// tickets, still the latest for its key.
//
// Not safe for concurrent use; owners guard it with their own mutex.
type sequencer struct {
	next   uint64
	epoch  uint64
	latest map[string]uint64
}

func newSequencer() *sequencer {
	return &sequencer{latest: make(map[string]uint64)}
}

// issue records a new mutation for key, superseding any earlier one.
func (s *sequencer) issue(key string) ticket {
	s.next++
	s.latest[key] = s.next
	return ticket{key: key, seq: s.next, epoch: s.epoch}
}

// tick returns an unkeyed ticket, used for whole-resource reads.
func (s *sequencer) tick() ticket {
	s.next++
	return ticket{seq: s.next, epoch: s.epoch}
}

func (s *sequencer) current(t ticket) bool {
	if t.epoch != s.epoch {
		return false
	}
	if t.key == "" {
		return true
	}
	return s.latest[t.key] == t.seq
}

// cleared reports whether t was invalidated by reset rather than by a newer ticket.
func (s *sequencer) cleared(t ticket) bool {
	return t.epoch != s.epoch
}

// settle forgets key once its latest mutation has been resolved.
func (s *sequencer) settle(t ticket) {
	if s.latest[t.key] == t.seq {
		delete(s.latest, t.key)
	}
}

// inFlight reports whether key has an unresolved mutation.
func (s *sequencer) inFlight(key string) bool {
	_, ok := s.latest[key]
	return ok
}

// reset invalidates every outstanding ticket.
func (s *sequencer) reset() {
	s.epoch++
	s.latest = make(map[string]uint64)
}
