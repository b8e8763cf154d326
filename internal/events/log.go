package events

import "sync"

// Log is one game's append-only event history. Appends happen in state
// version order under the game's own serialization, so the log's order is
// the version order.
type Log struct {
	mu      sync.RWMutex
	entries []Envelope
	byID    map[string]int
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{byID: make(map[string]int)}
}

// Append stores an envelope at the end of the log.
func (l *Log) Append(env Envelope) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID[env.EventID] = len(l.entries)
	l.entries = append(l.entries, env)
}

// ListAfter returns the suffix of the log following the named event. An
// empty or unknown id returns the entire log: a caller that lost its place
// needs a fresh baseline.
func (l *Log) ListAfter(afterEventID string) []Envelope {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if afterEventID != "" {
		if pos, ok := l.byID[afterEventID]; ok {
			start = pos + 1
		}
	}
	return append([]Envelope(nil), l.entries[start:]...)
}

// Len returns the number of stored envelopes.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
