package messaging

import "sync"

// Scheduler hands out messages in deterministic round-robin order. Random
// picking would skew coverage over a long contact list and make runs
// impossible to reproduce in tests.
type Scheduler struct {
	mu       sync.Mutex
	messages []Message
	index    int
}

func NewScheduler(messages []Message) *Scheduler {
	msgs := make([]Message, len(messages))
	copy(msgs, messages)
	return &Scheduler{messages: msgs}
}

// Next returns the message at the current cyclic position and advances.
func (s *Scheduler) Next() Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.messages[s.index%len(s.messages)]
	s.index++
	return msg
}

// Reset rewinds the rotation to the first message.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.index = 0
	s.mu.Unlock()
}

// Position reports the current cyclic position and the total message count,
// for status display.
func (s *Scheduler) Position() (position, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index % len(s.messages), len(s.messages)
}
