package messaging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rotation(n int) []Message {
	msgs := make([]Message, n)
	for i := range msgs {
		msgs[i] = Message{Text: fmt.Sprintf("m%d", i)}
	}
	return msgs
}

func TestSchedulerRoundRobin(t *testing.T) {
	msgs := rotation(3)
	s := NewScheduler(msgs)

	// Calling Next N+k times must land on index k%N, in order.
	for call := 0; call < 10; call++ {
		got := s.Next()
		assert.Equal(t, msgs[call%3].Text, got.Text, "call %d", call)
	}
}

func TestSchedulerReset(t *testing.T) {
	s := NewScheduler(rotation(2))
	s.Next()
	s.Next()
	s.Next()
	s.Reset()
	assert.Equal(t, "m0", s.Next().Text)
}

func TestSchedulerPosition(t *testing.T) {
	s := NewScheduler(rotation(3))
	pos, total := s.Position()
	assert.Equal(t, 0, pos)
	assert.Equal(t, 3, total)

	s.Next()
	s.Next()
	pos, _ = s.Position()
	assert.Equal(t, 2, pos)

	s.Next()
	pos, _ = s.Position()
	assert.Equal(t, 0, pos, "position wraps around")
}

func TestSchedulerSingleMessage(t *testing.T) {
	s := NewScheduler(rotation(1))
	for i := 0; i < 5; i++ {
		assert.Equal(t, "m0", s.Next().Text)
	}
}
