package sim

import (
	"encoding/binary"
	"sync"

	max3100 "github.com/allbin/go-max3100"
)

// Script replies with a fixed sequence of words, then with Idle.
// It records what was sent.
type Script struct {
	mu      sync.Mutex
	Replies []max3100.Word
	Idle    max3100.Word
	sent    []max3100.Word
	closed  int
}

var _ max3100.Transport = (*Script)(nil)

// NewScript returns a script that answers with replies in order.
func NewScript(replies ...max3100.Word) *Script {
	return &Script{Replies: replies}
}

func (s *Script) Transfer(tx, rx []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i+1 < len(tx); i += 2 {
		s.sent = append(s.sent, max3100.Word(binary.BigEndian.Uint16(tx[i:])))
		reply := s.Idle
		if len(s.Replies) > 0 {
			reply, s.Replies = s.Replies[0], s.Replies[1:]
		}
		binary.BigEndian.PutUint16(rx[i:], uint16(reply))
	}
	return nil
}

func (s *Script) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// Sent returns the words received so far.
func (s *Script) Sent() []max3100.Word {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]max3100.Word(nil), s.sent...)
}

// Closes returns how many times Close was called.
func (s *Script) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
