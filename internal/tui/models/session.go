package models

import (
	"context"
	"sync"

	max3100 "github.com/allbin/go-max3100"
	"github.com/allbin/go-max3100/internal/tui/components"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	if m == InputModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

// DeviceStatusMsg reports the outcome of opening the device.
type DeviceStatusMsg struct {
	Open  bool
	Error error
}

// Session is the state shared by the console and its receive goroutine.
type Session struct {
	dev     *max3100.Device
	traffic []components.DataMsg
	nextID  int
	err     error
	ready   bool
	mode    InputMode

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
}

func NewSession() *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{ctx: ctx, cancel: cancel}
}

func (s *Session) Device() *max3100.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dev
}

func (s *Session) SetDevice(dev *max3100.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dev = dev
}

func (s *Session) IsOpen() bool {
	dev := s.Device()
	return dev != nil && dev.IsOpen()
}

func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Session) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Session) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Session) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// Traffic returns a copy of everything shown so far.
func (s *Session) Traffic() []components.DataMsg {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]components.DataMsg, len(s.traffic))
	copy(out, s.traffic)
	return out
}

// Add appends msg, assigning an ID to TX chunks so their status can be
// updated later.
func (s *Session) Add(msg components.DataMsg) components.DataMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Dir == components.TX && msg.ID == 0 {
		s.nextID++
		msg.ID = s.nextID
	}
	s.traffic = append(s.traffic, msg)
	return msg
}

// SetStatus updates the TX chunk with the given ID. It reports false when
// the chunk is gone, for example after the screen was cleared.
func (s *Session) SetStatus(id int, status components.SendStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.traffic) - 1; i >= 0; i-- {
		if s.traffic[i].Dir == components.TX && s.traffic[i].ID == id {
			s.traffic[i].Status = status
			return true
		}
	}
	return false
}

func (s *Session) ClearTraffic() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traffic = nil
}

func (s *Session) Mode() InputMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Session) SetMode(mode InputMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

func (s *Session) IsInsert() bool { return s.Mode() == InputModeInsert }

func (s *Session) Context() context.Context { return s.ctx }

// Close stops the receive goroutine and closes the device.
func (s *Session) Close() error {
	s.cancel()

	s.mu.Lock()
	dev := s.dev
	s.dev = nil
	s.mu.Unlock()

	if dev == nil {
		return nil
	}
	return dev.Close()
}
