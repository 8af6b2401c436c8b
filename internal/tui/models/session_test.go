package models

import (
	"testing"
	"time"

	max3100 "github.com/allbin/go-max3100"
	"github.com/allbin/go-max3100/internal/sim"
	"github.com/allbin/go-max3100/internal/tui/components"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTrafficIDs(t *testing.T) {
	s := NewSession()

	rx := s.Add(components.DataMsg{Timestamp: time.Now(), Data: []byte("a"), Dir: components.RX})
	assert.Zero(t, rx.ID, "received chunks carry no id")

	tx1 := s.Add(components.DataMsg{Data: []byte("b"), Dir: components.TX, Status: components.SendPending})
	tx2 := s.Add(components.DataMsg{Data: []byte("c"), Dir: components.TX, Status: components.SendPending})
	assert.Equal(t, 1, tx1.ID)
	assert.Equal(t, 2, tx2.ID)

	require.True(t, s.SetStatus(tx1.ID, components.SendDone))
	traffic := s.Traffic()
	require.Len(t, traffic, 3)
	assert.Equal(t, components.SendDone, traffic[1].Status)
	assert.Equal(t, components.SendPending, traffic[2].Status)

	s.ClearTraffic()
	assert.False(t, s.SetStatus(tx2.ID, components.SendFailed))
	assert.Empty(t, s.Traffic())
}

func TestSessionInputMode(t *testing.T) {
	s := NewSession()
	assert.Equal(t, InputModeNormal, s.Mode())
	assert.Equal(t, "NORMAL", s.Mode().String())

	s.SetMode(InputModeInsert)
	assert.True(t, s.IsInsert())
	assert.Equal(t, "INSERT", s.Mode().String())
}

func TestSessionClose(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Close(), "closing without a device")

	chip := sim.New()
	dev, err := max3100.Open(0, 0, max3100.WithTransport(chip))
	require.NoError(t, err)

	s = NewSession()
	s.SetDevice(dev)
	assert.True(t, s.IsOpen())

	require.NoError(t, s.Close())
	assert.False(t, s.IsOpen())
	assert.False(t, dev.IsOpen())
	assert.True(t, chip.Closed())
	assert.Error(t, s.Context().Err())
}
