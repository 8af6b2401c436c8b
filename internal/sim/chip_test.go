package sim

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	max3100 "github.com/allbin/go-max3100"
)

func xfer(t *testing.T, tr max3100.Transport, w max3100.Word) max3100.Word {
	t.Helper()
	var tx, rx [2]byte
	binary.BigEndian.PutUint16(tx[:], uint16(w))
	require.NoError(t, tr.Transfer(tx[:], rx[:]))
	return max3100.Word(binary.BigEndian.Uint16(rx[:]))
}

func TestChipReceive(t *testing.T) {
	c := New()
	c.Inject([]byte("ab"))

	r := xfer(t, c, max3100.Word(max3100.CmdReadData))
	require.True(t, r.Received())
	require.Equal(t, byte('a'), r.Data())

	r = xfer(t, c, max3100.Word(max3100.CmdReadData))
	require.True(t, r.Received())
	require.Equal(t, byte('b'), r.Data())

	r = xfer(t, c, max3100.Word(max3100.CmdReadData))
	require.False(t, r.Received())
	require.Zero(t, c.Pending())
}

func TestChipGap(t *testing.T) {
	c := New(WithGap(2))
	c.Inject([]byte{0x42})

	require.False(t, xfer(t, c, 0).Received())
	require.False(t, xfer(t, c, 0).Received())
	r := xfer(t, c, 0)
	require.True(t, r.Received())
	require.Equal(t, byte(0x42), r.Data())
}

func TestChipStatusDoesNotConsume(t *testing.T) {
	c := New()
	c.Inject([]byte{'x'})

	status := xfer(t, c, max3100.Word(max3100.CmdReadConfig))
	require.True(t, status.Received())
	require.True(t, status.TransmitEmpty())
	require.Equal(t, 1, c.Pending())

	r := xfer(t, c, max3100.Word(max3100.CmdReadData))
	require.Equal(t, byte('x'), r.Data())
}

func TestChipTxLatency(t *testing.T) {
	c := New(WithTxLatency(2))

	xfer(t, c, max3100.DataWord('z'))
	require.False(t, xfer(t, c, max3100.Word(max3100.CmdReadConfig)).TransmitEmpty())
	require.False(t, xfer(t, c, max3100.Word(max3100.CmdReadConfig)).TransmitEmpty())
	require.True(t, xfer(t, c, max3100.Word(max3100.CmdReadConfig)).TransmitEmpty())
	require.Equal(t, []byte("z"), c.Sent())
}

func TestChipLoopback(t *testing.T) {
	c := New(WithLoopback())

	xfer(t, c, max3100.DataWord(0x55))
	r := xfer(t, c, max3100.Word(max3100.CmdReadData))
	require.True(t, r.Received())
	require.Equal(t, byte(0x55), r.Data())
}

func TestChipWriteDataCarriesReceivedByte(t *testing.T) {
	c := New()
	c.Inject([]byte{0x11})

	r := xfer(t, c, max3100.DataWord(0x22))
	require.True(t, r.Received())
	require.Equal(t, byte(0x11), r.Data())
	require.Equal(t, []byte{0x22}, c.Sent())
}

func TestChipLossy(t *testing.T) {
	c := New(WithLossy())
	c.Inject([]byte{1, 2, 3})

	// three status polls: byte 1 lands, 2 and 3 are lost
	for range 3 {
		xfer(t, c, max3100.Word(max3100.CmdReadConfig))
	}
	require.Equal(t, 2, c.Dropped())
	r := xfer(t, c, max3100.Word(max3100.CmdReadData))
	require.Equal(t, byte(1), r.Data())
}

func TestChipConfig(t *testing.T) {
	c := New()
	word := max3100.ConfigWord(max3100.X2, 115200)
	xfer(t, c, word)
	require.Equal(t, word, c.Config())
	require.Equal(t, []max3100.Word{word}, c.Words())
}

func TestChipWriteConfigDiscardsHeldByte(t *testing.T) {
	c := New()
	c.Inject([]byte("ab"))

	xfer(t, c, max3100.ConfigWord(max3100.X2, 9600))
	require.Equal(t, 1, c.Pending(), "the held 'a' is lost")

	r := xfer(t, c, max3100.Word(max3100.CmdReadData))
	require.True(t, r.Received())
	require.Equal(t, byte('b'), r.Data())
}

func TestChipFailAfter(t *testing.T) {
	boom := errors.New("boom")
	c := New()
	c.FailAfter(1, boom)

	xfer(t, c, 0)
	var tx, rx [2]byte
	require.ErrorIs(t, c.Transfer(tx[:], rx[:]), boom)
	require.NoError(t, c.Transfer(tx[:], rx[:]))
}

func TestChipClose(t *testing.T) {
	c := New()
	require.NoError(t, c.Close())
	require.True(t, c.Closed())
	require.ErrorIs(t, c.Close(), ErrClosed)

	var tx, rx [2]byte
	require.ErrorIs(t, c.Transfer(tx[:], rx[:]), ErrClosed)
}

func TestChipRejectsOddTransfer(t *testing.T) {
	c := New()
	require.Error(t, c.Transfer(make([]byte, 3), make([]byte, 3)))
}

func TestScript(t *testing.T) {
	s := NewScript(max3100.FlagR|'q', 0)
	s.Idle = max3100.FlagT

	require.Equal(t, max3100.FlagR|'q', xfer(t, s, 0x1234))
	require.Equal(t, max3100.Word(0), xfer(t, s, 0))
	require.Equal(t, max3100.FlagT, xfer(t, s, 0))
	require.Equal(t, []max3100.Word{0x1234, 0, 0}, s.Sent())

	require.NoError(t, s.Close())
	require.Equal(t, 1, s.Closes())
}
