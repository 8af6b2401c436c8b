package max3100_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	max3100 "github.com/allbin/go-max3100"
	"github.com/allbin/go-max3100/internal/sim"
)

func openSim(t *testing.T, chip *sim.Chip, opts ...max3100.Option) *max3100.Device {
	t.Helper()
	opts = append([]max3100.Option{max3100.WithTransport(chip)}, opts...)
	dev, err := max3100.Open(0, 0, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })
	return dev
}

func TestOpenSendsConfigWord(t *testing.T) {
	chip := sim.New()
	dev := openSim(t, chip, max3100.WithBaudRate(115200), max3100.WithCrystal(max3100.X1))

	require.Equal(t, max3100.Word(0xCC00), chip.Config())
	require.Equal(t, max3100.Word(0xCC00), dev.ConfigWord())
	require.Equal(t, uint8(8), dev.BitsPerWord())
	require.Equal(t, uint32(max3100.DefaultMaxSpeedHz), dev.MaxSpeedHz())
	require.Equal(t, uint64(1), dev.Stats().Exchanges)
	require.True(t, dev.IsOpen())
}

func TestOpenUnsupportedBaudFallsBack(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	chip := sim.New()
	openSim(t, chip, max3100.WithBaudRate(31337), max3100.WithLogger(logger))

	require.Equal(t, max3100.ConfigWord(max3100.X2, 9600), chip.Config())
	require.Contains(t, logs.String(), "unsupported baud rate")
}

func TestOpenErrors(t *testing.T) {
	t.Run("bad option", func(t *testing.T) {
		var dev max3100.Device
		err := dev.Open(0, 0, max3100.WithMaxMisses(0))
		require.ErrorIs(t, err, max3100.ErrInvalidArgument)
		require.ErrorIs(t, err, max3100.ErrInvalidConfig)
		require.False(t, dev.IsOpen())
	})

	t.Run("opener failure", func(t *testing.T) {
		eio := errors.New("no such bus")
		opener := max3100.OpenerFunc(func(int, int, uint32) (max3100.Transport, error) { return nil, eio })
		_, err := max3100.Open(3, 1, max3100.WithOpener(opener))
		require.ErrorIs(t, err, max3100.ErrTransport)
		require.ErrorIs(t, err, eio)
	})

	t.Run("config write failure closes transport", func(t *testing.T) {
		chip := sim.New()
		chip.FailAfter(0, errors.New("bus fault"))
		_, err := max3100.Open(0, 0, max3100.WithTransport(chip))
		require.ErrorIs(t, err, max3100.ErrTransport)
		require.True(t, chip.Closed())
	})

	t.Run("already open", func(t *testing.T) {
		dev := openSim(t, sim.New())
		err := dev.Open(0, 0, max3100.WithTransport(sim.New()))
		require.ErrorIs(t, err, max3100.ErrInvalidState)
		require.ErrorIs(t, err, max3100.ErrAlreadyOpen)
	})
}

func TestClosedDevice(t *testing.T) {
	var dev max3100.Device

	_, err := dev.Write([]byte("x"))
	require.ErrorIs(t, err, max3100.ErrInvalidState)
	_, err = dev.Receive(0)
	require.ErrorIs(t, err, max3100.ErrInvalidState)
	_, err = dev.Read(make([]byte, 1))
	require.ErrorIs(t, err, max3100.ErrInvalidState)
	_, err = dev.Available()
	require.ErrorIs(t, err, max3100.ErrInvalidState)
	require.ErrorIs(t, dev.Clear(), max3100.ErrInvalidState)
	_, err = dev.Fd()
	require.ErrorIs(t, err, max3100.ErrDeviceClosed)

	require.NoError(t, dev.Close())
	require.Zero(t, dev.ConfigWord())
	require.Zero(t, dev.BitsPerWord())
	require.Equal(t, "max3100(closed)", dev.String())
}

func TestCloseIsIdempotentAndReopen(t *testing.T) {
	chip := sim.New()
	var dev max3100.Device
	require.NoError(t, dev.Open(0, 0, max3100.WithTransport(chip)))
	require.NoError(t, dev.Close())
	require.NoError(t, dev.Close())
	require.True(t, chip.Closed())
	require.Zero(t, dev.ConfigWord())

	_, err := dev.Available()
	require.ErrorIs(t, err, max3100.ErrDeviceClosed)

	require.NoError(t, dev.Open(0, 1, max3100.WithTransport(sim.New())))
	n, err := dev.Available()
	require.NoError(t, err)
	require.Zero(t, n)
	require.NoError(t, dev.Close())
}

func TestWriteThenReadLoopback(t *testing.T) {
	chip := sim.New(sim.WithLoopback(), sim.WithTxLatency(2))
	dev := openSim(t, chip)

	payload := []byte("hello, max3100")
	n, err := dev.Write(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, chip.Sent())

	got, err := dev.Receive(len(payload))
	require.NoError(t, err)
	if diff := cmp.Diff(payload, got); diff != "" {
		t.Errorf("Receive mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, uint64(len(payload)), dev.Stats().BytesSent)
}

func TestAvailableAndClear(t *testing.T) {
	chip := sim.New()
	dev := openSim(t, chip)

	chip.Inject([]byte("0123456789"))
	n, err := dev.Available()
	require.NoError(t, err)
	require.Equal(t, 10, n)

	require.NoError(t, dev.Clear())
	n, err = dev.Available()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestClearPumpsBeforeReset(t *testing.T) {
	chip := sim.New()
	dev := openSim(t, chip)

	chip.Inject([]byte("stale"))
	require.NoError(t, dev.Clear())
	require.Zero(t, chip.Pending(), "clear must drain the chip")

	got, err := dev.Receive(0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestReceiveNonBlocking(t *testing.T) {
	chip := sim.New()
	dev := openSim(t, chip)

	got, err := dev.Receive(0)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = dev.Receive(-5)
	require.NoError(t, err)
	require.Empty(t, got)

	chip.Inject([]byte("abcdefghij"))
	got, err = dev.Receive(-3)
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))

	got, err = dev.Receive(-100)
	require.NoError(t, err)
	require.Equal(t, "defghij", string(got))

	chip.Inject([]byte("xyz"))
	got, err = dev.Receive(0)
	require.NoError(t, err)
	require.Equal(t, "xyz", string(got))

	chip.Inject([]byte("xy"))
	got, err = dev.Receive(math.MinInt)
	require.NoError(t, err)
	require.Equal(t, "xy", string(got), "math.MinInt has no limit")
}

func TestReceiveBlocksForExactLength(t *testing.T) {
	// bytes trickle in slower than a single pump can collect them
	chip := sim.New(sim.WithGap(25))
	dev := openSim(t, chip, max3100.WithMaxMisses(3))

	chip.Inject([]byte("slow bytes"))
	got, err := dev.Receive(4)
	require.NoError(t, err)
	require.Equal(t, "slow", string(got))

	got, err = dev.Receive(6)
	require.NoError(t, err)
	require.Equal(t, " bytes", string(got))
}

func TestReceiveContextCancel(t *testing.T) {
	chip := sim.New()
	dev := openSim(t, chip)
	chip.Inject([]byte("ab"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := dev.ReceiveContext(ctx, 5)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, "ab", string(got), "collected bytes are returned with the error")
}

func TestReceiveContextHugeLength(t *testing.T) {
	chip := sim.New()
	dev := openSim(t, chip)
	chip.Inject([]byte("ab"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := dev.ReceiveContext(ctx, math.MaxInt)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, "ab", string(got))
}

func TestReadWaitsForData(t *testing.T) {
	chip := sim.New(sim.WithGap(40))
	dev := openSim(t, chip, max3100.WithMaxMisses(2))
	chip.Inject([]byte("ok"))

	buf := make([]byte, 16)
	n, err := dev.Read(buf)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 1)

	rest, err := io.ReadAll(io.LimitReader(dev, int64(2-n)))
	require.NoError(t, err)
	require.Equal(t, "ok", string(buf[:n])+string(rest))

	n, err = dev.Read(nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestReadContextCancel(t *testing.T) {
	dev := openSim(t, sim.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := dev.ReadContext(ctx, make([]byte, 1))
	require.ErrorIs(t, err, context.Canceled)
}

func TestOverrun(t *testing.T) {
	chip := sim.New()
	dev := openSim(t, chip, max3100.WithBufferSize(4))

	chip.Inject([]byte{1, 2, 3, 4, 5})
	_, err := dev.Available()
	require.ErrorIs(t, err, max3100.ErrOverrun)
	require.Equal(t, max3100.KindOverrun, max3100.KindOf(err))
	require.Equal(t, uint64(1), dev.Stats().Overruns)

	// the next pump still finds byte 5 on the chip
	_, err = dev.Receive(-10)
	require.ErrorIs(t, err, max3100.ErrOverrun)
	require.Equal(t, uint64(2), dev.Stats().Overruns)

	got, err := dev.Receive(-10)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)
}

func TestOccupancyNeverExceedsCapacity(t *testing.T) {
	chip := sim.New()
	dev := openSim(t, chip, max3100.WithBufferSize(8))

	chip.Inject([]byte("1234567"))
	n, err := dev.Available()
	require.NoError(t, err)
	require.Equal(t, 7, n)

	got, err := dev.Receive(-3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	chip.Inject([]byte("abc"))
	n, err = dev.Available()
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func TestWriteKeepsBytesReceivedMeanwhile(t *testing.T) {
	script := sim.NewScript(
		0,                 // write-config
		max3100.FlagR,     // read-config: data waiting
		max3100.FlagR|'a', // pump: read-data
		0,                 // pump: miss
		max3100.FlagT,     // read-config: transmitter ready
		max3100.FlagR|'b', // write-data reply carries a byte
		0,                 // pump: miss
	)
	dev, err := max3100.Open(0, 0, max3100.WithTransport(script), max3100.WithMaxMisses(1))
	require.NoError(t, err)
	defer dev.Close()

	require.NoError(t, dev.WriteByte('Z'))

	want := []max3100.Word{
		max3100.ConfigWord(max3100.X2, 9600),
		max3100.Word(max3100.CmdReadConfig),
		max3100.Word(max3100.CmdReadData),
		max3100.Word(max3100.CmdReadData),
		max3100.Word(max3100.CmdReadConfig),
		max3100.DataWord('Z'),
		max3100.Word(max3100.CmdReadData),
	}
	if diff := cmp.Diff(want, script.Sent()); diff != "" {
		t.Errorf("sent words mismatch (-want +got):\n%s", diff)
	}

	n, err := dev.Available()
	require.NoError(t, err)
	require.Equal(t, 2, n)
	got, err := dev.Receive(2)
	require.NoError(t, err)
	require.Equal(t, "ab", string(got))
}

func TestWriteCountsByteOnWireBeforeOverrun(t *testing.T) {
	script := sim.NewScript(
		0,                 // write-config
		max3100.FlagT,     // read-config: ready for 'P'
		max3100.FlagR|'a', // write-data reply fills the ring
		0,                 // pump: miss
		max3100.FlagT,     // read-config: ready for 'Q'
		max3100.FlagR|'b', // write-data reply overruns
	)
	dev, err := max3100.Open(0, 0, max3100.WithTransport(script),
		max3100.WithBufferSize(2), max3100.WithMaxMisses(1))
	require.NoError(t, err)
	defer dev.Close()

	n, err := dev.Write([]byte("PQ"))
	require.ErrorIs(t, err, max3100.ErrOverrun)
	require.Equal(t, 2, n, "Q went out before the overrun")

	var data []byte
	for _, w := range script.Sent() {
		if w.Command() == max3100.CmdWriteData {
			data = append(data, w.Data())
		}
	}
	require.Equal(t, "PQ", string(data))
	st := dev.Stats()
	require.Equal(t, uint64(2), st.BytesSent)
	require.Equal(t, uint64(1), st.Overruns)
}

func TestTransportOptionIsSingleUse(t *testing.T) {
	chip := sim.New()
	opt := max3100.WithTransport(chip)

	var dev max3100.Device
	require.NoError(t, dev.Open(0, 0, opt))
	require.NoError(t, dev.Close())

	err := dev.Open(0, 0, opt)
	require.ErrorIs(t, err, max3100.ErrTransport)
	require.ErrorIs(t, err, sim.ErrClosed)
	require.False(t, dev.IsOpen())
}

func TestPumpStopsAfterConsecutiveMisses(t *testing.T) {
	script := sim.NewScript(
		0, // write-config
		max3100.FlagR|1, 0, 0,
		max3100.FlagR|2, 0, 0,
		max3100.FlagR|3, 0, 0, 0,
		max3100.FlagR|4, // never polled
	)
	dev, err := max3100.Open(0, 0, max3100.WithTransport(script), max3100.WithMaxMisses(3))
	require.NoError(t, err)
	defer dev.Close()

	got, err := dev.Receive(0)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)
	require.Len(t, script.Sent(), 11)

	st := dev.Stats()
	require.Equal(t, uint64(1), st.Pumps)
	require.Equal(t, uint64(7), st.Misses)
	require.Equal(t, uint64(3), st.BytesReceived)
}

func TestTransportErrorNotRetried(t *testing.T) {
	chip := sim.New()
	dev := openSim(t, chip)

	eio := errors.New("spi bus fault")
	chip.FailAfter(0, eio)
	before := len(chip.Words())

	_, err := dev.Write([]byte("abc"))
	require.ErrorIs(t, err, max3100.ErrTransport)
	require.ErrorIs(t, err, eio)
	require.Len(t, chip.Words(), before, "failed exchange must not be retried")

	// the handle stays open
	require.True(t, dev.IsOpen())
	_, err = dev.Write([]byte("abc"))
	require.NoError(t, err)
}

func TestWriteValues(t *testing.T) {
	chip := sim.New()
	dev := openSim(t, chip)
	before := len(chip.Words())

	tests := []struct {
		name   string
		values []int
	}{
		{"empty", nil},
		{"negative", []int{65, -1}},
		{"too large", []int{65, 66, 256}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := dev.WriteValues(tt.values)
			require.ErrorIs(t, err, max3100.ErrInvalidArgument)
			require.Len(t, chip.Words(), before, "nothing may be sent")
		})
	}

	require.NoError(t, dev.WriteValues([]int{0, 72, 255}))
	require.Equal(t, []byte{0, 72, 255}, chip.Sent())
}

func TestWriteContextTransmitterStuck(t *testing.T) {
	// T never comes up
	script := sim.NewScript()
	dev, err := max3100.Open(0, 0, max3100.WithTransport(script))
	require.NoError(t, err)
	defer dev.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	n, err := dev.WriteContext(ctx, []byte("x"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, n)
	for _, w := range script.Sent() {
		require.NotEqual(t, max3100.CmdWriteData, w.Command())
	}
}

type fdTransport struct{ *sim.Chip }

func (fdTransport) Fd() int { return 42 }

func TestFd(t *testing.T) {
	dev := openSim(t, sim.New())
	_, err := dev.Fd()
	require.ErrorIs(t, err, max3100.ErrNoFd)

	withFd, err := max3100.Open(0, 0, max3100.WithTransport(fdTransport{sim.New()}))
	require.NoError(t, err)
	defer withFd.Close()
	fd, err := withFd.Fd()
	require.NoError(t, err)
	require.Equal(t, 42, fd)
}

func TestDebugTrace(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	chip := sim.New()
	dev := openSim(t, chip, max3100.WithLogger(logger), max3100.WithMaxMisses(1))
	chip.Inject([]byte{'k'})
	_, err := dev.Available()
	require.NoError(t, err)

	out := logs.String()
	require.Contains(t, out, "msg=opened")
	require.Contains(t, out, "send=\"00000000 00000000\"")
	require.True(t, strings.Contains(out, "stored=1"), out)
}

func TestConcurrentReadWrite(t *testing.T) {
	chip := sim.New(sim.WithLoopback())
	dev := openSim(t, chip)

	payload := bytes.Repeat([]byte("0123456789"), 20)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, b := range payload {
			if err := dev.WriteByte(b); err != nil {
				t.Errorf("WriteByte failed: %v", err)
				return
			}
		}
	}()

	got, err := dev.Receive(len(payload))
	wg.Wait()
	require.NoError(t, err)
	require.Equal(t, payload, got)
}
