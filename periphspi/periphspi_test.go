package periphspi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/spi/spitest"

	max3100 "github.com/allbin/go-max3100"
)

func TestPortName(t *testing.T) {
	if got := PortName(0, 1); got != "SPI0.1" {
		t.Errorf("PortName(0, 1) = %s, expected SPI0.1", got)
	}
}

func TestDeviceOverPlayback(t *testing.T) {
	// open writes the 9600 baud X2 config word, then a single-miss pump
	// receives 'h' and sees the line go quiet
	pb := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{W: []byte{0xCC, 0x0B}, R: []byte{0x00, 0x00}},
				{W: []byte{0x00, 0x00}, R: []byte{0x80, 'h'}},
				{W: []byte{0x00, 0x00}, R: []byte{0x00, 0x00}},
			},
		},
	}

	tr, err := Connect(pb, pb, 1000000)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if tr.BitsPerWord() != 8 || tr.MaxSpeedHz() != 1000000 {
		t.Errorf("bus info = %d bits %d Hz", tr.BitsPerWord(), tr.MaxSpeedHz())
	}

	dev, err := max3100.Open(0, 0, max3100.WithTransport(tr), max3100.WithMaxMisses(1))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	got, err := dev.Receive(0)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if diff := cmp.Diff([]byte("h"), got); diff != "" {
		t.Errorf("Receive(0) mismatch (-want +got):\n%s", diff)
	}

	if err := dev.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
