package max3100

import "context"

// exchange sends one word and returns the reply. Callers hold d.mu.
func (d *Device) exchange(op string, w Word) (Word, error) {
	reply, err := exchange16(d.t, w)
	d.stats.Exchanges++
	if err != nil {
		d.log.Debug("exchange failed", "op", op, "send", w, "error", err)
		return 0, newError(KindTransport, op, err)
	}
	d.log.Debug("exchange", "op", op, "send", w, "recv", reply)
	return reply, nil
}

// store appends a received byte to the ring.
func (d *Device) store(op string, b byte) error {
	if err := d.rx.put(b); err != nil {
		d.stats.Overruns++
		d.log.Warn("receive overrun", "op", op, "buffered", d.rx.len())
		return newError(KindOverrun, op, err)
	}
	d.stats.BytesReceived++
	return nil
}

// pump drains the chip until MaxMisses read-data polls in a row come back
// without the R flag.
func (d *Device) pump(op string) error {
	d.stats.Pumps++
	misses, stored := 0, 0
	for misses < d.config.MaxMisses {
		reply, err := d.exchange(op, Encode(CmdReadData, 0))
		if err != nil {
			return err
		}
		if !reply.Received() {
			misses++
			d.stats.Misses++
			continue
		}
		if err := d.store(op, reply.Data()); err != nil {
			return err
		}
		stored++
		misses = 0
	}
	if stored > 0 {
		d.log.Debug("pump", "op", op, "stored", stored, "buffered", d.rx.len())
	}
	return nil
}

// putByte waits for the transmit register to empty, draining any received
// bytes meanwhile, then sends b. The lock is held per status poll only.
// sent is true once b is on the wire, even when err is set.
func (d *Device) putByte(ctx context.Context, op string, b byte) (sent bool, err error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		sent, err = d.trySend(op, b)
		if err != nil || sent {
			return sent, err
		}
	}
}

func (d *Device) trySend(op string, b byte) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(op); err != nil {
		return false, err
	}

	status, err := d.exchange(op, Encode(CmdReadConfig, 0))
	if err != nil {
		return false, err
	}
	if status.Received() {
		return false, d.pump(op)
	}
	if !status.TransmitEmpty() {
		return false, nil
	}

	reply, err := d.exchange(op, DataWord(b))
	if err != nil {
		return false, err
	}
	d.stats.BytesSent++
	if reply.Received() {
		if err := d.store(op, reply.Data()); err != nil {
			return true, err
		}
		return true, d.pump(op)
	}
	return true, nil
}
