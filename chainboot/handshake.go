package chainboot

// awaitReady blocks until the device signals that it is ready for an
// image. Reads have no timeout; a device that never boots simply keeps the
// host waiting, which is the only "device unresponsive" signal the
// protocol has.
//
// Chainload profile: exactly BreakCount consecutive break bytes with
// nothing interleaved. Any other byte resets the run, so garbage emitted
// during device power-on cannot accumulate into a ready signal.
//
// One-shot profile: any three bytes.
func awaitReady(io *protocolIO, profile Profile) error {
	if profile == ProfileOneShot {
		var preamble [oneShotPreambleLen]byte
		return io.readFull(preamble[:])
	}

	breaks := 0
	for breaks < BreakCount {
		b, err := io.readByte()
		if err != nil {
			return err
		}
		if b == BreakByte {
			breaks++
		} else {
			breaks = 0
		}
	}
	return nil
}
