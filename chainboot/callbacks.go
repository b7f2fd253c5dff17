package chainboot

import "time"

// Callbacks provides hooks for session events.
// All callbacks are optional - nil callbacks use default behavior.
type Callbacks struct {
	// OnReady is called when the device's ready signal is detected.
	OnReady func()

	// OnTransferStart is called before the length header is sent.
	OnTransferStart func(size int64)

	// OnProgress is called periodically during the transfer.
	// transferred: bytes transferred so far
	// total: total bytes to transfer
	// rate: transfer rate in bytes per second
	OnProgress func(transferred, total int64, rate float64)

	// OnChunk is called after each chunk has been sent (and, for full
	// chunks on the chainload profile, echo-verified).
	OnChunk func(offset int64, size int)

	// OnTransferComplete is called when the device confirms the image.
	OnTransferComplete func(size int64, duration time.Duration)

	// OnError is called when a session fails. recoverable reports
	// whether the run loop will resume waiting for the next ready
	// signal.
	OnError func(err error, recoverable bool)

	// OnMonitorStart is called when the monitor session begins.
	OnMonitorStart func()
}

// defaultCallbacks returns a set of callbacks with default implementations.
func defaultCallbacks() *Callbacks {
	return &Callbacks{
		OnReady:            func() {},
		OnTransferStart:    func(int64) {},
		OnProgress:         func(int64, int64, float64) {},
		OnChunk:            func(int64, int) {},
		OnTransferComplete: func(int64, time.Duration) {},
		OnError:            func(error, bool) {},
		OnMonitorStart:     func() {},
	}
}

// mergeCallbacks merges user callbacks with defaults.
// User callbacks override defaults, nil callbacks use defaults.
func mergeCallbacks(user *Callbacks) *Callbacks {
	def := defaultCallbacks()
	if user == nil {
		return def
	}

	result := &Callbacks{}

	if user.OnReady != nil {
		result.OnReady = user.OnReady
	} else {
		result.OnReady = def.OnReady
	}

	if user.OnTransferStart != nil {
		result.OnTransferStart = user.OnTransferStart
	} else {
		result.OnTransferStart = def.OnTransferStart
	}

	if user.OnProgress != nil {
		result.OnProgress = user.OnProgress
	} else {
		result.OnProgress = def.OnProgress
	}

	if user.OnChunk != nil {
		result.OnChunk = user.OnChunk
	} else {
		result.OnChunk = def.OnChunk
	}

	if user.OnTransferComplete != nil {
		result.OnTransferComplete = user.OnTransferComplete
	} else {
		result.OnTransferComplete = def.OnTransferComplete
	}

	if user.OnError != nil {
		result.OnError = user.OnError
	} else {
		result.OnError = def.OnError
	}

	if user.OnMonitorStart != nil {
		result.OnMonitorStart = user.OnMonitorStart
	} else {
		result.OnMonitorStart = def.OnMonitorStart
	}

	return result
}
