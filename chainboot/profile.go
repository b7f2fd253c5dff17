package chainboot

import "encoding/binary"

// Profile selects one of the two wire variants the device bootloaders
// speak. The two variants share a single engine; the profile chooses the
// framing constants and the integrity strategy, so the state machines
// cannot drift apart.
type Profile int

const (
	// ProfileChainload is the handshake variant: repeated-break ready
	// signal, little-endian length header, "OK" size ack, per-chunk echo
	// verification and a 4-byte completion tag. This is the primary
	// protocol and the only one that supports a monitor session with
	// symbol lookups.
	ProfileChainload Profile = iota

	// ProfileOneShot is the degenerate variant: wait for any three bytes,
	// then send a big-endian length header, the raw image and a
	// big-endian CRC-32 trailer. No ack, no echo, no completion tag.
	ProfileOneShot
)

func (p Profile) String() string {
	switch p {
	case ProfileChainload:
		return "chainload"
	case ProfileOneShot:
		return "oneshot"
	default:
		return "unknown"
	}
}

// byteOrder returns the length-header byte order for the profile.
func (p Profile) byteOrder() binary.ByteOrder {
	if p == ProfileOneShot {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// echoVerified reports whether full-size chunks are echoed back by the
// device and must be verified.
func (p Profile) echoVerified() bool {
	return p == ProfileChainload
}

// hasSizeAck reports whether the device acknowledges the length header.
func (p Profile) hasSizeAck() bool {
	return p == ProfileChainload
}

// hasCompletionTag reports whether the device sends a completion tag after
// the image.
func (p Profile) hasCompletionTag() bool {
	return p == ProfileChainload
}

// hasCRCTrailer reports whether the host appends a CRC-32 of the image.
func (p Profile) hasCRCTrailer() bool {
	return p == ProfileOneShot
}
