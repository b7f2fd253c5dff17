package chainboot

import (
	"bytes"
	"fmt"
	"hash/crc32"
)

// sender is the transfer engine for one handshake-to-completion cycle. It
// is created after a ready signal and discarded when the transfer ends,
// whichever way it ends.
type sender struct {
	io        *protocolIO
	profile   Profile
	chunkSize int
	callbacks *Callbacks
	logger    Logger
	progress  *ProgressTracker
}

// send pushes the image to the device. The cursor into the image moves
// strictly forward from 0 to len(image); there is no retransmission and no
// windowing beyond the single in-flight chunk.
func (s *sender) send(image []byte) error {
	length := len(image)
	s.logger.Info("sending image size (%#x bytes)", length)

	var hdr [4]byte
	s.profile.byteOrder().PutUint32(hdr[:], uint32(length))
	if err := s.io.write(hdr[:]); err != nil {
		return err
	}

	if s.profile.hasSizeAck() {
		var ack [2]byte
		if err := s.io.readFull(ack[:]); err != nil {
			return err
		}
		if !bytes.Equal(ack[:], sizeAck) {
			return NewError(ErrNegotiation,
				fmt.Sprintf("device rejected size: got %q, want %q", ack[:], sizeAck))
		}
	}

	s.logger.Info("sending image...")
	s.progress.Start(int64(length))

	echo := make([]byte, s.chunkSize)
	for off := 0; off < length; off += s.chunkSize {
		end := off + s.chunkSize
		if end > length {
			end = length
		}
		chunk := image[off:end]

		if err := s.io.write(chunk); err != nil {
			return err
		}

		// The device echoes full-size chunks only. The final short
		// chunk goes out unverified; the device-side bootloader is
		// specified to behave the same way, so do not "fix" this.
		if s.profile.echoVerified() && len(chunk) == s.chunkSize {
			if err := s.io.readFull(echo); err != nil {
				return err
			}
			if !bytes.Equal(echo, chunk) {
				return NewOffsetError(ErrIntegrity,
					"chunk echo mismatch", int64(off))
			}
		}

		s.progress.Update(int64(end))
		s.callbacks.OnChunk(int64(off), len(chunk))
	}

	if s.profile.hasCRCTrailer() {
		var crc [4]byte
		s.profile.byteOrder().PutUint32(crc[:], crc32.ChecksumIEEE(image))
		if err := s.io.write(crc[:]); err != nil {
			return err
		}
	}

	if err := s.io.flush(); err != nil {
		return err
	}

	if s.profile.hasCompletionTag() {
		var tag [4]byte
		if err := s.io.readFull(tag[:]); err != nil {
			return err
		}
		if !bytes.Equal(tag[:], completionTag) {
			return NewError(ErrCompletion,
				fmt.Sprintf("unexpected completion tag %q", tag[:]))
		}
	}

	duration := s.progress.Complete()
	s.logger.Info("image sent (%d bytes in %v)", length, duration)
	return nil
}

// encodeLength returns the wire encoding of an image length under the
// given profile. Exposed for device-side counterparts and tests.
func encodeLength(profile Profile, length int) []byte {
	var hdr [4]byte
	profile.byteOrder().PutUint32(hdr[:], uint32(length))
	return hdr[:]
}
