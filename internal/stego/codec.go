// Package stego hides framed payloads in the least-significant bits of decoded carrier
// pixel samples and reads them back.
//
// One payload bit is stored per carrier byte, in carrier byte order, most significant
// payload bit first. The codec only ever sees raw samples: embedding into a compressed
// stream (such as PNG's deflate data) would not survive re-encoding.
package stego

import (
	"fmt"

	"github.com/gregriff/stegochat/internal/frame"
)

const bitsPerByte = 8

// CapacityError reports a payload that does not fit in its carrier.
type CapacityError struct {
	NeedBits int
	HaveBits int

	// MaxFrameBytes is the largest frame this carrier can hold.
	MaxFrameBytes int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("payload too large for carrier: need %d bits, carrier holds %d (max %d frame bytes)",
		e.NeedBits, e.HaveBits, e.MaxFrameBytes)
}

// Capacity returns the number of frame bytes a carrier of carrierLen bytes can hold.
func Capacity(carrierLen int) int {
	return carrierLen / bitsPerByte
}

// Embed returns a copy of carrier whose leading LSBs hold framed. Bytes past the last
// payload bit are left untouched, so the same carrier and frame always give the same output.
func Embed(carrier, framed []byte) ([]byte, error) {
	need := len(framed) * bitsPerByte
	if need > len(carrier) {
		return nil, &CapacityError{NeedBits: need, HaveBits: len(carrier), MaxFrameBytes: Capacity(len(carrier))}
	}

	out := make([]byte, len(carrier))
	copy(out, carrier)
	for i, b := range framed {
		base := i * bitsPerByte
		for j := 0; j < bitsPerByte; j++ {
			bit := (b >> (7 - j)) & 1
			out[base+j] = out[base+j]&0xFE | bit
		}
	}
	return out, nil
}

// Extract reads a frame back out of pixels. The header is read first; when its flag does
// not mark hidden data the single flag byte is returned without reading further. Otherwise
// exactly the declared body is read. maxFrameBytes caps the declared frame size; zero or
// less means the carrier size is the only limit.
func Extract(pixels []byte, maxFrameBytes int) ([]byte, error) {
	available := Capacity(len(pixels))
	if available < 1 {
		return nil, fmt.Errorf("%w: carrier holds no complete byte", frame.ErrTruncated)
	}

	flag := readByte(pixels, 0)
	if flag != frame.FlagPresent {
		return []byte{flag}, nil
	}
	if available < frame.HeaderSize {
		return nil, fmt.Errorf("%w: carrier holds %d bytes, header needs %d", frame.ErrTruncated, available, frame.HeaderSize)
	}

	header := readBytes(pixels, 0, frame.HeaderSize)
	total := uint64(frame.HeaderSize) + uint64(frame.DeclaredLength(header))
	if total > uint64(available) {
		return nil, fmt.Errorf("%w: declared frame of %d bytes exceeds carrier capacity %d", frame.ErrTruncated, total, available)
	}
	if maxFrameBytes > 0 && total > uint64(maxFrameBytes) {
		return nil, fmt.Errorf("%w: declared frame of %d bytes exceeds limit %d", frame.ErrTruncated, total, maxFrameBytes)
	}

	framed := make([]byte, total)
	copy(framed, header)
	copy(framed[frame.HeaderSize:], readBytes(pixels, frame.HeaderSize, int(total)-frame.HeaderSize))
	return framed, nil
}

// readByte assembles frame byte idx from carrier bytes idx*8 .. idx*8+7.
func readByte(pixels []byte, idx int) byte {
	var b byte
	base := idx * bitsPerByte
	for j := 0; j < bitsPerByte; j++ {
		b = b<<1 | pixels[base+j]&1
	}
	return b
}

func readBytes(pixels []byte, start, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = readByte(pixels, start+i)
	}
	return out
}
