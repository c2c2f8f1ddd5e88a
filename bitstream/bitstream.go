// Package bitstream serializes H.264 syntax elements bit by bit.
//
// The Writer implements the fixed-width and Exponential-Golomb codings
// used by parameter-set and slice-header syntax, decoupled from the
// destination: the encoder engine sinks bits into the hardware's
// bit-level write port, tests sink them into a byte buffer.
package bitstream

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrBitCount indicates a PutBits call outside the 1..32 bit range.
var ErrBitCount = errors.New("bit count out of range")

// Sink receives serialized bits.
type Sink interface {
	// PutBits appends the low count bits of value, most significant
	// first.
	PutBits(value uint32, count int) error

	// BitLen reports the total number of bits written so far, used for
	// byte-alignment padding.
	BitLen() int
}

// Writer emits syntax elements into a Sink.
//
// Errors stick: after a failed emission every further call is a no-op
// and Err returns the first failure.
type Writer struct {
	sink Sink
	err  error
}

// NewWriter creates a writer over the sink.
func NewWriter(sink Sink) *Writer {
	return &Writer{sink: sink}
}

// Err returns the first emission failure, if any.
func (w *Writer) Err() error {
	return w.err
}

// U emits value in count fixed bits.
func (w *Writer) U(value uint32, count int) {
	if w.err != nil {
		return
	}
	if count < 1 || count > 32 {
		w.err = fmt.Errorf("write %d bits: %w", count, ErrBitCount)
		return
	}
	w.err = w.sink.PutBits(value, count)
}

// Flag emits a one-bit flag.
func (w *Writer) Flag(value bool) {
	var bit uint32
	if value {
		bit = 1
	}
	w.U(bit, 1)
}

// UE emits value as an unsigned Exponential-Golomb code: value+1 in
// 2*floor(log2(value+1))+1 bits.
func (w *Writer) UE(value uint32) {
	coded := value + 1
	width := bits.Len32(coded)

	if width > 1 {
		w.U(0, width-1)
	}
	w.U(coded, width)
}

// SE emits value as a signed Exponential-Golomb code: positive v maps
// to 2v-1, non-positive v maps to -2v, then coded as UE.
func (w *Writer) SE(value int32) {
	var coded uint32
	if value > 0 {
		coded = 2*uint32(value) - 1
	} else {
		coded = 2 * uint32(-value)
	}
	w.UE(coded)
}

// AlignByte pads with zero bits up to the next byte boundary. The
// padding is 0..7 bits, so the total emitted length becomes a multiple
// of 8.
func (w *Writer) AlignByte() {
	if w.err != nil {
		return
	}

	padding := (8 - w.sink.BitLen()%8) % 8
	if padding > 0 {
		w.U(0, padding)
	}
}

// BitLen reports the total number of bits emitted through the sink.
func (w *Writer) BitLen() int {
	return w.sink.BitLen()
}
