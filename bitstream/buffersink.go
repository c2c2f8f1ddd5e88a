package bitstream

// BufferSink accumulates bits into a byte slice, most significant bit
// first, matching the NAL unit byte order.
type BufferSink struct {
	bytes  []byte
	bitLen int
}

// PutBits implements Sink.
func (b *BufferSink) PutBits(value uint32, count int) error {
	for i := count - 1; i >= 0; i-- {
		bit := (value >> uint(i)) & 1

		if b.bitLen%8 == 0 {
			b.bytes = append(b.bytes, 0)
		}
		if bit != 0 {
			b.bytes[b.bitLen/8] |= 1 << uint(7-b.bitLen%8)
		}
		b.bitLen++
	}
	return nil
}

// BitLen implements Sink.
func (b *BufferSink) BitLen() int {
	return b.bitLen
}

// Bytes returns the accumulated bytes; trailing bits of a partial byte
// are zero.
func (b *BufferSink) Bytes() []byte {
	return b.bytes
}
