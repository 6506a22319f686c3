package ads1256

import "sync"

// Every frame the driver exchanges with the chip is at most 3 bytes long:
// WREG is opcode, count and data; RDATA returns a 3 byte sample.
const maxFrame = 3

var frames = &sync.Pool{New: func() interface{} { return new([maxFrame]byte) }}

// getFrame returns a zeroed n byte slice backed by a pooled array.
func getFrame(n int) (*[maxFrame]byte, []byte) {
	f := frames.Get().(*[maxFrame]byte)
	return f, f[:n]
}

func putFrame(f *[maxFrame]byte) {
	*f = [maxFrame]byte{}
	frames.Put(f)
}
