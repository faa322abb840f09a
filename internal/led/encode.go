package led

// Encoder turns RGB frames into a WS2812 bit stream for an SPI bus. Each
// data bit becomes three SPI bits, 110 for a one and 100 for a zero, so at
// about 2.4 MHz every data bit lasts the strip's 1.25 µs.
type Encoder struct {
	order Order
	reset int
	lut   [256][3]byte
}

// NewEncoder builds the lookup table. resetBytes of zeros latch the frame.
func NewEncoder(order Order, resetBytes int) *Encoder {
	e := &Encoder{order: order, reset: resetBytes}
	for v := 0; v < 256; v++ {
		var out uint32
		for i := 7; i >= 0; i-- {
			tri := uint32(0b100)
			if (v>>i)&1 == 1 {
				tri = 0b110
			}
			out = out<<3 | tri
		}
		e.lut[v] = [3]byte{byte(out >> 16), byte(out >> 8), byte(out)}
	}
	return e
}

// ResetBytes is the zero tail needed to hold the line low for resetUs at
// speedHz, never less than 128 bytes.
func ResetBytes(speedHz, resetUs int) int {
	n := (resetUs*(speedHz/1000) + 8000 - 1) / 8000
	return max(n, 128)
}

// Len is the encoded size of a count-LED frame.
func (e *Encoder) Len(count int) int { return count*9 + e.reset }

// Encode appends the encoded frame and latch tail to dst.
func (e *Encoder) Encode(dst, rgb []byte) []byte {
	var px [3]byte
	for i := 0; i+2 < len(rgb); i += 3 {
		e.order.Apply(px[:], rgb[i], rgb[i+1], rgb[i+2])
		for _, v := range px {
			dst = append(dst, e.lut[v][0], e.lut[v][1], e.lut[v][2])
		}
	}
	for i := 0; i < e.reset; i++ {
		dst = append(dst, 0)
	}
	return dst
}
