package led

import (
	"fmt"
	"strings"
)

// Order is the wire channel sequence. Order[k] is the index into an RGB
// triple sent in position k.
type Order [3]uint8

var (
	RGB = Order{0, 1, 2}
	GRB = Order{1, 0, 2}
)

// ParseOrder reads strings like "GRB". Empty means GRB, the WS2812 default.
func ParseOrder(s string) (Order, error) {
	if s == "" {
		return GRB, nil
	}
	s = strings.ToUpper(s)
	if len(s) != 3 {
		return Order{}, fmt.Errorf("color order %q: want three of R, G, B", s)
	}
	var o Order
	var seen [3]bool
	for k := 0; k < 3; k++ {
		i := strings.IndexByte("RGB", s[k])
		if i < 0 || seen[i] {
			return Order{}, fmt.Errorf("color order %q: want each of R, G, B once", s)
		}
		seen[i] = true
		o[k] = uint8(i)
	}
	return o, nil
}

func (o Order) String() string {
	return string([]byte{"RGB"[o[0]], "RGB"[o[1]], "RGB"[o[2]]})
}

// Apply writes the reordered pixel to dst[:3].
func (o Order) Apply(dst []byte, r, g, b byte) {
	px := [3]byte{r, g, b}
	dst[0], dst[1], dst[2] = px[o[0]], px[o[1]], px[o[2]]
}
