// Package vtec decodes the fixed-column P-VTEC hazard code used by weather
// alert feeds, e.g.
//
//	/O.NEW.KRAH.FL.W.0012.190101T0000Z-190102T0000Z/
//
// Only the phenomenon (offsets 12-13) and significance (offset 15) are read.
package vtec

import "fmt"

// Width is the length of a P-VTEC string.
const Width = 48

const (
	phenomenonOffset   = 12
	significanceOffset = 15
)

// fixed delimiter columns, checked to reject most windows early
var delimiters = [...]struct {
	at int
	c  byte
}{
	{0, '/'}, {2, '.'}, {6, '.'}, {11, '.'}, {14, '.'}, {16, '.'}, {21, '.'}, {34, '-'}, {47, '/'},
}

// Classification is a decoded hazard.
type Classification struct {
	Category     Category
	Significance Significance
}

// None is the classification reported when no hazard is active.
var None = Classification{Category: CategoryUnknown, Significance: SignificanceUnknown}

func (c Classification) String() string {
	return fmt.Sprintf("%s %s", c.Category, c.Significance)
}

// Known reports whether both halves decoded to table entries.
func (c Classification) Known() bool {
	return c.Category != CategoryUnknown && c.Significance != SignificanceUnknown
}

// Decode reads the hazard at the start of b. It fails when b is shorter than
// Width or the delimiter columns do not line up.
func Decode(b []byte) (Classification, bool) {
	if len(b) < Width {
		return None, false
	}
	for _, d := range delimiters {
		if b[d.at] != d.c {
			return None, false
		}
	}
	return Classification{
		Category:     phenomena[string(b[phenomenonOffset:phenomenonOffset+2])],
		Significance: SignificanceOf(b[significanceOffset]),
	}, true
}

// DecodeString is Decode for text values out of a JSON document.
func DecodeString(s string) (Classification, bool) {
	return Decode([]byte(s))
}

// Worse reports whether c should replace best. Ties go to c so the most
// recently seen hazard wins.
func Worse(c, best Classification) bool {
	return c.Significance >= best.Significance
}
