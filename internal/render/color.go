package render

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is linear RGB with each channel in [0,1].
type Color struct{ R, G, B float64 }

func (c Color) colorful() colorful.Color { return colorful.Color{R: c.R, G: c.G, B: c.B} }

// Hex formats c as #rrggbb, clamping out-of-range channels.
func (c Color) Hex() string { return c.colorful().Clamped().Hex() }

// Bytes converts to 8-bit channels, rounding to nearest.
func (c Color) Bytes() (r, g, b uint8) {
	return to8(c.R), to8(c.G), to8(c.B)
}

func to8(v float64) uint8 { return uint8(clamp01(v)*255 + 0.5) }

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// ColorID names a palette entry. The numeric values are part of the
// command wire format.
type ColorID uint8

const (
	Black ColorID = iota
	White
	Red
	Green
	Blue
	LightBlue
	DarkBlue
	LightGray
	DarkGray
	Yellow
	Orange
)

// MaxColorID is the highest valid palette id.
const MaxColorID = Orange

var paletteHex = [...]struct {
	name string
	hex  string
}{
	Black:     {"black", "#000000"},
	White:     {"white", "#ffffff"},
	Red:       {"red", "#ff0000"},
	Green:     {"green", "#00ff00"},
	Blue:      {"blue", "#0000ff"},
	LightBlue: {"light_blue", "#b5ddff"},
	DarkBlue:  {"dark_blue", "#1688fa"},
	LightGray: {"light_gray", "#aaaaaa"},
	DarkGray:  {"dark_gray", "#303030"},
	Yellow:    {"yellow", "#fcec5b"},
	Orange:    {"orange", "#ff8900"},
}

var palette [len(paletteHex)]Color

func init() {
	for i, p := range paletteHex {
		c, err := colorful.Hex(p.hex)
		if err != nil {
			panic(fmt.Sprintf("render: palette %s: %v", p.name, err))
		}
		palette[i] = Color{R: c.R, G: c.G, B: c.B}
	}
}

// Valid reports whether id is a palette entry.
func (id ColorID) Valid() bool { return id <= MaxColorID }

// Color returns the palette color, black for invalid ids.
func (id ColorID) Color() Color {
	if !id.Valid() {
		return Color{}
	}
	return palette[id]
}

func (id ColorID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("color(%d)", uint8(id))
	}
	return paletteHex[id].name
}

// ParseColorID accepts a palette name ("dark_blue", "DarkBlue", "dark-blue").
func ParseColorID(s string) (ColorID, error) {
	norm := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(s))
	for i, p := range paletteHex {
		if strings.ReplaceAll(p.name, "_", "") == norm {
			return ColorID(i), nil
		}
	}
	return 0, fmt.Errorf("unknown color %q", s)
}

func (id ColorID) MarshalText() ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("invalid color id %d", uint8(id))
	}
	return []byte(id.String()), nil
}

func (id *ColorID) UnmarshalText(b []byte) error {
	v, err := ParseColorID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
