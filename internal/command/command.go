// Package command packs a render configuration into the 16-bit command word
// used by the original weather transmitter:
//
//	bits 0-2   animation (render.Mode)
//	bit  3     fast
//	bits 4-7   unused
//	bits 8-11  base color
//	bits 12-15 highlight color
//
// On the wire the word is sent most significant byte first.
package command

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coreman2200/funtimes-pufflux/internal/render"
)

// Command is one packed configuration.
type Command uint16

const (
	modeMask       = 0x0007
	fastBit        = 0x0008
	unusedMask     = 0x00f0
	baseShift      = 8
	highlightShift = 12
)

var (
	ErrUnusedBits = errors.New("command: unused bits set")
	ErrMode       = errors.New("command: unknown animation")
	ErrColor      = errors.New("command: unknown color")
)

// Transmitter palette ids. They predate the render palette ordering, so
// colors are translated rather than cast.
var wireColors = [...]render.ColorID{
	0:  render.Black,
	1:  render.White,
	2:  render.LightBlue,
	3:  render.DarkBlue,
	4:  render.LightGray,
	5:  render.DarkGray,
	6:  render.Yellow,
	7:  render.Orange,
	8:  render.Red,
	9:  render.Blue,
	10: render.Green,
}

var colorWire = func() map[render.ColorID]uint16 {
	m := make(map[render.ColorID]uint16, len(wireColors))
	for id, c := range wireColors {
		m[c] = uint16(id)
	}
	return m
}()

// Encode packs c. Invalid fields are reported rather than truncated.
func Encode(c render.Config) (Command, error) {
	if !c.Mode.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrMode, c.Mode)
	}
	base, ok := colorWire[c.Base]
	if !ok {
		return 0, fmt.Errorf("%w: base %d", ErrColor, c.Base)
	}
	hl, ok := colorWire[c.Highlight]
	if !ok {
		return 0, fmt.Errorf("%w: highlight %d", ErrColor, c.Highlight)
	}
	w := uint16(c.Mode) & modeMask
	if c.Fast {
		w |= fastBit
	}
	w |= base << baseShift
	w |= hl << highlightShift
	return Command(w), nil
}

// MustEncode is Encode for configurations known to be valid.
func MustEncode(c render.Config) Command {
	cmd, err := Encode(c)
	if err != nil {
		panic(err)
	}
	return cmd
}

// Decode unpacks a command word.
func Decode(cmd Command) (render.Config, error) {
	w := uint16(cmd)
	if w&unusedMask != 0 {
		return render.Config{}, fmt.Errorf("%w: %#04x", ErrUnusedBits, w)
	}
	m := render.Mode(w & modeMask)
	if !m.Valid() {
		return render.Config{}, fmt.Errorf("%w: %d", ErrMode, m)
	}
	base, err := wireColor((w >> baseShift) & 0xf)
	if err != nil {
		return render.Config{}, err
	}
	hl, err := wireColor((w >> highlightShift) & 0xf)
	if err != nil {
		return render.Config{}, err
	}
	return render.Config{Mode: m, Fast: w&fastBit != 0, Base: base, Highlight: hl}, nil
}

func wireColor(id uint16) (render.ColorID, error) {
	if int(id) >= len(wireColors) {
		return 0, fmt.Errorf("%w: %d", ErrColor, id)
	}
	return wireColors[id], nil
}

// Bytes is the transmitter byte order, MSB first.
func (c Command) Bytes() [2]byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(c))
	return b
}

// FromBytes reads a word in transmitter byte order.
func FromBytes(b [2]byte) Command { return Command(binary.BigEndian.Uint16(b[:])) }

func (c Command) String() string { return fmt.Sprintf("0x%04x", uint16(c)) }

// Parse reads "0x1234", "1234" (hex) or "0b..." forms.
func Parse(s string) (Command, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	base := 16
	switch {
	case strings.HasPrefix(s, "0x"):
		s = s[2:]
	case strings.HasPrefix(s, "0b"):
		s, base = s[2:], 2
	}
	s = strings.ReplaceAll(s, "_", "")
	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, fmt.Errorf("command %q: %w", s, err)
	}
	return Command(v), nil
}

func (c Command) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Command) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
