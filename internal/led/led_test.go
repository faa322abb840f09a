package led

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

var (
	zero = []byte{0x92, 0x49, 0x24} // 00000000 -> 100 x8
	full = []byte{0xdb, 0x6d, 0xb6} // 11111111 -> 110 x8
	high = []byte{0xd2, 0x49, 0x24} // 10000000
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in   string
		want Order
	}{
		{"", GRB},
		{"GRB", GRB},
		{"rgb", RGB},
		{"BRG", Order{2, 0, 1}},
	}
	for _, tt := range tests {
		got, err := ParseOrder(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "BRG", Order{2, 0, 1}.String())

	for _, bad := range []string{"RG", "RRB", "RGBW", "XYZ"} {
		_, err := ParseOrder(bad)
		assert.Error(t, err, bad)
	}
}

func TestEncoder(t *testing.T) {
	e := NewEncoder(GRB, 4)
	got := e.Encode(nil, []byte{0xff, 0x00, 0x80})
	require.Len(t, got, e.Len(1))

	var want []byte
	want = append(want, zero...) // G
	want = append(want, full...) // R
	want = append(want, high...) // B
	want = append(want, 0, 0, 0, 0)
	assert.Equal(t, want, got)
}

func TestResetBytes(t *testing.T) {
	assert.Equal(t, 128, ResetBytes(2_400_000, 300))
	assert.Equal(t, 375, ResetBytes(3_000_000, 1000))
}

func TestSPI_WritesEncodedFrame(t *testing.T) {
	buf := bytes.Buffer{}
	s, err := NewSPI(spitest.NewRecordRaw(&buf), 2, RGB, 0, 0)
	require.NoError(t, err)

	require.NoError(t, s.Write([]byte{0xff, 0, 0, 0, 0, 0x80}))
	out := buf.Bytes()
	require.Len(t, out, 2*9+128)
	assert.Equal(t, full, out[0:3])
	assert.Equal(t, zero, out[3:6])
	assert.Equal(t, high, out[15:18])
	assert.Equal(t, make([]byte, 128), out[18:])

	assert.Error(t, s.Write([]byte{1, 2, 3}))
	require.NoError(t, s.Close())
	assert.Error(t, s.Write(make([]byte, 6)))
	assert.NoError(t, s.Close())
}

func TestNRZ_Write(t *testing.T) {
	buf := bytes.Buffer{}
	d, err := NewNRZ(spitest.NewRecordRaw(&buf), 2, GRB, 2500*physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", d.String())

	before := buf.Len()
	require.NoError(t, d.Write([]byte{1, 2, 3, 4, 5, 6}))
	assert.Greater(t, buf.Len(), before)
	assert.Error(t, d.Write([]byte{1}))
}

func TestNRZ_WireOrder(t *testing.T) {
	d := &NRZ{order: GRB}
	dst := make([]byte, 3)
	d.wire(dst, 1, 2, 3)
	assert.Equal(t, []byte{1, 2, 3}, dst, "GRB strips take RGB input unchanged")

	d.order = RGB
	d.wire(dst, 1, 2, 3)
	assert.Equal(t, []byte{2, 1, 3}, dst)
}

func TestTerm_DrawsRing(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(80, 25)

	term := NewTerm(s, 8)
	rgb := make([]byte, 24)
	rgb[0], rgb[1], rgb[2] = 0x16, 0x88, 0xfa
	require.NoError(t, term.Write(rgb))

	top := term.pos[0]
	assert.Equal(t, 40, top.x)
	assert.Less(t, top.y, 12, "first LED sits at the top")

	r, _, style, _ := s.GetContent(top.x, top.y)
	assert.Equal(t, '●', r)
	fg, _, _ := style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(0x16, 0x88, 0xfa), fg)

	seen := map[cell]bool{}
	for _, p := range term.pos {
		seen[p] = true
	}
	assert.Len(t, seen, 8, "positions should not collide")

	assert.Error(t, term.Write(rgb[:3]))
	require.NoError(t, term.Close())
}

func TestSim(t *testing.T) {
	s := NewSim(2, zerolog.Nop())
	require.NoError(t, s.Write([]byte{1, 2, 3, 4, 5, 6}))
	require.NoError(t, s.Write([]byte{6, 5, 4, 3, 2, 1}))
	assert.Equal(t, 2, s.Frames())
	assert.Equal(t, []byte{6, 5, 4, 3, 2, 1}, s.Last())
	assert.Error(t, s.Write(nil))
}

type fakeDrawer struct {
	last   image.Image
	halted bool
}

func (f *fakeDrawer) String() string { return "fake" }
func (f *fakeDrawer) Halt() error { f.halted = true; return nil }
func (f *fakeDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (f *fakeDrawer) Bounds() image.Rectangle { return image.Rect(0, 0, 3, 1) }
func (f *fakeDrawer) Draw(_ image.Rectangle, src image.Image, _ image.Point) error {
	f.last = src
	return nil
}

func TestConsole(t *testing.T) {
	d := &fakeDrawer{}
	c := newConsole(d, 3)
	require.NoError(t, c.Write([]byte{255, 0, 0, 0, 255, 0, 0, 0, 255}))
	require.NotNil(t, d.last)
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, d.last.At(1, 0))
	require.NoError(t, c.Close())
	assert.True(t, d.halted)
}

func TestOpen(t *testing.T) {
	d, err := Open(Options{Kind: KindSim, Count: 4}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Sim{}, d)

	_, err = Open(Options{Kind: "laser", Count: 4}, zerolog.Nop())
	assert.Error(t, err)
	_, err = Open(Options{Kind: KindSim}, zerolog.Nop())
	assert.Error(t, err)
	_, err = Open(Options{Kind: KindSim, Count: 1, ColorOrder: "XX"}, zerolog.Nop())
	assert.Error(t, err)
}
