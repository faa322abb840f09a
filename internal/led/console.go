package led

import (
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"
)

// Console prints each frame as a strip of colored cells on stdout.
type Console struct {
	drawer display.Drawer
	img    *image.NRGBA
	count  int
}

func NewConsole(count int) *Console {
	return newConsole(screen.New(count), count)
}

func newConsole(d display.Drawer, count int) *Console {
	return &Console{drawer: d, img: image.NewNRGBA(image.Rect(0, 0, count, 1)), count: count}
}

func (c *Console) Write(rgb []byte) error {
	if err := checkLen(rgb, c.count); err != nil {
		return err
	}
	for i := 0; i < c.count; i++ {
		c.img.SetNRGBA(i, 0, color.NRGBA{R: rgb[3*i], G: rgb[3*i+1], B: rgb[3*i+2], A: 0xff})
	}
	return c.drawer.Draw(c.drawer.Bounds(), c.img, image.Point{})
}

func (c *Console) Close() error { return c.drawer.Halt() }
