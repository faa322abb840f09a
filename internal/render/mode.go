package render

import (
	"fmt"
	"strings"
)

// Mode selects the animation generator. The numeric values are part of
// the command wire format.
type Mode uint8

const (
	Default Mode = iota
	Precipitation
	Flood
	Pulse
	Swirl

	numModes
)

var modeNames = [numModes]string{"default", "precipitation", "flood", "pulse", "swirl"}

func (m Mode) Valid() bool { return m < numModes }

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
	return modeNames[m]
}

func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Config is what the generators read each frame. It is replaced whole.
type Config struct {
	Mode      Mode    `json:"mode" yaml:"mode"`
	Fast      bool    `json:"fast" yaml:"fast"`
	Base      ColorID `json:"base" yaml:"base"`
	Highlight ColorID `json:"highlight" yaml:"highlight"`
}

// StartupConfig is shown until the first evaluation completes.
var StartupConfig = Config{Mode: Default, Fast: true, Base: Blue, Highlight: White}

func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("invalid mode %d", uint8(c.Mode))
	}
	if !c.Base.Valid() {
		return fmt.Errorf("invalid base color %d", uint8(c.Base))
	}
	if !c.Highlight.Valid() {
		return fmt.Errorf("invalid highlight color %d", uint8(c.Highlight))
	}
	return nil
}

func (c Config) String() string {
	speed := "slow"
	if c.Fast {
		speed = "fast"
	}
	return fmt.Sprintf("%s/%s %s on %s", c.Mode, speed, c.Highlight, c.Base)
}
