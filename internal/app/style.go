package app

import (
	"github.com/coreman2200/funtimes-pufflux/internal/render"
	"github.com/coreman2200/funtimes-pufflux/internal/vtec"
)

// Style is how a hazard category looks on the ring.
type Style struct {
	Mode      render.Mode
	Base      render.ColorID
	Highlight render.ColorID
}

var styles = map[vtec.Category]Style{
	vtec.AirQuality: {render.Pulse, render.LightGray, render.Yellow},
	vtec.Cold:       {render.Pulse, render.LightGray, render.DarkBlue},
	vtec.Heat:       {render.Pulse, render.White, render.Orange},
	vtec.Flood:      {render.Flood, render.Black, render.DarkBlue},
	vtec.LowWater:   {render.Flood, render.Black, render.Yellow},
	vtec.Marine:     {render.Flood, render.DarkBlue, render.LightBlue},
	vtec.Snow:       {render.Precipitation, render.Black, render.White},
	vtec.Wind:       {render.Swirl, render.DarkGray, render.LightGray},
	vtec.Dust:       {render.Pulse, render.LightGray, render.Yellow},
	vtec.Fog:        {render.Pulse, render.DarkGray, render.LightGray},
	vtec.Freeze:     {render.Pulse, render.LightGray, render.LightBlue},
	vtec.Fire:       {render.Pulse, render.Black, render.Orange},
	vtec.Storm:      {render.Precipitation, render.DarkBlue, render.LightBlue},
	vtec.Ice:        {render.Precipitation, render.Black, render.LightBlue},
	vtec.Tornado:    {render.Swirl, render.White, render.Red},
}

// StyleOf returns the style for c, false for CategoryUnknown.
func StyleOf(c vtec.Category) (Style, bool) {
	s, ok := styles[c]
	return s, ok
}

// ConfigFor maps a classification to what the engine should show. Hazards
// below advisory, or of no known category, show the startup animation.
// Only warnings animate fast.
func ConfigFor(hz vtec.Classification) render.Config {
	s, ok := styles[hz.Category]
	if !ok || hz.Significance < vtec.Advisory {
		return render.StartupConfig
	}
	return render.Config{
		Mode:      s.Mode,
		Fast:      hz.Significance == vtec.Warning,
		Base:      s.Base,
		Highlight: s.Highlight,
	}
}
