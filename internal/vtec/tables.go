package vtec

// Category is a coarse grouping of P-VTEC phenomena.
type Category uint8

const (
	CategoryUnknown Category = iota
	AirQuality
	Cold
	Heat
	Flood
	LowWater
	Marine
	Snow
	Wind
	Dust
	Fog
	Freeze
	Fire
	Storm
	Ice
	Tornado
)

var categoryNames = [...]string{
	CategoryUnknown: "unknown",
	AirQuality:      "air_quality",
	Cold:            "cold",
	Heat:            "heat",
	Flood:           "flood",
	LowWater:        "low_water",
	Marine:          "marine",
	Snow:            "snow",
	Wind:            "wind",
	Dust:            "dust",
	Fog:             "fog",
	Freeze:          "freeze",
	Fire:            "fire",
	Storm:           "storm",
	Ice:             "ice",
	Tornado:         "tornado",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return categoryNames[CategoryUnknown]
}

// Categories lists every named category in declaration order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryNames)-1)
	for c := AirQuality; c <= Tornado; c++ {
		out = append(out, c)
	}
	return out
}

// phenomena maps the two-letter "pp" field to a category.
// AF (ashfall) and SM (dense smoke) have no smoke category on the device and
// read as air quality.
var phenomena = map[string]Category{
	"AF": AirQuality, // Ashfall
	"AS": AirQuality, // Air Stagnation
	"BS": Snow,       // Blowing Snow
	"BW": Wind,       // Brisk Wind
	"BZ": Snow,       // Blizzard
	"CF": Flood,      // Coastal Flood
	"DS": Dust,       // Dust Storm
	"DU": Dust,       // Blowing Dust
	"EC": Cold,       // Extreme Cold
	"EH": Heat,       // Excessive Heat
	"EW": Wind,       // Extreme Wind
	"FA": Flood,      // Areal Flood
	"FF": Flood,      // Flash Flood
	"FG": Fog,        // Dense Fog
	"FL": Flood,      // Flood
	"FR": Freeze,     // Frost
	"FW": Fire,       // Fire Weather
	"FZ": Freeze,     // Freeze
	"GL": Wind,       // Gale
	"HF": Wind,       // Hurricane Force Wind
	"HI": Wind,       // Inland Hurricane
	"HS": Snow,       // Heavy Snow
	"HT": Heat,       // Heat
	"HU": Storm,      // Hurricane
	"HW": Wind,       // High Wind
	"HY": Flood,      // Hydrologic
	"HZ": Freeze,     // Hard Freeze
	"IP": Ice,        // Sleet
	"IS": Ice,        // Ice Storm
	"LB": Snow,       // Lake Effect Snow and Blowing Snow
	"LE": Snow,       // Lake Effect Snow
	"LO": LowWater,   // Low Water
	"LS": Flood,      // Lakeshore Flood
	"LW": Wind,       // Lake Wind
	"MA": Marine,     // Marine
	"RB": Marine,     // Small Craft for Rough Bar
	"SB": Snow,       // Snow and Blowing Snow
	"SC": Marine,     // Small Craft
	"SE": Marine,     // Hazardous Seas
	"SI": Marine,     // Small Craft for Winds
	"SM": AirQuality, // Dense Smoke
	"SN": Snow,       // Snow
	"SR": Storm,      // Storm
	"SU": Marine,     // High Surf
	"SV": Storm,      // Severe Thunderstorm
	"SW": Marine,     // Small Craft for Hazardous Seas
	"TI": Storm,      // Inland Tropical Storm
	"TO": Tornado,    // Tornado
	"TR": Storm,      // Tropical Storm
	"TS": Marine,     // Tsunami
	"TY": Storm,      // Typhoon
	"UP": Ice,        // Ice Accretion
	"WC": Cold,       // Wind Chill
	"WI": Wind,       // Wind
	"WS": Storm,      // Winter Storm
	"WW": Ice,        // Winter Weather
	"ZF": Ice,        // Freezing Fog
	"ZR": Ice,        // Freezing Rain
}

// CategoryOf looks up a phenomenon code. Unmapped codes are CategoryUnknown.
func CategoryOf(code string) Category {
	if c, ok := phenomena[code]; ok {
		return c
	}
	return CategoryUnknown
}

// PhenomenonCodes returns a copy of the phenomenon table.
func PhenomenonCodes() map[string]Category {
	out := make(map[string]Category, len(phenomena))
	for k, v := range phenomena {
		out[k] = v
	}
	return out
}

// Significance is the P-VTEC "s" field. Values are ordered so that a larger
// value is more severe.
type Significance uint8

const (
	SignificanceUnknown Significance = iota
	Synopsis
	Outlook
	Forecast
	Statement
	Advisory
	Watch
	Warning
)

var significanceNames = [...]string{
	SignificanceUnknown: "unknown",
	Synopsis:            "synopsis",
	Outlook:             "outlook",
	Forecast:            "forecast",
	Statement:           "statement",
	Advisory:            "advisory",
	Watch:               "watch",
	Warning:             "warning",
}

func (s Significance) String() string {
	if int(s) < len(significanceNames) {
		return significanceNames[s]
	}
	return significanceNames[SignificanceUnknown]
}

// Rank is the ordinal of s, 0 for unknown through 7 for a warning.
func (s Significance) Rank() int { return int(s) }

// SignificanceOf maps the significance letter.
func SignificanceOf(b byte) Significance {
	switch b {
	case 'W':
		return Warning
	case 'A':
		return Watch
	case 'Y':
		return Advisory
	case 'S':
		return Statement
	case 'F':
		return Forecast
	case 'O':
		return Outlook
	case 'N':
		return Synopsis
	default:
		return SignificanceUnknown
	}
}
