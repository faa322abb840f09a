package weather

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coreman2200/funtimes-pufflux/internal/jsontok"
	"github.com/coreman2200/funtimes-pufflux/internal/vtec"
)

var ErrMissingField = errors.New("weather: missing field")

// Coordinates are carried as the text the geocoder returned so they can be
// re-embedded in later queries without a float round trip.
type Coordinates struct {
	Lat string `yaml:"lat" json:"lat"`
	Lon string `yaml:"lon" json:"lon"`
}

func (c Coordinates) IsZero() bool { return c.Lat == "" || c.Lon == "" }

// Truncated limits both fields to MaxFraction digits after the point.
func (c Coordinates) Truncated() Coordinates {
	return Coordinates{Lat: TruncateFraction(c.Lat, MaxFraction), Lon: TruncateFraction(c.Lon, MaxFraction)}
}

func (c Coordinates) String() string { return c.Lat + "," + c.Lon }

// Grid is a forecast office grid cell.
type Grid struct {
	Office string `yaml:"office,omitempty" json:"office,omitempty"`
	X      string `yaml:"x" json:"x"`
	Y      string `yaml:"y" json:"y"`
}

func (g Grid) IsZero() bool { return g.X == "" || g.Y == "" }

// MaxFraction is the precision the points endpoint accepts.
const MaxFraction = 4

// TruncateFraction keeps at most digits characters after the first '.'.
// Text without a point is returned as is.
func TruncateFraction(s string, digits int) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}
	if end := dot + 1 + digits; end < len(s) {
		return s[:end]
	}
	return s
}

func missing(path ...string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(path, "."))
}

func tokenizeObject(body []byte, limit int) ([]jsontok.Token, error) {
	tokens, err := jsontok.Tokenize(body, limit)
	if err != nil {
		return nil, err
	}
	if tokens[0].Kind != jsontok.Object {
		return nil, fmt.Errorf("%w: root is %s", jsontok.ErrMalformed, tokens[0].Kind)
	}
	return tokens, nil
}

// ParseGeocode reads locations[0].feature.geometry.{x,y} from a geocoder
// "find" response. x is the longitude.
func ParseGeocode(body []byte) (Coordinates, error) {
	tokens, err := tokenizeObject(body, jsontok.DefaultLimit)
	if err != nil {
		return Coordinates{}, err
	}
	locations, ok := jsontok.Find(body, tokens, 0, "locations")
	if !ok {
		return Coordinates{}, missing("locations")
	}
	first := locations + 1
	if tokens[locations].Kind != jsontok.Array || first >= len(tokens) ||
		tokens[first].Parent != locations || tokens[first].Kind != jsontok.Object {
		return Coordinates{}, missing("locations", "0")
	}
	geometry, name, ok := jsontok.Path(body, tokens, first, "feature", "geometry")
	if !ok {
		return Coordinates{}, missing("locations", "0", name)
	}
	x, ok := jsontok.Find(body, tokens, geometry, "x")
	if !ok {
		return Coordinates{}, missing("locations", "0", "feature", "geometry", "x")
	}
	y, ok := jsontok.Find(body, tokens, geometry, "y")
	if !ok {
		return Coordinates{}, missing("locations", "0", "feature", "geometry", "y")
	}
	return Coordinates{
		Lat: jsontok.Text(body, tokens, y),
		Lon: jsontok.Text(body, tokens, x),
	}, nil
}

// ParseGrid reads properties.{gridX,gridY} from a points response. The
// office id is optional.
func ParseGrid(body []byte) (Grid, error) {
	tokens, err := tokenizeObject(body, jsontok.DefaultLimit)
	if err != nil {
		return Grid{}, err
	}
	props, ok := jsontok.Find(body, tokens, 0, "properties")
	if !ok {
		return Grid{}, missing("properties")
	}
	var g Grid
	x, ok := jsontok.Find(body, tokens, props, "gridX")
	if !ok {
		return Grid{}, missing("properties", "gridX")
	}
	y, ok := jsontok.Find(body, tokens, props, "gridY")
	if !ok {
		return Grid{}, missing("properties", "gridY")
	}
	g.X = jsontok.Text(body, tokens, x)
	g.Y = jsontok.Text(body, tokens, y)
	if office, ok := jsontok.Find(body, tokens, props, "gridId"); ok {
		g.Office = jsontok.Text(body, tokens, office)
	}
	return g, nil
}

// AlertTokenLimit is enough tokens for any document of n bytes: every token
// but the last spends at least one byte plus a separator.
func AlertTokenLimit(n int) int { return n/2 + 1 }

// ParseAlerts walks features[*].properties.parameters.VTEC[0] and returns
// the highest significance found, the later feature winning ties. Features
// without a VTEC parameter are skipped. A non-positive limit sizes the token
// array from the body with AlertTokenLimit.
func ParseAlerts(body []byte, limit int) (vtec.Classification, error) {
	if limit <= 0 {
		limit = AlertTokenLimit(len(body))
	}
	tokens, err := tokenizeObject(body, limit)
	if err != nil {
		return vtec.None, err
	}
	features, ok := jsontok.Find(body, tokens, 0, "features")
	if !ok || tokens[features].Kind != jsontok.Array {
		return vtec.None, missing("features")
	}
	best := vtec.None
	for _, f := range jsontok.Elements(tokens, features) {
		codes, _, ok := jsontok.Path(body, tokens, f, "properties", "parameters", "VTEC")
		if !ok || tokens[codes].Kind != jsontok.Array {
			continue
		}
		first := jsontok.Elements(tokens, codes)
		if len(first) == 0 {
			continue
		}
		hz, ok := vtec.DecodeString(jsontok.Text(body, tokens, first[0]))
		if !ok {
			continue
		}
		if vtec.Worse(hz, best) {
			best = hz
		}
	}
	return best, nil
}

// IsDecode reports whether err came from reading a response rather than
// reaching the server.
func IsDecode(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrBodyTooLarge) ||
		errors.Is(err, jsontok.ErrMalformed) ||
		errors.Is(err, jsontok.ErrTooManyTokens)
}
