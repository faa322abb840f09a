package weather

import (
	"strconv"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-pufflux/internal/jsontok"
	"github.com/coreman2200/funtimes-pufflux/internal/vtec"
)

const geocodeBody = `{
  "spatialReference": {"wkid": 4326, "latestWkid": 4326},
  "locations": [
    {
      "name": "Raleigh, North Carolina",
      "extent": {"xmin": -78.79, "ymin": 35.63, "xmax": -78.49, "ymax": 35.93},
      "feature": {
        "geometry": {"x": -78.643819999999948, "y": 35.78042000000005},
        "attributes": {"Score": 100, "Addr_Type": "Locality"}
      }
    }
  ]
}`

const pointsBody = `{
  "id": "https://api.weather.gov/points/35.7804,-78.6438",
  "type": "Feature",
  "properties": {
    "cwa": "RAH",
    "gridId": "RAH",
    "gridX": 74,
    "gridY": 57,
    "forecast": "https://api.weather.gov/gridpoints/RAH/74,57/forecast"
  }
}`

func alertsBody(codes ...string) string {
	var b strings.Builder
	b.WriteString(`{"type":"FeatureCollection","features":[`)
	for i, c := range codes {
		if i > 0 {
			b.WriteByte(',')
		}
		if c == "" {
			b.WriteString(`{"properties":{"event":"Special Weather Statement","parameters":{}}}`)
			continue
		}
		b.WriteString(`{"properties":{"event":"x","parameters":{"VTEC":["` + c + `"]}}}`)
	}
	b.WriteString(`],"title":"current watches, warnings, and advisories"}`)
	return b.String()
}

const (
	floodWarning = "/O.NEW.KRAH.FL.W.0012.240601T1200Z-240602T0000Z/"
	floodWatch   = "/O.NEW.KRAH.FA.A.0003.240601T1200Z-240602T0000Z/"
	windWarning  = "/O.NEW.KRAH.HW.W.0009.240601T1200Z-240602T0000Z/"
	heatAdvisory = "/O.NEW.KRAH.HT.Y.0002.240601T1200Z-240602T0000Z/"
)

func TestParseGeocode(t *testing.T) {
	c, err := ParseGeocode([]byte(geocodeBody))
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: "35.78042000000005", Lon: "-78.643819999999948"}, c)
	assert.Equal(t, Coordinates{Lat: "35.7804", Lon: "-78.6438"}, c.Truncated())
}

func TestParseGeocode_Missing(t *testing.T) {
	tests := map[string]struct {
		body string
		path string
	}{
		"no locations":  {`{"spatialReference": {}}`, "locations"},
		"empty array":   {`{"locations": []}`, "locations.0"},
		"not an object": {`{"locations": [1]}`, "locations.0"},
		"no feature":    {`{"locations": [{"name": "x"}]}`, "feature"},
		"no geometry":   {`{"locations": [{"feature": {}}]}`, "geometry"},
		"no y":          {`{"locations": [{"feature": {"geometry": {"x": 1}}}]}`, ".y"},
		"nested x only": {`{"locations": [{"feature": {"geometry": {"z": {"x": 1, "y": 2}}}}]}`, ".x"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGeocode([]byte(tt.body))
			require.ErrorIs(t, err, ErrMissingField)
			assert.Contains(t, err.Error(), tt.path)
			assert.True(t, IsDecode(err))
		})
	}
}

func TestParseGeocode_Malformed(t *testing.T) {
	for _, body := range []string{"", "[1,2]", `{"locations": [`, "<html>"} {
		_, err := ParseGeocode([]byte(body))
		require.ErrorIs(t, err, jsontok.ErrMalformed, body)
		assert.True(t, IsDecode(err))
	}
}

func TestParseGrid(t *testing.T) {
	g, err := ParseGrid([]byte(pointsBody))
	require.NoError(t, err)
	assert.Equal(t, Grid{Office: "RAH", X: "74", Y: "57"}, g)

	g, err = ParseGrid([]byte(`{"properties": {"gridX": 1, "gridY": 2}}`))
	require.NoError(t, err)
	assert.Equal(t, Grid{X: "1", Y: "2"}, g)
}

func TestParseGrid_Missing(t *testing.T) {
	for body, path := range map[string]string{
		`{"id": "x"}`:                         "properties",
		`{"properties": {"gridY": 57}}`:       "properties.gridX",
		`{"properties": {"gridX": 74}}`:       "properties.gridY",
		`{"gridX": 74, "gridY": 57}`:          "properties",
		`{"properties": {"x": {"gridX": 1}}}`: "properties.gridX",
	} {
		_, err := ParseGrid([]byte(body))
		require.ErrorIs(t, err, ErrMissingField, body)
		assert.Contains(t, err.Error(), path)
	}
}

func TestParseAlerts_HighestSignificance(t *testing.T) {
	got, err := ParseAlerts([]byte(alertsBody(heatAdvisory, floodWarning, floodWatch)), 0)
	require.NoError(t, err)
	assert.Equal(t, vtec.Classification{Category: vtec.Flood, Significance: vtec.Warning}, got)
}

// A tie on significance keeps the later feature, compared against the
// freshly decoded code rather than anything left over from the last one.
func TestParseAlerts_TieGoesToLast(t *testing.T) {
	got, err := ParseAlerts([]byte(alertsBody(floodWarning, windWarning)), 0)
	require.NoError(t, err)
	assert.Equal(t, vtec.Classification{Category: vtec.Wind, Significance: vtec.Warning}, got)

	got, err = ParseAlerts([]byte(alertsBody(windWarning, floodWarning, heatAdvisory)), 0)
	require.NoError(t, err)
	assert.Equal(t, vtec.Classification{Category: vtec.Flood, Significance: vtec.Warning}, got)
}

func TestParseAlerts_SkipsFeaturesWithoutCodes(t *testing.T) {
	got, err := ParseAlerts([]byte(alertsBody("", floodWatch, "", "garbage")), 0)
	require.NoError(t, err)
	assert.Equal(t, vtec.Classification{Category: vtec.Flood, Significance: vtec.Watch}, got)

	got, err = ParseAlerts([]byte(alertsBody()), 0)
	require.NoError(t, err)
	assert.Equal(t, vtec.None, got)
}

// polygonFeed is shaped like a real zone feed: every feature carries a
// geometry ring and several properties besides its code.
func polygonFeed(codes ...string) string {
	var b strings.Builder
	b.WriteString(`{"type":"FeatureCollection","features":[`)
	for i, c := range codes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"id":"urn:oid:2.49.0.1.840.0.` + strconv.Itoa(i) + `","type":"Feature",`)
		b.WriteString(`"geometry":{"type":"Polygon","coordinates":[[`)
		for p := 0; p < 12; p++ {
			if p > 0 {
				b.WriteByte(',')
			}
			b.WriteString(`[-78.` + strconv.Itoa(10+p) + `,35.` + strconv.Itoa(60+p) + `]`)
		}
		b.WriteString(`]]},"properties":{"event":"Flood Warning","severity":"Moderate",`)
		b.WriteString(`"areaDesc":"Wake, NC","parameters":{"VTEC":["` + c + `"]}}}`)
	}
	b.WriteString(`]}`)
	return b.String()
}

func TestParseAlerts_LargeFeed(t *testing.T) {
	codes := make([]string, 14)
	for i := range codes {
		codes[i] = floodWatch
	}
	codes[9] = windWarning
	body := []byte(polygonFeed(codes...))

	tokens, err := jsontok.Tokenize(body, len(body))
	require.NoError(t, err)
	require.Greater(t, len(tokens), jsontok.DefaultLimit)
	assert.LessOrEqual(t, len(tokens), AlertTokenLimit(len(body)))

	got, err := ParseAlerts(body, 0)
	require.NoError(t, err)
	assert.Equal(t, vtec.Classification{Category: vtec.Wind, Significance: vtec.Warning}, got)

	_, err = ParseAlerts(body, jsontok.DefaultLimit)
	require.ErrorIs(t, err, jsontok.ErrTooManyTokens)
}

func TestAlertTokenLimit_BoundsDenseDocuments(t *testing.T) {
	for _, body := range []string{`1`, `[]`, `[0,0,0,0]`, `{"a":1,"b":[1,2]}`, `[[],[],[]]`, `{"":""}`} {
		tokens, err := jsontok.Tokenize([]byte(body), len(body)+1)
		require.NoError(t, err, body)
		assert.LessOrEqual(t, len(tokens), AlertTokenLimit(len(body)), body)
	}
}

func TestParseAlerts_MissingFeatures(t *testing.T) {
	_, err := ParseAlerts([]byte(`{"type": "FeatureCollection"}`), 0)
	require.ErrorIs(t, err, ErrMissingField)

	_, err = ParseAlerts([]byte(`{"features": {}}`), 0)
	require.ErrorIs(t, err, ErrMissingField)
}

func TestTruncateFraction(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"35.78042000000005", "35.7804"},
		{"-78.643819999999948", "-78.6438"},
		{"35.7804", "35.7804"},
		{"35.78", "35.78"},
		{"35.", "35."},
		{"35", "35"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TruncateFraction(tt.in, MaxFraction), tt.in)
	}
	assert.Equal(t, "1.2", TruncateFraction("1.23", 1))
	assert.Equal(t, "1.", TruncateFraction("1.23", 0))
}

func TestReadBody(t *testing.T) {
	b, err := ReadBody(strings.NewReader("abcd"), 4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(b))

	_, err = ReadBody(strings.NewReader("abcde"), 4)
	require.ErrorIs(t, err, ErrBodyTooLarge)
	assert.True(t, IsDecode(err))

	_, err = ReadBody(iotest.ErrReader(assert.AnError), 4)
	require.ErrorIs(t, err, assert.AnError)
	assert.False(t, IsDecode(err))
}
