package weather

import (
	"errors"
	"fmt"
	"io"
)

// DefaultBodyLimit bounds geocode and grid responses.
const DefaultBodyLimit = 16 << 10

var ErrBodyTooLarge = errors.New("weather: response body exceeds limit")

// ReadBody buffers all of r, failing once more than limit bytes arrive.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultBodyLimit
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
	}
	return body, nil
}
