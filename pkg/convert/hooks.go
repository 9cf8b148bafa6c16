package convert

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
)

// RegisterTime encodes time.Time as float seconds since the Unix epoch and
// decodes it back in UTC. Strings in RFC 3339 and the other layouts cast
// understands are accepted on decode as well.
func RegisterTime(c *Converter) {
	RegisterHook(c, encodeTime, decodeTime)
}

func encodeTime(t time.Time) (any, error) {
	if t.IsZero() {
		return nil, nil
	}
	return float64(t.UnixNano()) / 1e9, nil
}

func decodeTime(raw any) (time.Time, error) {
	switch x := raw.(type) {
	case nil:
		return time.Time{}, nil
	case bool:
		return time.Time{}, fmt.Errorf("boolean is not a timestamp")
	case string:
		return cast.ToTimeE(x)
	}
	secs, err := cast.ToFloat64E(raw)
	if err != nil {
		return time.Time{}, err
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), nil
}
