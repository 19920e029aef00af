package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/i474232898/hazard-map/internal/common"
)

// looseString decodes a JSON string, number or boolean into text. Null and
// absent fields decode to "".
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(strconv.FormatBool(v))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected text, got %s", b)
		}
		*s = looseString(n.String())
	}
	return nil
}

func (s looseString) normalized() string { return common.NormalizeText(string(s)) }

// looseFloat decodes a JSON number or a numeric string. Null and absent
// fields decode to zero.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		v = strings.TrimSpace(v)
		if v == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("expected number, got %q", v)
		}
		*f = looseFloat(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected number, got %s", b)
	}
	*f = looseFloat(n)
	return nil
}

// localizedName is the provider's {"th": ..., "en": ...} name object.
type localizedName struct {
	TH *looseString `json:"th"`
	EN *looseString `json:"en"`
}

// thai projects a possibly absent localized name onto its Thai text. def
// applies only when the object or its th field is missing or null; a blank
// th stays blank.
func thai(n *localizedName, def string) string {
	if n == nil || n.TH == nil {
		return def
	}
	return n.TH.normalized()
}

func validCoordinate(lat, lon float64) error {
	switch {
	case math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0):
		return fmt.Errorf("non-finite coordinate (%v, %v)", lat, lon)
	case lat < -90 || lat > 90:
		return fmt.Errorf("latitude %v out of range", lat)
	case lon < -180 || lon > 180:
		return fmt.Errorf("longitude %v out of range", lon)
	}
	return nil
}
