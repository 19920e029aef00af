package hazard

import (
	"fmt"
	"strings"
)

// Kind selects which provider's dataset is active on the map.
type Kind string

const (
	KindHeat Kind = "heat"
	KindRain Kind = "rain"
)

// ParseKind accepts the canonical names and the legacy "hotspot"/"flood" aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heat", "hotspot", "hotspots":
		return KindHeat, nil
	case "rain", "flood", "rainfall":
		return KindRain, nil
	default:
		return "", fmt.Errorf("unknown dataset kind %q", s)
	}
}

// Placeholder is substituted for rain station and basin names the provider leaves out.
const Placeholder = "-"

// AllProvincesLabel is the display label of the implicit "every province" facet option.
const AllProvincesLabel = "ทั้งหมด"

// Point is the positional contract shared by both datasets.
type Point interface {
	// Key is a render key; uniqueness is whatever the provider supplies.
	Key() string
	Position() (lat, lon float64)
}

// Confidence is the provider's detection confidence. The set is open-ended.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceNominal Confidence = "nominal"
)

// ConfidenceLevel buckets a confidence value for display.
type ConfidenceLevel string

const (
	LevelHigh    ConfidenceLevel = "high"
	LevelNominal ConfidenceLevel = "nominal"
	LevelOther   ConfidenceLevel = "other"
)

// Level buckets the raw confidence. Only the exact values "high" and
// "nominal" get their own bucket.
func (c Confidence) Level() ConfidenceLevel {
	switch c {
	case ConfidenceHigh:
		return LevelHigh
	case ConfidenceNominal:
		return LevelNominal
	default:
		return LevelOther
	}
}

// HeatPoint is a normalized satellite heat detection.
type HeatPoint struct {
	ID          string  `json:"id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Province    string  `json:"province"`
	ProvinceEN  string  `json:"pv_en"`
	District    string  `json:"amphoe"`
	SubDistrict string  `json:"tambol"`
	Village     string  `json:"village"`
	// HasVillage is false when the provider omitted the village entirely.
	HasVillage    bool       `json:"has_village"`
	AcqDate       string     `json:"acq_date"`
	AcqTime       string     `json:"acq_time"`
	FRP           float64    `json:"frp"`
	Confidence    Confidence `json:"confidence"`
	LandUse       string     `json:"lu_name"`
	LandUseDetail string     `json:"lu_hp_name"`
	MapLink       string     `json:"linkgmap"`
}

func (p HeatPoint) Key() string                  { return p.ID }
func (p HeatPoint) Position() (float64, float64) { return p.Latitude, p.Longitude }

// RainPoint is a normalized 24-hour rainfall station reading.
type RainPoint struct {
	ID               string  `json:"id"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	StationName      string  `json:"station_name"`
	Rain24h          float64 `json:"rain_24h"`
	RainfallDatetime string  `json:"rainfall_datetime"`
	Province         string  `json:"province"`
	District         string  `json:"amphoe"`
	SubDistrict      string  `json:"tumbon"`
	Agency           string  `json:"agency"`
	Basin            string  `json:"basin"`
}

func (p RainPoint) Key() string                  { return p.ID }
func (p RainPoint) Position() (float64, float64) { return p.Latitude, p.Longitude }

// Batch is the outcome of one adapter fetch. Skipped counts records that
// failed per-record validation and were left out of Points.
type Batch[P Point] struct {
	Points  []P
	Skipped int
}
