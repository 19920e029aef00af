// Package mapview turns normalized hazard points into a GeoJSON marker layer
// that a browser map draws as-is.
package mapview

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/i474232898/hazard-map/internal/common"
	"github.com/i474232898/hazard-map/internal/hazard"
)

// Settings is the initial map view handed to the client.
type Settings struct {
	Center      [2]float64 `json:"center"` // [lat, lon]
	Zoom        int        `json:"zoom"`
	TileURL     string     `json:"tileUrl"`
	Attribution string     `json:"attribution"`
}

// DefaultSettings centres the map on Bangkok at country zoom.
func DefaultSettings() Settings {
	return Settings{
		Center:      [2]float64{13.736717, 100.523186},
		Zoom:        6,
		TileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a>`,
	}
}

// Geometry is a GeoJSON point; coordinates are [lon, lat].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Field is one labelled line of a popup.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// Link is an outbound popup link.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Popup is the kind-specific marker popup.
type Popup struct {
	Title      string  `json:"title"`
	TitleColor string  `json:"titleColor"`
	Fields     []Field `json:"fields"`
	Link       *Link   `json:"link,omitempty"`
}

// Properties are the GeoJSON feature properties of a marker.
type Properties struct {
	Kind  hazard.Kind `json:"kind"`
	Popup Popup       `json:"popup"`
}

// Feature is one marker.
type Feature struct {
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// FeatureCollection is the full marker layer.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Snapshot is the most recent render.
type Snapshot struct {
	Kind       hazard.Kind       `json:"kind"`
	RenderedAt time.Time         `json:"renderedAt"`
	Settings   Settings          `json:"settings"`
	Markers    FeatureCollection `json:"markers"`
}

// Layer implements hazard.Renderer and keeps the latest marker layer.
type Layer struct {
	settings Settings
	now      func() time.Time

	mu      sync.RWMutex
	current Snapshot
}

// NewLayer creates an empty layer.
func NewLayer(settings Settings) *Layer {
	l := &Layer{settings: settings, now: time.Now}
	l.current = Snapshot{
		Kind:     hazard.KindHeat,
		Settings: settings,
		Markers:  FeatureCollection{Type: "FeatureCollection", Features: []Feature{}},
	}
	return l
}

// Render replaces the layer with one marker per point.
func (l *Layer) Render(kind hazard.Kind, points []hazard.Point) {
	features := make([]Feature, 0, len(points))
	for _, p := range points {
		lat, lon := p.Position()
		features = append(features, Feature{
			Type:     "Feature",
			ID:       p.Key(),
			Geometry: Geometry{Type: "Point", Coordinates: [2]float64{lon, lat}},
			Properties: Properties{
				Kind:  kind,
				Popup: popupFor(p),
			},
		})
	}

	snap := Snapshot{
		Kind:       kind,
		RenderedAt: l.now().UTC(),
		Settings:   l.settings,
		Markers:    FeatureCollection{Type: "FeatureCollection", Features: features},
	}

	l.mu.Lock()
	l.current = snap
	l.mu.Unlock()
}

// Snapshot returns the most recent render.
func (l *Layer) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

func popupFor(p hazard.Point) Popup {
	switch v := p.(type) {
	case hazard.HeatPoint:
		return heatPopup(v)
	case hazard.RainPoint:
		return rainPopup(v)
	default:
		return Popup{Title: p.Key(), Fields: []Field{}}
	}
}

func heatPopup(p hazard.HeatPoint) Popup {
	village := common.OrDefault(p.Village, "ไม่ระบุ")
	return Popup{
		Title:      "🔥 จุดความร้อนใน " + p.Province,
		TitleColor: "#dc2626",
		Fields: []Field{
			{Label: "อำเภอ", Value: p.District},
			{Label: "ตำบล", Value: p.SubDistrict},
			{Label: "หมู่บ้าน", Value: village},
			{Label: "วันที่", Value: p.AcqDate},
			{Label: "เวลา", Value: p.AcqTime},
			{Label: "FRP", Value: formatNumber(p.FRP), Color: "#f87171"},
			{Label: "ความเชื่อมั่น", Value: string(p.Confidence), Color: ConfidenceColor(p.Confidence)},
			{Label: "ประเภทที่ดิน", Value: fmt.Sprintf("%s (%s)", p.LandUse, p.LandUseDetail)},
		},
		Link: &Link{Label: "เปิดใน Google Maps", URL: p.MapLink},
	}
}

func rainPopup(p hazard.RainPoint) Popup {
	return Popup{
		Title:      "🌧 ฝน 24 ชั่วโมง",
		TitleColor: "#2563eb",
		Fields: []Field{
			{Label: "สถานี", Value: p.StationName},
			{Label: "จังหวัด", Value: p.Province},
			{Label: "อำเภอ", Value: p.District},
			{Label: "ตำบล", Value: p.SubDistrict},
			{Label: "เวลา", Value: p.RainfallDatetime},
			{Label: "ปริมาณฝน", Value: formatNumber(p.Rain24h) + " มม.", Color: "#0ea5e9"},
			{Label: "หน่วยงาน", Value: p.Agency},
			{Label: "ลุ่มน้ำ", Value: p.Basin},
		},
	}
}

// ConfidenceColor is green for high, yellow for nominal and grey otherwise.
func ConfidenceColor(c hazard.Confidence) string {
	switch c.Level() {
	case hazard.LevelHigh:
		return "#22c55e"
	case hazard.LevelNominal:
		return "#facc15"
	default:
		return "#94a3b8"
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
