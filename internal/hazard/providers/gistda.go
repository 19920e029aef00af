package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/hazard-map/internal/hazard"
)

const (
	// DefaultHeatURL is the GISTDA VIIRS one-day hotspot feature endpoint.
	DefaultHeatURL = "https://api-gateway.gistda.or.th/api/2.0/resources/features/viirs/1day"

	heatPageSize     = 100
	heatOffset       = 0
	heatCountryScope = "ราชอาณาจักรไทย"
)

// GISTDAProvider implements hazard.HeatSource for the GISTDA hotspot API.
type GISTDAProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewGISTDAProvider creates the heat adapter. An empty baseURL selects DefaultHeatURL.
func NewGISTDAProvider(client *http.Client, baseURL string, backoff BackoffConfig) *GISTDAProvider {
	if baseURL == "" {
		baseURL = DefaultHeatURL
	}
	return &GISTDAProvider{
		name:    "gistda",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("gistda"),
	}
}

func (p *GISTDAProvider) Name() string {
	return p.name
}

// FetchHotspots performs one bounded fetch and normalizes every feature.
// An empty apiKey is still sent; the provider's rejection surfaces as an error.
func (p *GISTDAProvider) FetchHotspots(ctx context.Context, apiKey string) (hazard.Batch[hazard.HeatPoint], error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("limit", strconv.Itoa(heatPageSize))
		values.Set("offset", strconv.Itoa(heatOffset))
		values.Set("ct_tn", heatCountryScope)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api-key", apiKey)
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return hazard.Batch[hazard.HeatPoint]{}, fmt.Errorf("%s: %w", p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return hazard.Batch[hazard.HeatPoint]{}, fmt.Errorf("%s: decode response: %w", p.name, err)
	}
	if payload.Features == nil {
		return hazard.Batch[hazard.HeatPoint]{}, fmt.Errorf("%s: %w: missing features list", p.name, ErrShapeMismatch)
	}

	return mapHeatFeatures(payload.Features), nil
}

type heatFeature struct {
	ID       looseString `json:"id"`
	Geometry *struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties *heatProperties `json:"properties"`
}

type heatProperties struct {
	ProvinceTH  looseString  `json:"pv_tn"`
	ProvinceEN  looseString  `json:"pv_en"`
	Amphoe      looseString  `json:"amphoe"`
	Tambol      looseString  `json:"tambol"`
	Village     *looseString `json:"village"`
	AcqDate     looseString  `json:"acq_date"`
	AcqTime     looseString  `json:"acq_time"`
	FRP         looseFloat   `json:"frp"`
	Confidence  looseString  `json:"confidence"`
	LandUse     looseString  `json:"lu_name"`
	LandUseName looseString  `json:"lu_hp_name"`
	MapLink     looseString  `json:"linkgmap"`
}

var errNoGeometry = errors.New("feature has no point geometry")

func mapHeatFeatures(raw []json.RawMessage) hazard.Batch[hazard.HeatPoint] {
	batch := hazard.Batch[hazard.HeatPoint]{Points: make([]hazard.HeatPoint, 0, len(raw))}
	for _, r := range raw {
		pt, err := mapHeatFeature(r)
		if err != nil {
			batch.Skipped++
			continue
		}
		batch.Points = append(batch.Points, pt)
	}
	return batch
}

// mapHeatFeature converts one GeoJSON feature. Coordinates arrive as
// [lon, lat] and are swapped into the point's latitude and longitude.
func mapHeatFeature(raw json.RawMessage) (hazard.HeatPoint, error) {
	var f heatFeature
	if err := json.Unmarshal(raw, &f); err != nil {
		return hazard.HeatPoint{}, err
	}
	if f.Geometry == nil || len(f.Geometry.Coordinates) < 2 {
		return hazard.HeatPoint{}, errNoGeometry
	}
	lon, lat := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
	if err := validCoordinate(lat, lon); err != nil {
		return hazard.HeatPoint{}, err
	}

	props := f.Properties
	if props == nil {
		props = &heatProperties{}
	}
	if props.FRP < 0 {
		return hazard.HeatPoint{}, fmt.Errorf("negative frp %v", float64(props.FRP))
	}

	pt := hazard.HeatPoint{
		ID:            string(f.ID),
		Latitude:      lat,
		Longitude:     lon,
		Province:      props.ProvinceTH.normalized(),
		ProvinceEN:    props.ProvinceEN.normalized(),
		District:      props.Amphoe.normalized(),
		SubDistrict:   props.Tambol.normalized(),
		AcqDate:       string(props.AcqDate),
		AcqTime:       string(props.AcqTime),
		FRP:           float64(props.FRP),
		Confidence:    hazard.Confidence(props.Confidence),
		LandUse:       props.LandUse.normalized(),
		LandUseDetail: props.LandUseName.normalized(),
		MapLink:       string(props.MapLink),
	}
	if props.Village != nil {
		pt.Village = props.Village.normalized()
		pt.HasVillage = true
	}
	return pt, nil
}
