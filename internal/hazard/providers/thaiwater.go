package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/hazard-map/internal/hazard"
)

// DefaultRainURL is the ThaiWater public 24-hour rainfall snapshot.
const DefaultRainURL = "https://api-v3.thaiwater.net/api/v1/thaiwater30/public/rain_24h"

// ThaiWaterProvider implements hazard.RainSource for the ThaiWater public API.
type ThaiWaterProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewThaiWaterProvider creates the rain adapter. An empty baseURL selects DefaultRainURL.
func NewThaiWaterProvider(client *http.Client, baseURL string, backoff BackoffConfig) *ThaiWaterProvider {
	if baseURL == "" {
		baseURL = DefaultRainURL
	}
	return &ThaiWaterProvider{
		name:    "thaiwater",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("thaiwater"),
	}
}

func (p *ThaiWaterProvider) Name() string {
	return p.name
}

// FetchRainfall fetches the current snapshot and normalizes every station item.
func (p *ThaiWaterProvider) FetchRainfall(ctx context.Context) (hazard.Batch[hazard.RainPoint], error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return hazard.Batch[hazard.RainPoint]{}, fmt.Errorf("%s: %w", p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return hazard.Batch[hazard.RainPoint]{}, fmt.Errorf("%s: decode response: %w", p.name, err)
	}
	if payload.Data == nil {
		return hazard.Batch[hazard.RainPoint]{}, fmt.Errorf("%s: %w: missing data list", p.name, ErrShapeMismatch)
	}

	return mapRainItems(payload.Data), nil
}

type rainItem struct {
	ID      looseString `json:"id"`
	Station *struct {
		Lat  *float64       `json:"tele_station_lat"`
		Long *float64       `json:"tele_station_long"`
		Name *localizedName `json:"tele_station_name"`
	} `json:"station"`
	Rain24h          looseFloat  `json:"rain_24h"`
	RainfallDatetime looseString `json:"rainfall_datetime"`
	Geocode          *struct {
		Province *localizedName `json:"province_name"`
		Amphoe   *localizedName `json:"amphoe_name"`
		Tumbon   *localizedName `json:"tumbon_name"`
	} `json:"geocode"`
	Agency *struct {
		Name *localizedName `json:"agency_name"`
	} `json:"agency"`
	Basin *struct {
		Name *localizedName `json:"basin_name"`
	} `json:"basin"`
}

var errNoStation = errors.New("item has no station coordinates")

func mapRainItems(raw []json.RawMessage) hazard.Batch[hazard.RainPoint] {
	batch := hazard.Batch[hazard.RainPoint]{Points: make([]hazard.RainPoint, 0, len(raw))}
	for _, r := range raw {
		pt, err := mapRainItem(r)
		if err != nil {
			batch.Skipped++
			continue
		}
		batch.Points = append(batch.Points, pt)
	}
	return batch
}

// mapRainItem converts one station item. Station coordinates are separate
// named fields and are used as-is.
func mapRainItem(raw json.RawMessage) (hazard.RainPoint, error) {
	var it rainItem
	if err := json.Unmarshal(raw, &it); err != nil {
		return hazard.RainPoint{}, err
	}
	if it.Station == nil || it.Station.Lat == nil || it.Station.Long == nil {
		return hazard.RainPoint{}, errNoStation
	}
	lat, lon := *it.Station.Lat, *it.Station.Long
	if err := validCoordinate(lat, lon); err != nil {
		return hazard.RainPoint{}, err
	}

	pt := hazard.RainPoint{
		ID:               string(it.ID),
		Latitude:         lat,
		Longitude:        lon,
		StationName:      thai(it.Station.Name, hazard.Placeholder),
		Rain24h:          float64(it.Rain24h),
		RainfallDatetime: string(it.RainfallDatetime),
		Basin:            hazard.Placeholder,
	}
	if it.Geocode != nil {
		pt.Province = thai(it.Geocode.Province, "")
		pt.District = thai(it.Geocode.Amphoe, "")
		pt.SubDistrict = thai(it.Geocode.Tumbon, "")
	}
	if it.Agency != nil {
		pt.Agency = thai(it.Agency.Name, "")
	}
	if it.Basin != nil {
		pt.Basin = thai(it.Basin.Name, hazard.Placeholder)
	}
	return pt, nil
}
