package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/hazard-map/internal/hazard"
)

func TestThaiWater_FetchRainfall_EmptyNestedNames(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"data":[{
		"id": 1,
		"station": {"tele_station_lat": 14, "tele_station_long": 101, "tele_station_name": {}},
		"rain_24h": 5,
		"rainfall_datetime": "2024-01-01",
		"geocode": {},
		"agency": {},
		"basin": null
	}]}`)

	p := NewThaiWaterProvider(srv.Client(), srv.URL, testBackoff())
	batch, err := p.FetchRainfall(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Points, 1)

	pt := batch.Points[0]
	assert.Equal(t, "1", pt.ID)
	assert.Equal(t, 14.0, pt.Latitude)
	assert.Equal(t, 101.0, pt.Longitude)
	assert.Equal(t, hazard.Placeholder, pt.StationName)
	assert.Equal(t, hazard.Placeholder, pt.Basin)
	assert.Equal(t, "", pt.Province)
	assert.Equal(t, "", pt.District)
	assert.Equal(t, "", pt.SubDistrict)
	assert.Equal(t, "", pt.Agency)
	assert.Equal(t, 5.0, pt.Rain24h)
	assert.Equal(t, "2024-01-01", pt.RainfallDatetime)
}

func TestThaiWater_FetchRainfall_BlankThaiNamesStayBlank(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"data":[{
		"id": 7,
		"station": {"tele_station_lat": 14, "tele_station_long": 101, "tele_station_name": {"th": "", "en": "X"}},
		"geocode": {"province_name": {"th": "  "}},
		"basin": {"basin_name": {"th": ""}}
	}]}`)

	p := NewThaiWaterProvider(srv.Client(), srv.URL, testBackoff())
	batch, err := p.FetchRainfall(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Points, 1)

	pt := batch.Points[0]
	assert.Equal(t, "", pt.StationName)
	assert.Equal(t, "", pt.Basin)
	assert.Equal(t, "", pt.Province)
}

func TestThaiWater_FetchRainfall_MissingNestedObjects(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"data":[
		{"id":"s1","station":{"tele_station_lat":13.5,"tele_station_long":100.2},"rain_24h":null},
		{"id":"s2","station":{"tele_station_lat":13.6,"tele_station_long":100.3,"tele_station_name":null},
		 "basin":{"basin_name":{"en":"Chao Phraya"}}}
	]}`)

	p := NewThaiWaterProvider(srv.Client(), srv.URL, testBackoff())
	batch, err := p.FetchRainfall(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Points, 2)

	for _, pt := range batch.Points {
		assert.Equal(t, hazard.Placeholder, pt.StationName, pt.ID)
		assert.Equal(t, hazard.Placeholder, pt.Basin, pt.ID)
		assert.Equal(t, "", pt.Province, pt.ID)
		assert.Equal(t, "", pt.Agency, pt.ID)
		assert.Equal(t, 0.0, pt.Rain24h, pt.ID)
	}
}

func TestThaiWater_FetchRainfall_FullItem(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"result":"OK","data":[{
		"id": 9001,
		"station": {
			"tele_station_lat": 18.79, "tele_station_long": 98.98,
			"tele_station_name": {"th": "สถานีแม่ริม", "en": "Mae Rim"}
		},
		"rain_24h": "12.5",
		"rainfall_datetime": "2024-08-01 07:00",
		"geocode": {
			"province_name": {"th": "เชียงใหม่ "},
			"amphoe_name": {"th": "แม่ริม"},
			"tumbon_name": {"th": "ริมใต้"}
		},
		"agency": {"agency_name": {"th": "กรมชลประทาน"}},
		"basin": {"basin_name": {"th": "แม่น้ำปิง"}}
	}]}`)

	p := NewThaiWaterProvider(srv.Client(), srv.URL, testBackoff())
	batch, err := p.FetchRainfall(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Points, 1)

	pt := batch.Points[0]
	assert.Equal(t, "9001", pt.ID)
	assert.Equal(t, 18.79, pt.Latitude)
	assert.Equal(t, 98.98, pt.Longitude)
	assert.Equal(t, "สถานีแม่ริม", pt.StationName)
	assert.Equal(t, 12.5, pt.Rain24h)
	assert.Equal(t, "เชียงใหม่", pt.Province)
	assert.Equal(t, "แม่ริม", pt.District)
	assert.Equal(t, "ริมใต้", pt.SubDistrict)
	assert.Equal(t, "กรมชลประทาน", pt.Agency)
	assert.Equal(t, "แม่น้ำปิง", pt.Basin)
}

func TestThaiWater_FetchRainfall_SkipsItemsWithoutStation(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{"data":[
		{"id":1,"station":{"tele_station_lat":14,"tele_station_long":101}},
		{"id":2},
		{"id":3,"station":{"tele_station_lat":14}},
		{"id":4,"station":{"tele_station_lat":"x","tele_station_long":101}}
	]}`)

	p := NewThaiWaterProvider(srv.Client(), srv.URL, testBackoff())
	batch, err := p.FetchRainfall(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Points, 1)
	assert.Equal(t, "1", batch.Points[0].ID)
	assert.Equal(t, 3, batch.Skipped)
}

func TestThaiWater_FetchRainfall_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, target: ErrUnexpectedStatus},
		{name: "not found", status: http.StatusNotFound, body: `{}`, target: ErrUnexpectedStatus},
		{name: "missing data", status: http.StatusOK, body: `{"result":"OK"}`, target: ErrShapeMismatch},
		{name: "malformed json", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveJSON(t, tt.status, tt.body)
			p := NewThaiWaterProvider(srv.Client(), srv.URL, testBackoff())

			batch, err := p.FetchRainfall(context.Background())
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.Empty(t, batch.Points)
		})
	}
}

func TestThaiWater_FetchRainfall_SendsNoCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		assert.Empty(t, r.Header.Get("api-key"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	p := NewThaiWaterProvider(srv.Client(), srv.URL, testBackoff())
	batch, err := p.FetchRainfall(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Points)
}
