package hazard

import (
	"context"
)

// HeatSource fetches the latest heat detections. The credential is passed per
// call so the controller can swap it without rebuilding the provider.
type HeatSource interface {
	Name() string
	FetchHotspots(ctx context.Context, apiKey string) (Batch[HeatPoint], error)
}

// RainSource fetches the current 24-hour rainfall snapshot.
type RainSource interface {
	Name() string
	FetchRainfall(ctx context.Context) (Batch[RainPoint], error)
}

// Renderer draws one marker per point for the given dataset kind.
type Renderer interface {
	Render(kind Kind, points []Point)
}
