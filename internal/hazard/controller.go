package hazard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/i474232898/hazard-map/internal/common"
	"github.com/i474232898/hazard-map/internal/observability"
)

var (
	// ErrUnknownKind is returned when a dataset kind other than heat or rain is selected.
	ErrUnknownKind = errors.New("unknown dataset kind")

	errNoHeatSource = errors.New("no heat provider configured")
	errNoRainSource = errors.New("no rain provider configured")
)

// FetchStatus describes the last applied fetch for one dataset kind.
type FetchStatus struct {
	FetchID   string    `json:"fetch_id,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	Points    int       `json:"points"`
	Skipped   int       `json:"skipped"`
	LastError string    `json:"last_error,omitempty"`
	InFlight  bool      `json:"in_flight"`
}

// View is a consistent snapshot of the presentation state.
type View struct {
	Kind         Kind                 `json:"kind"`
	Province     string               `json:"province"`
	AllProvinces bool                 `json:"all_provinces"`
	SidebarOpen  bool                 `json:"sidebar_open"`
	Provinces    []string             `json:"provinces"`
	Heat         []HeatPoint          `json:"heat"`
	Rain         []RainPoint          `json:"rain"`
	Status       map[Kind]FetchStatus `json:"status"`

	Filter ProvinceFilter `json:"-"`
}

// Points returns the displayed points of the active kind.
func (v View) Points() []Point {
	if v.Kind == KindRain {
		return asPoints(v.Rain)
	}
	return asPoints(v.Heat)
}

// Options configures a Controller. Zero values fall back to sensible defaults.
type Options struct {
	DefaultKind Kind
	SidebarOpen bool
	APIKey      string

	Logger  *zap.Logger
	Metrics *observability.Metrics
	Clock   clockwork.Clock
}

// Controller owns the view-selection state and the last fetched list for
// each dataset kind. Every fetch is tagged with a generation number and its
// result is applied only while that generation is still the newest one.
type Controller struct {
	heat     HeatSource
	rain     RainSource
	renderer Renderer

	logger  *zap.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	mu          sync.Mutex
	kind        Kind
	apiKey      string
	heatPoints  []HeatPoint
	rainPoints  []RainPoint
	provinces   []string
	filter      ProvinceFilter
	sidebarOpen bool
	status      map[Kind]FetchStatus
	seq         uint64
	pending     map[Kind]uint64
}

// NewController creates a Controller. renderer may be nil.
func NewController(heat HeatSource, rain RainSource, renderer Renderer, opts Options) *Controller {
	kind := opts.DefaultKind
	if kind != KindRain {
		kind = KindHeat
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Controller{
		heat:        heat,
		rain:        rain,
		renderer:    renderer,
		logger:      opts.Logger.Named("controller"),
		metrics:     opts.Metrics,
		clock:       opts.Clock,
		kind:        kind,
		apiKey:      opts.APIKey,
		heatPoints:  []HeatPoint{},
		rainPoints:  []RainPoint{},
		provinces:   []string{},
		filter:      AllProvinces(),
		sidebarOpen: opts.SidebarOpen,
		status:      make(map[Kind]FetchStatus),
		pending:     make(map[Kind]uint64),
	}
}

// Start performs the initial fetch for the default dataset kind.
func (c *Controller) Start(ctx context.Context) {
	c.Refresh(ctx)
}

// Refresh re-fetches the active dataset kind.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	kind, gen, apiKey := c.kind, c.beginLocked(c.kind), c.apiKey
	c.mu.Unlock()

	c.fetch(ctx, gen, kind, apiKey)
}

// SelectKind switches the active dataset. Selecting the active kind is a
// no-op; otherwise the stored list for the new kind is rendered straight away
// and replaced once its fetch completes. The other kind's list is untouched.
func (c *Controller) SelectKind(ctx context.Context, kind Kind) error {
	if kind != KindHeat && kind != KindRain {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	c.mu.Lock()
	if c.kind == kind {
		c.mu.Unlock()
		return nil
	}
	c.kind = kind
	gen, apiKey := c.beginLocked(kind), c.apiKey
	c.renderLocked()
	c.mu.Unlock()

	c.logger.Debug("dataset kind selected", zap.String("kind", string(kind)))
	c.fetch(ctx, gen, kind, apiKey)
	return nil
}

// SetAPIKey replaces the heat provider credential and, when it changed,
// re-fetches the active dataset kind.
func (c *Controller) SetAPIKey(ctx context.Context, apiKey string) {
	c.mu.Lock()
	if c.apiKey == apiKey {
		c.mu.Unlock()
		return
	}
	c.apiKey = apiKey
	kind := c.kind
	gen := c.beginLocked(kind)
	c.mu.Unlock()

	c.logger.Info("api credential changed", zap.Bool("empty", apiKey == ""))
	c.fetch(ctx, gen, kind, apiKey)
}

// SelectProvince changes the rain filter. Stored points are not modified and
// the selection survives dataset switches.
func (c *Controller) SelectProvince(f ProvinceFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filter = f
	if c.kind == KindRain {
		c.renderLocked()
	}
}

// SetSidebar shows or hides the sidebar.
func (c *Controller) SetSidebar(open bool) {
	c.mu.Lock()
	c.sidebarOpen = open
	c.mu.Unlock()
}

// ToggleSidebar flips sidebar visibility and returns the new value.
func (c *Controller) ToggleSidebar() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sidebarOpen = !c.sidebarOpen
	return c.sidebarOpen
}

// HeatPoints returns a copy of the stored heat list.
func (c *Controller) HeatPoints() []HeatPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.heatPoints)
}

// RainPoints returns a copy of the stored, unfiltered rain list.
func (c *Controller) RainPoints() []RainPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.rainPoints)
}

// Provinces returns the province facet of the stored rain list.
func (c *Controller) Provinces() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.provinces)
}

// View returns a snapshot of the current presentation state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Kind:         c.kind,
		Province:     c.filter.Label(),
		AllProvinces: c.filter.All(),
		SidebarOpen:  c.sidebarOpen,
		Provinces:    slices.Clone(c.provinces),
		Status:       make(map[Kind]FetchStatus, len(c.status)),
		Heat:         []HeatPoint{},
		Rain:         []RainPoint{},
		Filter:       c.filter,
	}
	for k, s := range c.status {
		v.Status[k] = s
	}
	if c.kind == KindRain {
		v.Rain = slices.Clone(FilterByProvince(c.rainPoints, c.filter))
	} else {
		v.Heat = slices.Clone(c.heatPoints)
	}
	return v
}

// beginLocked starts a new fetch generation. c.mu must be held.
func (c *Controller) beginLocked(kind Kind) uint64 {
	c.seq++
	c.pending[kind] = c.seq
	s := c.status[kind]
	s.InFlight = true
	c.status[kind] = s
	return c.seq
}

func (c *Controller) fetch(ctx context.Context, gen uint64, kind Kind, apiKey string) {
	fetchID := uuid.NewString()
	log := c.logger.With(
		zap.String("kind", string(kind)),
		zap.String("fetch_id", fetchID),
		zap.Uint64("generation", gen),
	)
	start := c.clock.Now()

	var (
		heat    []HeatPoint
		rain    []RainPoint
		skipped int
		err     error
	)
	switch kind {
	case KindHeat:
		if c.heat == nil {
			err = errNoHeatSource
			break
		}
		var b Batch[HeatPoint]
		b, err = c.heat.FetchHotspots(ctx, apiKey)
		heat, skipped = b.Points, b.Skipped
	case KindRain:
		if c.rain == nil {
			err = errNoRainSource
			break
		}
		var b Batch[RainPoint]
		b, err = c.rain.FetchRainfall(ctx)
		rain, skipped = b.Points, b.Skipped
	}

	c.metrics.FetchDuration.WithLabelValues(string(kind)).Observe(c.clock.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending[kind] == gen {
		delete(c.pending, kind)
		s := c.status[kind]
		s.InFlight = false
		c.status[kind] = s
	}

	if gen != c.seq {
		c.metrics.StaleResponses.WithLabelValues(string(kind)).Inc()
		log.Info("discarding stale fetch result", zap.Uint64("latest_generation", c.seq))
		return
	}

	status := FetchStatus{
		FetchID:   fetchID,
		FetchedAt: c.clock.Now().UTC(),
		Skipped:   skipped,
	}

	if err != nil {
		log.Error("dataset fetch failed; clearing points", zap.Error(err))
		c.metrics.Fetches.WithLabelValues(string(kind), fetchOutcome(err)).Inc()
		status.LastError = err.Error()
		status.Skipped = 0
		heat, rain = nil, nil
	} else {
		c.metrics.Fetches.WithLabelValues(string(kind), "success").Inc()
		if skipped > 0 {
			c.metrics.SkippedRecords.WithLabelValues(string(kind)).Add(float64(skipped))
			log.Warn("provider records skipped", zap.Int("skipped", skipped))
		}
	}

	switch kind {
	case KindHeat:
		if heat == nil {
			heat = []HeatPoint{}
		}
		c.heatPoints = heat
		status.Points = len(heat)
	case KindRain:
		if rain == nil {
			rain = []RainPoint{}
		}
		c.rainPoints = rain
		c.provinces = Provinces(rain)
		status.Points = len(rain)
	}
	c.status[kind] = status
	c.metrics.Points.WithLabelValues(string(kind)).Set(float64(status.Points))

	log.Info("dataset fetch applied", zap.Int("points", status.Points), zap.Int("skipped", status.Skipped))

	if kind == c.kind {
		c.renderLocked()
	}
}

// renderLocked hands the displayed points to the renderer. Rendering happens
// under c.mu so renders reach the renderer in state order.
func (c *Controller) renderLocked() {
	if c.renderer == nil {
		return
	}
	var points []Point
	if c.kind == KindRain {
		points = asPoints(FilterByProvince(c.rainPoints, c.filter))
	} else {
		points = asPoints(c.heatPoints)
	}
	c.metrics.Renders.WithLabelValues(string(c.kind)).Inc()
	c.renderer.Render(c.kind, points)
}

func fetchOutcome(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || common.HasAny(err.Error(), "Client.Timeout", "timeout") {
		return "timeout"
	}
	return "error"
}

func asPoints[P Point](in []P) []Point {
	out := make([]Point, len(in))
	for i, p := range in {
		out[i] = p
	}
	return out
}
