package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-ai-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-ai-trip-planner/config"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

// DefaultImage is returned whenever no better image can be found.
const DefaultImage = "/travel.jpg"

// Endpoints are the upstream lookup services. Tests point them at httptest servers.
type Endpoints struct {
	Pixabay  string
	Weather  string
	Geoapify string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Pixabay:  "https://pixabay.com/api/",
		Weather:  "https://wttr.in",
		Geoapify: "https://api.geoapify.com/v1/geocode/search",
	}
}

// Service looks up images, weather and coordinates. Lookups never fail:
// errors are logged and a fallback value is returned.
type Service struct {
	logger    *slog.Logger
	cfg       config.EnrichmentConfig
	endpoints Endpoints
	client    *http.Client
	limiter   *rate.Limiter
	tier      SecondTier

	images  *BoundedCache[string]
	weather *BoundedCache[types.Weather]
	places  *BoundedCache[types.GeoPlace]
}

// NewService builds the lookup service. tier may be nil.
func NewService(cfg config.EnrichmentConfig, endpoints Endpoints, tier SecondTier, logger *slog.Logger) *Service {
	if cfg.DefaultImage == "" {
		cfg.DefaultImage = DefaultImage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Service{
		logger:    logger,
		cfg:       cfg,
		endpoints: endpoints,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, burst),
		tier:    tier,
		images:  NewBoundedCache[string](cfg.CacheSize, cfg.ImageTTL),
		weather: NewBoundedCache[types.Weather](cfg.CacheSize, cfg.WeatherTTL),
		places:  NewBoundedCache[types.GeoPlace](cfg.CacheSize, cfg.ImageTTL),
	}
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// FetchByQuery returns an image URL for text, or the default image.
// Failed lookups are not cached so they are tried again later.
func (s *Service) FetchByQuery(ctx context.Context, text string) string {
	q := normalizeQuery(text)
	if q == "" {
		return s.cfg.DefaultImage
	}
	if v, ok := s.images.Get(q); ok {
		s.record(ctx, "image", "cache_hit")
		return v
	}
	if v, ok := s.fromTier(ctx, "image:"+q); ok {
		s.images.Set(q, v)
		s.record(ctx, "image", "tier_hit")
		return v
	}
	if s.cfg.PixabayKey == "" {
		s.logger.DebugContext(ctx, "Pixabay key not set, using fallback image")
		return s.cfg.DefaultImage
	}

	params := url.Values{}
	params.Set("key", s.cfg.PixabayKey)
	params.Set("q", q)
	params.Set("image_type", "photo")
	params.Set("orientation", "horizontal")
	params.Set("per_page", "3")
	params.Set("safesearch", "true")

	var body struct {
		Hits []struct {
			WebformatURL string `json:"webformatURL"`
		} `json:"hits"`
	}
	if err := s.getJSON(ctx, s.endpoints.Pixabay+"?"+params.Encode(), &body); err != nil {
		s.failed(ctx, "image", q, err)
		return s.cfg.DefaultImage
	}

	img := s.cfg.DefaultImage
	if len(body.Hits) > 0 && body.Hits[0].WebformatURL != "" {
		img = body.Hits[0].WebformatURL
	}
	s.images.Set(q, img)
	s.toTier(ctx, "image:"+q, img)
	s.record(ctx, "image", "fetched")
	return img
}

// Weather returns current conditions for loc. Available is false when the
// lookup failed.
func (s *Service) Weather(ctx context.Context, loc string) types.Weather {
	q := normalizeQuery(loc)
	unavailable := types.Weather{Location: strings.TrimSpace(loc)}
	if q == "" {
		return unavailable
	}
	if v, ok := s.weather.Get(q); ok {
		s.record(ctx, "weather", "cache_hit")
		return v
	}

	var body struct {
		CurrentCondition []struct {
			TempC       string `json:"temp_C"`
			FeelsLikeC  string `json:"FeelsLikeC"`
			Humidity    string `json:"humidity"`
			WeatherDesc []struct {
				Value string `json:"value"`
			} `json:"weatherDesc"`
		} `json:"current_condition"`
	}
	endpoint := s.endpoints.Weather + "/" + url.PathEscape(strings.TrimSpace(loc)) + "?format=j1"
	if err := s.getJSON(ctx, endpoint, &body); err != nil {
		s.failed(ctx, "weather", q, err)
		return unavailable
	}
	if len(body.CurrentCondition) == 0 {
		s.failed(ctx, "weather", q, fmt.Errorf("no current conditions"))
		return unavailable
	}

	cc := body.CurrentCondition[0]
	w := types.Weather{
		Location:   strings.TrimSpace(loc),
		TempC:      parseFloat(cc.TempC),
		FeelsLikeC: parseFloat(cc.FeelsLikeC),
		Humidity:   int(parseFloat(cc.Humidity)),
		Available:  true,
	}
	if len(cc.WeatherDesc) > 0 {
		w.Description = strings.TrimSpace(cc.WeatherDesc[0].Value)
	}
	s.weather.Set(q, w)
	s.record(ctx, "weather", "fetched")
	return w
}

// Geocode resolves text to a place. ok is false when nothing matched or the
// lookup failed.
func (s *Service) Geocode(ctx context.Context, text string) (types.GeoPlace, bool) {
	q := normalizeQuery(text)
	if q == "" {
		return types.GeoPlace{}, false
	}
	if v, ok := s.places.Get(q); ok {
		s.record(ctx, "geocode", "cache_hit")
		return v, true
	}
	if s.cfg.GeoapifyKey == "" {
		return types.GeoPlace{}, false
	}

	params := url.Values{}
	params.Set("text", strings.TrimSpace(text))
	params.Set("limit", "1")
	params.Set("apiKey", s.cfg.GeoapifyKey)

	var body struct {
		Features []struct {
			Properties struct {
				Formatted string  `json:"formatted"`
				City      string  `json:"city"`
				Country   string  `json:"country"`
				Lat       float64 `json:"lat"`
				Lon       float64 `json:"lon"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := s.getJSON(ctx, s.endpoints.Geoapify+"?"+params.Encode(), &body); err != nil {
		s.failed(ctx, "geocode", q, err)
		return types.GeoPlace{}, false
	}
	if len(body.Features) == 0 {
		s.record(ctx, "geocode", "no_match")
		return types.GeoPlace{}, false
	}

	p := body.Features[0].Properties
	place := types.GeoPlace{Formatted: p.Formatted, City: p.City, Country: p.Country, Lat: p.Lat, Lon: p.Lon}
	s.places.Set(q, place)
	s.record(ctx, "geocode", "fetched")
	return place, true
}

// EnrichTrip attaches a cover image, weather, coordinates and images for
// hotels and activities that have none. Lookups run concurrently.
func (s *Service) EnrichTrip(ctx context.Context, trip types.Trip) types.EnrichedTrip {
	ctx, span := otel.Tracer("EnrichmentService").Start(ctx, "EnrichTrip")
	defer span.End()

	location := trip.Plan.Location
	if location == "" {
		location = trip.UserSelection.Location
	}
	span.SetAttributes(attribute.String("trip.location", location))

	out := types.EnrichedTrip{Trip: trip}
	out.Trip.Plan.HotelOptions = append([]types.Hotel(nil), trip.Plan.HotelOptions...)
	out.Trip.Plan.Itinerary = make([]types.DayPlan, len(trip.Plan.Itinerary))
	for i, day := range trip.Plan.Itinerary {
		day.Activities = append([]types.Activity(nil), day.Activities...)
		out.Trip.Plan.Itinerary[i] = day
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	g.Go(func() error {
		out.CoverImage = s.FetchByQuery(gctx, location)
		return nil
	})
	g.Go(func() error {
		out.Weather = s.Weather(gctx, location)
		return nil
	})
	g.Go(func() error {
		if place, ok := s.Geocode(gctx, location); ok {
			out.Place = place
		}
		return nil
	})
	for i := range out.Trip.Plan.HotelOptions {
		h := &out.Trip.Plan.HotelOptions[i]
		if h.ImageURL != "" {
			continue
		}
		g.Go(func() error {
			h.ImageURL = s.FetchByQuery(gctx, h.Name+" "+location)
			return nil
		})
	}
	for d := range out.Trip.Plan.Itinerary {
		acts := out.Trip.Plan.Itinerary[d].Activities
		for i := range acts {
			a := &acts[i]
			if a.ImageURL != "" {
				continue
			}
			g.Go(func() error {
				a.ImageURL = s.FetchByQuery(gctx, a.Name+" "+location)
				return nil
			})
		}
	}
	_ = g.Wait()

	if out.Place.Formatted == "" {
		out.Place.Formatted = location
	}
	return out
}

func (s *Service) getJSON(ctx context.Context, endpoint string, v any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding upstream response: %w", err)
	}
	return nil
}

func (s *Service) fromTier(ctx context.Context, key string) (string, bool) {
	if s.tier == nil {
		return "", false
	}
	v, ok, err := s.tier.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "Second tier cache read failed", slog.String("key", key), slog.Any("error", err))
		return "", false
	}
	return v, ok
}

func (s *Service) toTier(ctx context.Context, key, value string) {
	if s.tier == nil {
		return
	}
	if err := s.tier.Set(ctx, key, value); err != nil {
		s.logger.WarnContext(ctx, "Second tier cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Service) failed(ctx context.Context, kind, q string, err error) {
	err = fmt.Errorf("%w: %s %q: %w", types.ErrEnrichmentFailure, kind, q, err)
	s.logger.WarnContext(ctx, "Enrichment lookup failed", slog.String("kind", kind), slog.Any("error", err))
	s.record(ctx, kind, "error")
}

func (s *Service) record(ctx context.Context, kind, result string) {
	metrics.Get().EnrichmentLookupsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	))
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
