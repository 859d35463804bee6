package geocode

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/researchatlas/engine/internal/loader"
	"github.com/researchatlas/engine/internal/queue"
	"github.com/researchatlas/engine/pkg/core"
)

const defaultInterval = time.Second

// Resolver turns loader records into geo points. Records with explicit
// coordinates pass straight through; the rest go through the cache and,
// on a miss, the geocoding service.
type Resolver struct {
	client   *Client
	store    *Store
	interval time.Duration
	log      *slog.Logger
	pending  *queue.Queue[loader.Record]
}

// NewResolver wires a resolver. client may be nil when the geocoder is
// disabled; store may be nil when the cache is disabled.
func NewResolver(client *Client, store *Store, interval time.Duration, log *slog.Logger) *Resolver {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		client:   client,
		store:    store,
		interval: interval,
		log:      log,
		pending:  queue.New[loader.Record](),
	}
}

// Resolve locates every record it can and returns the points in input
// order. Service calls are spaced by the configured request interval.
// Cancelling the context stops outstanding work; records already located
// are still returned.
func (r *Resolver) Resolve(ctx context.Context, records []loader.Record) []core.GeoPoint {
	for _, rec := range records {
		r.pending.Push(rec)
	}

	points := make([]core.GeoPoint, 0, len(records))
	var fromCache, fromService, dropped int

	var ticker *time.Ticker
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		rec, ok := r.pending.TryPop()
		if !ok {
			break
		}

		if rec.HasCoords {
			points = append(points, rec.Point())
			continue
		}

		if entry, ok := r.cacheGet(rec.Location); ok {
			rec.Lat, rec.Lon, rec.HasCoords = entry.Lat, entry.Lon, true
			points = append(points, rec.Point())
			fromCache++
			continue
		}

		if r.client == nil {
			r.log.Warn("geocoder disabled, dropping record", "name", rec.Name, "location", rec.Location)
			dropped++
			continue
		}

		if ticker == nil {
			ticker = time.NewTicker(r.interval)
		}
		select {
		case <-ctx.Done():
			remaining := r.pending.Len() + 1
			r.log.Warn("geocoding cancelled", "unresolved", remaining)
			return points
		case <-ticker.C:
		}

		result, err := r.client.Lookup(ctx, rec.Location)
		if err != nil {
			r.log.Warn("dropping record, geocoding failed", "name", rec.Name, "location", rec.Location, "error", err)
			dropped++
			continue
		}

		rec.Lat, rec.Lon, rec.HasCoords = result.Lat, result.Lon, true
		points = append(points, rec.Point())
		fromService++
		r.cachePut(rec.Location, result)
	}

	r.log.Info("resolved dataset locations",
		"points", len(points),
		"cached", fromCache,
		"geocoded", fromService,
		"dropped", dropped)
	return points
}

func (r *Resolver) cacheGet(query string) (CacheEntry, bool) {
	if r.store == nil {
		return CacheEntry{}, false
	}
	return r.store.Get(query)
}

func (r *Resolver) cachePut(query string, result Result) {
	if r.store == nil {
		return
	}
	err := r.store.Put(CacheEntry{
		Query:       query,
		Lat:         result.Lat,
		Lon:         result.Lon,
		DisplayName: result.DisplayName,
		Raw:         datatypes.JSON(result.Raw),
	})
	if err != nil {
		r.log.Warn("failed to cache geocode result", "query", query, "error", err)
	}
}
