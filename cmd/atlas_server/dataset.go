package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/researchatlas/engine/internal/config"
	"github.com/researchatlas/engine/internal/dataset"
	"github.com/researchatlas/engine/internal/geocode"
	"github.com/researchatlas/engine/internal/loader"
	"github.com/researchatlas/engine/internal/source"
	"github.com/researchatlas/engine/pkg/core"
)

// loadDataset produces the engine's point set and stamps the dataset
// context. Demo mode serves the built-in sample and skips geocoding.
func loadDataset(ctx context.Context, zlog zerolog.Logger, datasetCtx *dataset.Context, demo bool) ([]core.GeoPoint, error) {
	if demo {
		points := demoPoints()
		datasetCtx.Set(dataset.Info{Name: "demo", Source: "builtin"})
		datasetCtx.SetCounts(len(points), len(points), 0)
		Logger.Info("Loaded built-in demo dataset", "points", len(points))
		return points, nil
	}

	cfg := config.GetDatasetConfig()
	src, err := source.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolving dataset source: %w", err)
	}

	rc, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching dataset: %w", err)
	}
	defer rc.Close()

	records, err := loader.New(Logger).Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}

	geoCfg := config.GetGeocoderConfig()

	var client *geocode.Client
	if geoCfg.Enabled {
		client = geocode.NewClient(geoCfg)
		if err := client.Healthcheck(); err != nil {
			Logger.Warn("Geocoder unreachable, records without coordinates will be dropped", "error", err)
			client = nil
		}
	}

	var cache *geocode.Store
	if geoCfg.CacheEnabled {
		cache = geocode.NewStore(zlog)
		if err := cache.Connect(config.GetDBConfig()); err != nil {
			Logger.Warn("Geocode cache unavailable, continuing without it", "error", err)
			cache = nil
		} else if err := cache.Setup(); err != nil {
			Logger.Warn("Geocode cache migration failed, continuing without it", "error", err)
			cache = nil
		}
	}

	resolver := geocode.NewResolver(client, cache, geoCfg.RequestInterval, Logger)
	points := resolver.Resolve(ctx, records)

	datasetCtx.Set(dataset.Info{Name: cfg.Name, Source: src.Describe()})
	datasetCtx.SetCounts(len(records), len(points), len(records)-len(points))

	Logger.Info("Dataset loaded",
		"name", cfg.Name,
		"source", src.Describe(),
		"rows", len(records),
		"points", len(points))

	return points, nil
}

// demoPoints is a hand-placed sample with points in every tour tier so
// the clustering, panel and tour paths can be exercised offline.
func demoPoints() []core.GeoPoint {
	return []core.GeoPoint{
		{
			Name: "Alpine Snowpack Sensors", Researcher: "Dana Reyes",
			Description: "Telemetry network tracking snow water equivalent across the Wasatch front.",
			Lat:         40.7649, Lon: -111.8421,
			Department: "Atmospheric Sciences", Term: "Fall 24", Type: "field",
			MapFocus: core.FocusCampus, GeoFocus: "Wasatch Range",
		},
		{
			Name: "Campus Air Quality Grid", Researcher: "Miguel Torres",
			Description: "Low-cost particulate sensors on every building roofline.",
			Lat:         40.7627, Lon: -111.8366,
			Department: "Atmospheric Sciences", Term: "Spring 25", Type: "field",
			MapFocus: core.FocusCampus,
		},
		{
			Name: "Seismic Retrofit Survey", Researcher: "Kim Lee",
			Description: "Structural assessment of unreinforced masonry housing stock.",
			Lat:         40.7608, Lon: -111.8910,
			Department: "Civil Engineering", Term: "Spring 24", Type: "survey",
			MapFocus: core.FocusRegion, GeoFocus: "Salt Lake Valley",
		},
		{
			Name: "Great Salt Lake Microbialites", Researcher: "Priya Nair",
			Description: "Microbial carbonate structures exposed by the receding lakeshore.",
			Lat:         41.0702, Lon: -112.5120,
			Department: "Biology", Term: "Summer 24", Type: "field",
			MapFocus: core.FocusRegion, GeoFocus: "Great Salt Lake",
		},
		{
			Name: "Bonneville Basin Paleohydrology", Researcher: "Ana Silva",
			Description: "Shoreline dating across pluvial lake terraces.",
			Lat:         40.4555, Lon: -113.3969,
			Department: "Geology", Term: "Fall 23", Type: "field",
			MapFocus: core.FocusRegion,
		},
		{
			Name: "Navajo Nation Water Access", Researcher: "Sam Begay",
			Description: "Household water hauling costs and point-of-use treatment uptake.",
			Lat:         36.0672, Lon: -109.1881,
			Department: "Public Health", Term: "Spring 24", Type: "survey",
			MapFocus: core.FocusWorld, GeoFocus: "Four Corners",
		},
		{
			Name: "Gulf Coast Wetland Carbon", Researcher: "Joelle Martin",
			Description: "Blue carbon flux towers in restored salt marsh.",
			Lat:         29.2366, Lon: -90.6632,
			Department: "Biology", Term: "Summer 25", Type: "field",
			MapFocus: core.FocusWorld, GeoFocus: "Louisiana",
			Collaborator: "LUMCON",
		},
		{
			Name: "Andean Glacier Mass Balance", Researcher: "Lucia Vargas",
			Description: "Stake network and ablation modeling on Quelccaya.",
			Lat:         -13.9333, Lon: -70.8236,
			Department: "Geology", Term: "Summer 24", Type: "field",
			MapFocus: core.FocusWorld, GeoFocus: "Peru",
			Links: []string{"https://example.edu/projects/quelccaya"},
		},
		{
			Name: "Mekong Delta Salinity Intrusion", Researcher: "Thanh Pham",
			Description: "Farmer adaptation to dry-season saltwater lines.",
			Lat:         9.8349, Lon: 105.8019,
			Department: "Public Health", Term: "Spring 25", Type: "survey",
			MapFocus: core.FocusWorld, GeoFocus: "Vietnam",
		},
		{
			Name: "Reef Soundscape Monitoring", Researcher: "Ana Silva",
			Description: "Passive acoustics distinguishing recovering from degraded reefs.",
			Lat:         -18.2871, Lon: 147.6992,
			Department: "Biology", Term: "Fall 24", Type: "field",
			MapFocus: core.FocusWorld, GeoFocus: "Great Barrier Reef",
			Collaborator: "AIMS",
		},
	}
}
