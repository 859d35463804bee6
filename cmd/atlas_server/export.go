package main

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/researchatlas/engine/internal/config"
	"github.com/researchatlas/engine/internal/dataset"
	"github.com/researchatlas/engine/internal/export"
	v1 "github.com/researchatlas/engine/internal/export/v1"
	"github.com/researchatlas/engine/internal/store"
)

const defaultExportPath = "atlas_dataset.json"

// runExport loads the configured dataset and writes it to a file: the
// versioned dataset payload by default, GeoJSON when the path says so.
// A .gz suffix gzips the output.
func runExport(ctx context.Context, zlog zerolog.Logger, args []string) int {
	datasetCtx := dataset.NewContext()
	points, err := loadDataset(ctx, zlog, datasetCtx, false)
	if err != nil {
		Logger.Error("Failed to load dataset", "error", err)
		return 1
	}

	path := defaultExportPath
	if len(args) > 0 {
		path = args[0]
	}
	gzipped := strings.HasSuffix(path, ".gz")

	var payload any
	if strings.HasSuffix(strings.TrimSuffix(path, ".gz"), ".geojson") {
		fc, err := export.GeoJSON(points, export.CRS4326)
		if err != nil {
			Logger.Error("Failed to build GeoJSON", "error", err)
			return 1
		}
		payload = fc
	} else {
		st := store.New(points)
		payload = v1.Build(v1.DatasetData{
			Info:      datasetCtx.Get(),
			Points:    st.All(),
			Facets:    st.Facets(),
			Presets:   config.GetViewConfig().Presets,
			Durations: config.GetTourConfig().Durations,
		})
	}

	if err := export.WriteFile(path, payload, gzipped); err != nil {
		Logger.Error("Export failed", "path", path, "error", err)
		return 1
	}

	Logger.Info("Export written", "path", path, "gzipped", gzipped)
	return 0
}
