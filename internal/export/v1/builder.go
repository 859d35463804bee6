package v1

import (
	"strings"
	"time"

	"github.com/researchatlas/engine/internal/config"
	"github.com/researchatlas/engine/internal/dataset"
	"github.com/researchatlas/engine/pkg/core"
)

// DatasetData carries everything the builder flattens into an Export.
type DatasetData struct {
	Info      dataset.Info
	Points    []core.GeoPoint
	Facets    core.Facets
	Presets   map[string]config.ViewPreset
	Durations []int
}

// Build creates the v1 payload. Pure function of its input; the slices in
// the result are fresh.
func Build(data DatasetData) Export {
	export := Export{
		Dataset: Dataset{
			Name:    data.Info.Name,
			Source:  data.Info.Source,
			Rows:    data.Info.Rows,
			Points:  data.Info.Points,
			Dropped: data.Info.Dropped,
		},
		Points: make([]Point, 0, len(data.Points)),
		Facets: Facets{
			Departments: append([]string{}, data.Facets.Departments...),
			Terms:       append([]string{}, data.Facets.Terms...),
			Types:       append([]string{}, data.Facets.Types...),
		},
		Presets:       make(map[string]Preset, len(data.Presets)),
		TourDurations: append([]int{}, data.Durations...),
	}

	if !data.Info.LoadedAt.IsZero() {
		export.Dataset.LoadedAt = data.Info.LoadedAt.UTC().Format(time.RFC3339)
	}

	for _, p := range data.Points {
		export.Points = append(export.Points, Point{
			Name:         p.Name,
			Researcher:   p.Researcher,
			Description:  p.Description,
			Lat:          p.Lat,
			Lon:          p.Lon,
			Department:   p.Department,
			Term:         p.Term,
			Type:         p.Type,
			MapFocus:     string(p.MapFocus),
			GeoFocus:     p.GeoFocus,
			Collaborator: p.Collaborator,
			Links:        strings.Join(p.Links, ", "),
		})
	}

	for name, preset := range data.Presets {
		export.Presets[name] = Preset{Lon: preset.Lon, Lat: preset.Lat, Zoom: preset.Zoom}
	}

	return export
}
