// Package loader reads the project spreadsheet export into records ready
// for address resolution. The engine core never sees these: only records
// that end up with valid coordinates become geo points.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/researchatlas/engine/internal/geo"
	"github.com/researchatlas/engine/internal/util"
	"github.com/researchatlas/engine/pkg/core"
)

// Record is one scrubbed CSV row. A record carries either explicit
// coordinates or a free-text location for the geocoder.
type Record struct {
	Name         string
	Researcher   string
	Description  string
	Department   string
	Term         string
	Type         string
	Location     string
	Lat          float64
	Lon          float64
	HasCoords    bool
	MapFocus     core.MapFocus
	GeoFocus     string
	Collaborator string
	Links        []string
}

// Point converts a located record into the value the engine reads.
func (r Record) Point() core.GeoPoint {
	return core.GeoPoint{
		Name:         r.Name,
		Researcher:   r.Researcher,
		Description:  r.Description,
		Lat:          r.Lat,
		Lon:          r.Lon,
		Department:   r.Department,
		Term:         r.Term,
		Type:         r.Type,
		MapFocus:     r.MapFocus,
		GeoFocus:     r.GeoFocus,
		Collaborator: r.Collaborator,
		Links:        r.Links,
	}
}

// Column names matched case-insensitively against the header row.
const (
	colName         = "name"
	colResearcher   = "researcher"
	colDescription  = "description"
	colDepartment   = "department"
	colTerm         = "term"
	colType         = "type"
	colLocation     = "location"
	colLatitude     = "latitude"
	colLongitude    = "longitude"
	colMapFocus     = "mapfocus"
	colGeoFocus     = "geographicfocus"
	colCollaborator = "collaborator"
	colLinks        = "links"
)

// Loader parses the project CSV.
type Loader struct {
	log *slog.Logger
}

// New creates a Loader logging row-level drops through the given logger.
func New(log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{log: log}
}

// Parse reads a header-led CSV. Rows without an identity (name and
// researcher) are dropped with a warning, as are rows carrying neither
// coordinates nor a location; everything else is a recoverable record.
func (l *Loader) Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading csv header: %w", err)
	}
	cols := headerIndex(header)
	for _, required := range []string{colName, colResearcher} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	records := make([]Record, 0, 64)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv row %d: %w", line+1, err)
		}
		line++

		rec, ok := l.parseRow(row, cols, line)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	l.log.Info("parsed dataset", "rows", line-1, "records", len(records))
	return records, nil
}

func (l *Loader) parseRow(row []string, cols map[string]int, line int) (Record, bool) {
	// fix received data
	for i, v := range row {
		row[i] = util.FixEscapeQuotes(util.TrimQuotes(strings.TrimSpace(v)))
	}
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	rec := Record{
		Name:         field(colName),
		Researcher:   field(colResearcher),
		Description:  field(colDescription),
		Department:   field(colDepartment),
		Term:         field(colTerm),
		Type:         field(colType),
		Location:     field(colLocation),
		MapFocus:     core.ParseMapFocus(field(colMapFocus)),
		GeoFocus:     field(colGeoFocus),
		Collaborator: field(colCollaborator),
		Links:        util.SplitList(field(colLinks), ","),
	}

	if rec.Name == "" || rec.Researcher == "" {
		l.log.Warn("dropping row without identity", "line", line)
		return Record{}, false
	}

	latStr, lonStr := field(colLatitude), field(colLongitude)
	if latStr != "" && lonStr != "" {
		lat, lon, err := geo.ParseLatLon(latStr, lonStr)
		if err != nil {
			err = fmt.Errorf("parsing coordinates: %w", err)
			l.log.Warn("ignoring explicit coordinates", "line", line, "name", rec.Name, "error", err)
		} else {
			rec.Lat, rec.Lon = lat, lon
			rec.HasCoords = true
		}
	}

	if !rec.HasCoords && rec.Location == "" {
		l.log.Warn("dropping row without coordinates or location", "line", line, "name", rec.Name)
		return Record{}, false
	}

	return rec, true
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(util.TrimQuotes(h)))
		if _, ok := cols[key]; !ok {
			cols[key] = i
		}
	}
	return cols
}
