// Package v1 contains the v1 dataset payload the frontend boots from.
package v1

// Export is the root JSON structure of the v1 payload.
type Export struct {
	Dataset       Dataset           `json:"dataset"`
	Points        []Point           `json:"points"`
	Facets        Facets            `json:"facets"`
	Presets       map[string]Preset `json:"presets"`
	TourDurations []int             `json:"tourDurations"`
}

// Dataset describes the loaded dataset and its load counters.
type Dataset struct {
	Name     string `json:"name"`
	Source   string `json:"source"`
	LoadedAt string `json:"loadedAt,omitempty"`
	Rows     int    `json:"rows"`
	Points   int    `json:"points"`
	Dropped  int    `json:"dropped"`
}

// Point is one located record flattened for the frontend: links joined
// into a single comma-separated string, map focus as its wire word.
type Point struct {
	Name         string  `json:"name"`
	Researcher   string  `json:"researcher"`
	Description  string  `json:"description,omitempty"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Department   string  `json:"department,omitempty"`
	Term         string  `json:"term,omitempty"`
	Type         string  `json:"type,omitempty"`
	MapFocus     string  `json:"mapFocus"`
	GeoFocus     string  `json:"geoFocus,omitempty"`
	Collaborator string  `json:"collaborator,omitempty"`
	Links        string  `json:"links,omitempty"`
}

// Facets lists the distinct filterable values present in the dataset.
type Facets struct {
	Departments []string `json:"departments"`
	Terms       []string `json:"terms"`
	Types       []string `json:"types"`
}

// Preset is a named camera target.
type Preset struct {
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
	Zoom float64 `json:"zoom"`
}
