package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ZoomThreshold is one band of the zoom-to-threshold step table: the
// clustering distance (degrees) applied up to and including MaxZoom.
type ZoomThreshold struct {
	MaxZoom float64 `json:"maxZoom" mapstructure:"maxZoom"`
	Degrees float64 `json:"degrees" mapstructure:"degrees"`
}

// ClusterConfig holds proximity-clustering tunables.
type ClusterConfig struct {
	AutoExpandZoom float64
	CacheSize      int
	Thresholds     []ZoomThreshold
}

// TourConfig holds tour sequencing tunables.
type TourConfig struct {
	Durations       []int
	DefaultDuration int
	Tick            time.Duration
	TierZooms       TierZooms
}

// TierZooms are the camera zoom levels per tour tier.
type TierZooms struct {
	Campus  float64
	Region  float64
	Country float64
	World   float64
}

// ViewPreset is a fixed {lon, lat, zoom} camera target.
type ViewPreset struct {
	Lon  float64 `json:"lon" mapstructure:"lon"`
	Lat  float64 `json:"lat" mapstructure:"lat"`
	Zoom float64 `json:"zoom" mapstructure:"zoom"`
}

// ViewConfig holds camera bounds and the named jump presets.
type ViewConfig struct {
	MinZoom              float64
	MaxZoom              float64
	ClusterZoomIncrement float64
	ClusterZoomCap       float64
	Presets              map[string]ViewPreset
}

// BBox is a lon/lat bounding box.
type BBox struct {
	MinLon float64 `json:"minLon" mapstructure:"minLon"`
	MinLat float64 `json:"minLat" mapstructure:"minLat"`
	MaxLon float64 `json:"maxLon" mapstructure:"maxLon"`
	MaxLat float64 `json:"maxLat" mapstructure:"maxLat"`
}

// RegionConfig holds the three region envelopes used for tour tier selection.
type RegionConfig struct {
	Campus  BBox
	State   BBox
	Country BBox
}

// GeocoderConfig holds settings for the address resolution collaborator.
type GeocoderConfig struct {
	Enabled         bool
	ServerURL       string
	Email           string
	Timeout         time.Duration
	RequestInterval time.Duration
	CacheEnabled    bool
}

// DatasetConfig describes where the project CSV comes from.
type DatasetConfig struct {
	Source string
	Path   string
	URL    string
	Name   string
}

// DBConfig holds geocode cache database settings.
type DBConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	Database    string
	LocalDBPath string
}

// ServerConfig holds HTTP/WebSocket server settings.
type ServerConfig struct {
	Enabled        bool
	ListenAddr     string
	AllowedOrigins []string
}

// InfluxConfig holds metrics output settings.
type InfluxConfig struct {
	Enabled   bool
	URL       string
	Token     string
	Org       string
	BackupDir string
}

// GraylogConfig holds the optional GELF log sink settings.
type GraylogConfig struct {
	Enabled bool
	Address string
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./atlaslogs")

	viper.SetDefault("dataset.source", "file")
	viper.SetDefault("dataset.path", "./data/projects.csv")
	viper.SetDefault("dataset.url", "")
	viper.SetDefault("dataset.name", "research-atlas")

	viper.SetDefault("geocoder.enabled", true)
	viper.SetDefault("geocoder.serverUrl", "https://nominatim.openstreetmap.org/search")
	viper.SetDefault("geocoder.email", "")
	viper.SetDefault("geocoder.timeout", "10s")
	viper.SetDefault("geocoder.requestInterval", "1s")
	viper.SetDefault("geocoder.cache.enabled", true)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "atlas")
	viper.SetDefault("db.localDbPath", "./atlas_geocache.db")

	viper.SetDefault("cluster.autoExpandZoom", 10.0)
	viper.SetDefault("cluster.cacheSize", 64)
	viper.SetDefault("cluster.thresholds", defaultThresholds())

	viper.SetDefault("tour.durations", []int{15, 30, 60})
	viper.SetDefault("tour.defaultDuration", 60)
	viper.SetDefault("tour.tick", "100ms")
	viper.SetDefault("tour.tierZooms.campus", 15.0)
	viper.SetDefault("tour.tierZooms.region", 6.5)
	viper.SetDefault("tour.tierZooms.country", 4.5)
	viper.SetDefault("tour.tierZooms.world", 2.5)

	viper.SetDefault("view.minZoom", 1.0)
	viper.SetDefault("view.maxZoom", 20.0)
	viper.SetDefault("view.clusterZoomIncrement", 2.0)
	viper.SetDefault("view.clusterZoomCap", 15.0)
	viper.SetDefault("view.presets.world.lon", 0.0)
	viper.SetDefault("view.presets.world.lat", 20.0)
	viper.SetDefault("view.presets.world.zoom", 2.0)
	viper.SetDefault("view.presets.region.lon", -111.6)
	viper.SetDefault("view.presets.region.lat", 39.32)
	viper.SetDefault("view.presets.region.zoom", 6.5)
	viper.SetDefault("view.presets.campus.lon", -111.842)
	viper.SetDefault("view.presets.campus.lat", 40.764)
	viper.SetDefault("view.presets.campus.zoom", 15.0)

	viper.SetDefault("regions.campus.minLon", -111.87)
	viper.SetDefault("regions.campus.minLat", 40.75)
	viper.SetDefault("regions.campus.maxLon", -111.81)
	viper.SetDefault("regions.campus.maxLat", 40.78)
	viper.SetDefault("regions.state.minLon", -114.06)
	viper.SetDefault("regions.state.minLat", 36.99)
	viper.SetDefault("regions.state.maxLon", -109.04)
	viper.SetDefault("regions.state.maxLat", 42.01)
	viper.SetDefault("regions.country.minLon", -125.0)
	viper.SetDefault("regions.country.minLat", 24.0)
	viper.SetDefault("regions.country.maxLon", -66.0)
	viper.SetDefault("regions.country.maxLat", 49.5)

	viper.SetDefault("terms.lexicon", []string{
		"Summer 25", "Spring 25", "Fall 24", "Summer 24", "Spring 24",
		"Fall 23", "Summer 23", "Spring 23", "Fall 22", "Summer 22", "Spring 22",
	})

	viper.SetDefault("server.enabled", true)
	viper.SetDefault("server.listenAddr", ":8090")
	viper.SetDefault("server.allowedOrigins", []string{"*"})

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "atlas-metrics")
	viper.SetDefault("influx.backupDir", "./atlaslogs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetConfigName("atlas_server.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// defaultThresholds is the clustering tuning table: loose groups at world
// zoom, tight groups at campus zoom. Non-increasing by contract.
func defaultThresholds() []map[string]any {
	return []map[string]any{
		{"maxZoom": 4.0, "degrees": 5.0},
		{"maxZoom": 6.0, "degrees": 2.0},
		{"maxZoom": 8.0, "degrees": 0.8},
		{"maxZoom": 10.0, "degrees": 0.3},
		{"maxZoom": 12.0, "degrees": 0.05},
		{"maxZoom": 14.0, "degrees": 0.01},
		{"maxZoom": 99.0, "degrees": 0.002},
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetClusterConfig returns the clustering section.
func GetClusterConfig() (ClusterConfig, error) {
	cfg := ClusterConfig{
		AutoExpandZoom: viper.GetFloat64("cluster.autoExpandZoom"),
		CacheSize:      viper.GetInt("cluster.cacheSize"),
	}
	if err := viper.UnmarshalKey("cluster.thresholds", &cfg.Thresholds); err != nil {
		return cfg, fmt.Errorf("error parsing cluster.thresholds: %w", err)
	}
	return cfg, nil
}

// GetTourConfig returns the tour section.
func GetTourConfig() TourConfig {
	return TourConfig{
		Durations:       viper.GetIntSlice("tour.durations"),
		DefaultDuration: viper.GetInt("tour.defaultDuration"),
		Tick:            viper.GetDuration("tour.tick"),
		TierZooms: TierZooms{
			Campus:  viper.GetFloat64("tour.tierZooms.campus"),
			Region:  viper.GetFloat64("tour.tierZooms.region"),
			Country: viper.GetFloat64("tour.tierZooms.country"),
			World:   viper.GetFloat64("tour.tierZooms.world"),
		},
	}
}

// GetViewConfig returns camera bounds and named presets.
func GetViewConfig() ViewConfig {
	presets := make(map[string]ViewPreset)
	for _, name := range []string{"world", "region", "campus"} {
		presets[name] = ViewPreset{
			Lon:  viper.GetFloat64("view.presets." + name + ".lon"),
			Lat:  viper.GetFloat64("view.presets." + name + ".lat"),
			Zoom: viper.GetFloat64("view.presets." + name + ".zoom"),
		}
	}
	return ViewConfig{
		MinZoom:              viper.GetFloat64("view.minZoom"),
		MaxZoom:              viper.GetFloat64("view.maxZoom"),
		ClusterZoomIncrement: viper.GetFloat64("view.clusterZoomIncrement"),
		ClusterZoomCap:       viper.GetFloat64("view.clusterZoomCap"),
		Presets:              presets,
	}
}

// GetRegionConfig returns the tour tier envelopes.
func GetRegionConfig() RegionConfig {
	return RegionConfig{
		Campus:  getBBox("regions.campus"),
		State:   getBBox("regions.state"),
		Country: getBBox("regions.country"),
	}
}

func getBBox(prefix string) BBox {
	return BBox{
		MinLon: viper.GetFloat64(prefix + ".minLon"),
		MinLat: viper.GetFloat64(prefix + ".minLat"),
		MaxLon: viper.GetFloat64(prefix + ".maxLon"),
		MaxLat: viper.GetFloat64(prefix + ".maxLat"),
	}
}

// GetTermLexicon returns the ordered most-recent-first academic term list.
func GetTermLexicon() []string {
	return viper.GetStringSlice("terms.lexicon")
}

// GetGeocoderConfig returns the geocoder section.
func GetGeocoderConfig() GeocoderConfig {
	return GeocoderConfig{
		Enabled:         viper.GetBool("geocoder.enabled"),
		ServerURL:       viper.GetString("geocoder.serverUrl"),
		Email:           viper.GetString("geocoder.email"),
		Timeout:         viper.GetDuration("geocoder.timeout"),
		RequestInterval: viper.GetDuration("geocoder.requestInterval"),
		CacheEnabled:    viper.GetBool("geocoder.cache.enabled"),
	}
}

// GetDatasetConfig returns the dataset source section.
func GetDatasetConfig() DatasetConfig {
	return DatasetConfig{
		Source: viper.GetString("dataset.source"),
		Path:   viper.GetString("dataset.path"),
		URL:    viper.GetString("dataset.url"),
		Name:   viper.GetString("dataset.name"),
	}
}

// GetDBConfig returns the geocode cache database section.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:        viper.GetString("db.host"),
		Port:        viper.GetString("db.port"),
		Username:    viper.GetString("db.username"),
		Password:    viper.GetString("db.password"),
		Database:    viper.GetString("db.database"),
		LocalDBPath: viper.GetString("db.localDbPath"),
	}
}

// GetServerConfig returns the HTTP server section.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Enabled:        viper.GetBool("server.enabled"),
		ListenAddr:     viper.GetString("server.listenAddr"),
		AllowedOrigins: viper.GetStringSlice("server.allowedOrigins"),
	}
}

// GetInfluxConfig returns the metrics output section.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:   viper.GetBool("influx.enabled"),
		URL:       viper.GetString("influx.url"),
		Token:     viper.GetString("influx.token"),
		Org:       viper.GetString("influx.org"),
		BackupDir: viper.GetString("influx.backupDir"),
	}
}

// GetGraylogConfig returns the GELF sink section.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}
