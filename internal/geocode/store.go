package geocode

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/researchatlas/engine/internal/config"
)

// CacheEntry is one resolved address. Query is stored normalized so
// capitalization and spacing differences share a row.
type CacheEntry struct {
	ID          uint   `gorm:"primarykey"`
	Query       string `gorm:"uniqueIndex;size:512"`
	Lat         float64
	Lon         float64
	DisplayName string
	Raw         datatypes.JSON
	Hits        int64
	CreatedAt   time.Time
}

// Store manages the geocode cache database connection.
type Store struct {
	DB              *gorm.DB
	SqlDB           *sql.DB
	IsValid         bool
	ShouldSaveLocal bool
	Logger          zerolog.Logger
}

// NewStore creates a new cache store manager.
func NewStore(log zerolog.Logger) *Store {
	return &Store{
		IsValid:         false,
		ShouldSaveLocal: false,
		Logger:          log,
	}
}

// Connect establishes a database connection, falling back to the local
// SQLite file if Postgres fails.
func (s *Store) Connect(cfg config.DBConfig) error {
	var err error

	s.DB, err = s.getPostgresDB(cfg)
	if err != nil {
		s.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		s.ShouldSaveLocal = true
		s.DB, err = s.getSqliteDB(cfg.LocalDBPath)
		if err != nil || s.DB == nil {
			s.IsValid = false
			return fmt.Errorf("failed to get local SQLite DB: %s", err)
		}
		s.IsValid = true
	}

	// test connection
	s.SqlDB, err = s.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %s", err)
	}

	err = s.SqlDB.Ping()
	if err != nil {
		s.Logger.Error().Err(err).Msg("Failed to validate connection, trying SQLite")
		s.ShouldSaveLocal = true
		s.DB, err = s.getSqliteDB(cfg.LocalDBPath)
		if err != nil || s.DB == nil {
			s.IsValid = false
			return fmt.Errorf("failed to get local SQLite DB: %s", err)
		}
		s.IsValid = true
	} else {
		s.Logger.Info().Msg("Connected to geocode cache database")
		s.IsValid = true
	}

	if !s.ShouldSaveLocal {
		s.SqlDB.SetMaxOpenConns(10)
	}

	return nil
}

func (s *Store) getPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
	)

	s.Logger.Debug().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connecting to Postgres DB")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// getSqliteDB returns a connection to a SQLite database. If path is empty,
// uses an in-memory database.
func (s *Store) getSqliteDB(path string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if path != "" {
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{
			PrepareStmt:            true,
			SkipDefaultTransaction: true,
			Logger:                 logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			s.IsValid = false
			return nil, err
		}
		s.Logger.Info().Str("path", path).Msg("Using local SQLite geocode cache")
	} else {
		db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
			PrepareStmt:            true,
			SkipDefaultTransaction: true,
			Logger:                 logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			s.IsValid = false
			return nil, err
		}
		s.Logger.Info().Msg("Using in-memory SQLite geocode cache")
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA cache_size = -8000;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %s", err)
		}
	}

	return db, nil
}

// Setup migrates the cache table.
func (s *Store) Setup() error {
	if s.DB == nil {
		return fmt.Errorf("store not connected")
	}
	if err := s.DB.AutoMigrate(&CacheEntry{}); err != nil {
		s.IsValid = false
		return fmt.Errorf("failed to migrate geocode cache schema: %s", err)
	}
	s.Logger.Info().Msg("Geocode cache setup complete")
	return nil
}

// Get looks up a cached result by query. Misses and read errors both
// report false; errors are logged but never abort a load.
func (s *Store) Get(query string) (CacheEntry, bool) {
	if s.DB == nil || !s.IsValid {
		return CacheEntry{}, false
	}

	var entry CacheEntry
	err := s.DB.Where("query = ?", NormalizeQuery(query)).First(&entry).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.Logger.Warn().Err(err).Str("query", query).Msg("Geocode cache read failed")
		}
		return CacheEntry{}, false
	}

	if err := s.DB.Model(&CacheEntry{}).Where("id = ?", entry.ID).
		UpdateColumn("hits", gorm.Expr("hits + 1")).Error; err != nil {
		s.Logger.Debug().Err(err).Str("query", query).Msg("Geocode cache hit count update failed")
	}
	entry.Hits++

	return entry, true
}

// Put stores a resolved query. Existing rows win; the service answer for
// a query is treated as stable.
func (s *Store) Put(entry CacheEntry) error {
	if s.DB == nil || !s.IsValid {
		return fmt.Errorf("store not connected")
	}

	entry.Query = NormalizeQuery(entry.Query)
	if err := s.DB.Where(CacheEntry{Query: entry.Query}).FirstOrCreate(&entry).Error; err != nil {
		return fmt.Errorf("failed to cache geocode result: %s", err)
	}
	return nil
}

// NormalizeQuery lowercases and collapses whitespace so trivially
// different spellings of an address hit the same cache row.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
