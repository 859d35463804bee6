package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/researchatlas/engine/internal/dispatcher"
	"github.com/researchatlas/engine/internal/export"
	v1 "github.com/researchatlas/engine/internal/export/v1"
	"github.com/researchatlas/engine/internal/util"
	"github.com/researchatlas/engine/pkg/core"
	"github.com/researchatlas/engine/pkg/streaming"
)

func (s *Server) handleHealthcheck(c *gin.Context) {
	respondOK(c, gin.H{
		"status":  "ok",
		"dataset": s.deps.Engine.Dataset().Get(),
	})
}

func (s *Server) handleDataset(c *gin.Context) {
	store := s.deps.Engine.Store()
	payload := v1.Build(v1.DatasetData{
		Info:      s.deps.Engine.Dataset().Get(),
		Points:    store.All(),
		Facets:    store.Facets(),
		Presets:   s.deps.Presets,
		Durations: s.deps.Durations,
	})
	respondOK(c, payload)
}

// facetQuery reads the comma-separated facet parameters shared by the
// points and geojson endpoints.
func facetQuery(c *gin.Context) core.FacetFilter {
	return core.FacetFilter{
		Departments: util.SplitList(c.Query("departments"), ","),
		Terms:       util.SplitList(c.Query("terms"), ","),
		Types:       util.SplitList(c.Query("types"), ","),
	}
}

func (s *Server) handlePoints(c *gin.Context) {
	points := s.deps.Engine.Store().Filter(facetQuery(c))
	respondOK(c, points)
}

func (s *Server) handleFacets(c *gin.Context) {
	respondOK(c, s.deps.Engine.Store().Facets())
}

func (s *Server) handleClusters(c *gin.Context) {
	raw := c.Query("zoom")
	if raw == "" {
		respondError(c, http.StatusBadRequest, "missing zoom parameter")
		return
	}
	zoom, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid zoom parameter")
		return
	}
	respondOK(c, s.deps.Engine.ClustersAt(zoom))
}

func (s *Server) handleState(c *gin.Context) {
	respondOK(c, s.deps.Engine.Snapshot())
}

func (s *Server) handleCommand(c *gin.Context) {
	var cmd streaming.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		respondError(c, http.StatusBadRequest, "invalid command body")
		return
	}
	if cmd.Command == "" {
		respondError(c, http.StatusBadRequest, "missing command name")
		return
	}

	result, err := s.deps.Dispatcher.Dispatch(dispatcher.Event{
		Command: cmd.Command,
		Payload: cmd.Payload,
	})
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, dispatcher.ErrNoHandler) {
			status = http.StatusBadRequest
		}
		respondError(c, status, err.Error())
		return
	}

	respondOK(c, result)
}

func (s *Server) handleExportGeoJSON(c *gin.Context) {
	crs := export.CRS4326
	if raw := c.Query("crs"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid crs parameter")
			return
		}
		crs = parsed
	}

	points := s.deps.Engine.Store().Filter(facetQuery(c))
	fc, err := export.GeoJSON(points, crs)
	if err != nil {
		if errors.Is(err, export.ErrUnsupportedCRS) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="atlas.geojson"`)
	c.JSON(http.StatusOK, fc)
}
