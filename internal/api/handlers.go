package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/unklstewy/nearest-aircraft/internal/db"
	"github.com/unklstewy/nearest-aircraft/internal/service"
	"github.com/unklstewy/nearest-aircraft/internal/sightings"
	"github.com/unklstewy/nearest-aircraft/pkg/nearest"
)

const (
	defaultSightingLimit = 20
	maxSightingLimit     = 500
)

// nearestRequest is the POST /nearest_plane body.
type nearestRequest struct {
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Dist   *float64 `json:"dist"`
	Format string   `json:"format"`
}

// handleHealth reports liveness, plus the database status when one is wired
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.dbCheck == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	if err := s.dbCheck(r.Context()); err != nil {
		s.logger.Warn("Database health check failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "ok"})
}

// handleNearestGet answers /nearest_plane?lat=&lon=&dist=&format=
func (s *Server) handleNearestGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := nearestRequest{Format: q.Get("format")}

	var err error
	if req.Lat, err = floatParam(q.Get("lat"), "lat", true); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Lon, err = floatParam(q.Get("lon"), "lon", true); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Dist, err = floatParam(q.Get("dist"), "dist", false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.answer(w, r, req)
}

// handleNearestPost answers a JSON body query
func (s *Server) handleNearestPost(w http.ResponseWriter, r *http.Request) {
	var req nearestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Lat == nil || req.Lon == nil {
		respondError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}

	s.answer(w, r, req)
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request, req nearestRequest) {
	format, err := nearest.ParseFormat(req.Format)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := service.Query{Lat: *req.Lat, Lon: *req.Lon, Radius: s.radius}
	if req.Dist != nil {
		q.Radius = *req.Dist
	}

	res, err := s.finder.Find(r.Context(), q)
	if err != nil {
		var upstream *service.UpstreamError
		switch {
		case errors.Is(err, service.ErrInvalidQuery):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &upstream):
			respondError(w, http.StatusBadGateway, err.Error())
		default:
			s.logger.ErrorContext(r.Context(), "Nearest query failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to find nearest aircraft")
		}
		return
	}

	body, err := res.Render(format)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render result")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleRecentSightings returns the latest sightings, newest first
func (s *Server) handleRecentSightings(w http.ResponseWriter, r *http.Request) {
	limit := defaultSightingLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSightingLimit)
	}

	list, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to read sightings", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to read sightings")
		return
	}
	if list == nil {
		list = []sightings.Sighting{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":     len(list),
		"sightings": list,
	})
}

// handleSightingStats summarizes the sighting log
func (s *Server) handleSightingStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to read sighting stats", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to read sighting stats")
		return
	}

	resp := struct {
		db.Stats
		Recorder *sightings.Stats `json:"recorder,omitempty"`
	}{Stats: st}
	if s.recorder != nil {
		rs := s.recorder.Stats()
		resp.Recorder = &rs
	}
	respondJSON(w, http.StatusOK, resp)
}

// floatParam parses an optional query parameter.
func floatParam(v, name string, required bool) (*float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		if required {
			return nil, fmt.Errorf("%s is required", name)
		}
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &f, nil
}
