// Package api exposes the HTTP surface: trigger a pipeline run, poll
// job progress, and read scored hotspots.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/hotradar/hotradar/internal/config"
	"github.com/hotradar/hotradar/internal/events"
	"github.com/hotradar/hotradar/internal/job"
	"github.com/hotradar/hotradar/internal/logging"
	"github.com/hotradar/hotradar/internal/pipeline"
	"github.com/hotradar/hotradar/internal/prefilter"
	"github.com/hotradar/hotradar/internal/store"
)

// Runner triggers pipeline runs. Satisfied by *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, j *job.Job, params pipeline.Params) (pipeline.Outcome, error)
}

// Server handles the HTTP API.
type Server struct {
	cfg      config.Config
	runner   Runner
	jobs     *job.Registry
	hotspots *store.Store
	events   *events.Log
}

// NewServer wires the API.
func NewServer(cfg config.Config, runner Runner, jobs *job.Registry, hotspots *store.Store) *Server {
	return &Server{cfg: cfg, runner: runner, jobs: jobs, hotspots: hotspots}
}

// SetEvents attaches the event log backing the events endpoint.
// Without one the endpoint serves an empty list.
func (s *Server) SetEvents(l *events.Log) {
	s.events = l
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/pipeline/run", s.handleRun).Methods(http.MethodPost)
	v1.HandleFunc("/jobs", s.handleListJobs).Methods(http.MethodGet)
	v1.HandleFunc("/jobs/{id}", s.handleGetJob).Methods(http.MethodGet)
	v1.HandleFunc("/hotspots", s.handleHotspots).Methods(http.MethodGet)
	v1.HandleFunc("/targets", s.handleTargets).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

// ListenAndServe runs the API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logging.Info("API listening", "addr", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var params pipeline.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// No target means acquire and enrich without scoring.
	if params.TargetID != "" {
		if _, ok := s.cfg.Target(params.TargetID); !ok {
			writeError(w, http.StatusNotFound, "unknown target")
			return
		}
	}

	j := s.jobs.Create()
	go func() {
		// The run outlives the triggering request.
		if _, err := s.runner.Run(context.Background(), j, params); err != nil {
			logging.Error("Pipeline run failed", "job", j.ID(), "err", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": j.ID()})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	j, ok := s.jobs.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, j.Snapshot())
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobs.List())
}

func (s *Server) handleHotspots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	targetID := q.Get("target")

	minScore := s.cfg.Scoring.VisibilityThreshold
	if v := q.Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			writeError(w, http.StatusBadRequest, "min_score must be a number in [0,1]")
			return
		}
		minScore = f
	}

	limit := intParam(q.Get("limit"), 20)
	offset := intParam(q.Get("offset"), 0)

	hotspots, err := s.hotspots.Visible(targetID, minScore, limit, offset)
	if err != nil {
		logging.Error("Hotspot query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	// Keyword filter narrows the page after the threshold query, so
	// the same +required/!excluded/plain syntax works on reads.
	if terms := q.Get("filter"); terms != "" {
		f := prefilter.Compile(strings.Split(terms, ","))
		kept := hotspots[:0]
		for _, h := range hotspots {
			if f.Score(h.Text()) > 0 {
				kept = append(kept, h)
			}
		}
		hotspots = kept
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hotspots": hotspots,
		"count":    len(hotspots),
	})
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Targets)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	n := intParam(r.URL.Query().Get("n"), 100)
	evs := s.events.Recent(n)
	if evs == nil {
		evs = []events.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(evs), "events": evs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func intParam(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
