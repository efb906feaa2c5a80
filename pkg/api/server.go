package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/lifecycle"
	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/manager"
	"github.com/cuemby/pivot/pkg/metrics"
	"github.com/cuemby/pivot/pkg/storage"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/rs/zerolog"
)

// Server is PIVOT's HTTP surface: appliance submission/deletion, volume
// deletion, and read-throughs to the store. One Server per process, backed
// by the same store and managers the schedulers write through.
type Server struct {
	store      storage.Store
	lifecycle  *lifecycle.Manager
	volumes    *manager.VolumeManager
	httpServer *http.Server
	logger     zerolog.Logger
}

func NewServer(store storage.Store, life *lifecycle.Manager, volumes *manager.VolumeManager) *Server {
	s := &Server{
		store:     store,
		lifecycle: life,
		volumes:   volumes,
		logger:    log.WithComponent("api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /appliances", s.handleListAppliances)
	mux.HandleFunc("POST /appliances", s.handleCreateAppliance)
	mux.HandleFunc("GET /appliances/{id}", s.handleGetAppliance)
	mux.HandleFunc("DELETE /appliances/{id}", s.handleDeleteAppliance)
	mux.HandleFunc("GET /appliances/{id}/containers/{containerID}", s.handleGetContainer)

	mux.HandleFunc("GET /volumes", s.handleListVolumes)
	mux.HandleFunc("GET /volumes/{id}", s.handleGetVolume)
	mux.HandleFunc("DELETE /volumes/{id}", s.handleDeleteVolume)

	s.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start listens and serves until the process is stopped; it blocks like
// http.Server.ListenAndServe.
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr
	s.logger.Info().Str("addr", addr).Msg("http api listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop() error {
	return s.httpServer.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAppliances(w http.ResponseWriter, r *http.Request) {
	appliances, err := s.store.ListAppliances()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appliances)
}

func (s *Server) handleCreateAppliance(w http.ResponseWriter, r *http.Request) {
	var a types.Appliance
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, corerr.Invalid("malformed request body: %v", err))
		return
	}

	created, err := s.lifecycle.Create(r.Context(), &a)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetAppliance(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAppliance(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAppliance(w http.ResponseWriter, r *http.Request) {
	purge := r.URL.Query().Get("purgeData") == "true"
	if err := s.lifecycle.Delete(r.Context(), r.PathValue("id"), purge); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGetContainer(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAppliance(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	c := a.ContainerByID(r.PathValue("containerID"))
	if c == nil {
		writeError(w, corerr.NotFound("container %q not found in appliance %q", r.PathValue("containerID"), a.ID))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListVolumes(w http.ResponseWriter, r *http.Request) {
	volumes, err := s.store.ListVolumes()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, volumes)
}

func (s *Server) handleGetVolume(w http.ResponseWriter, r *http.Request) {
	v, err := s.store.GetVolume(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleDeleteVolume purges a volume directly, independent of any
// appliance's own deletion flow (scenario: a GLOBAL volume left behind
// after every referencing appliance unsubscribed). mounted is always
// reported false here since the HTTP surface has no notion of live mounts;
// VolumeManager.Purge still guards against a non-empty UsedBy.
func (s *Server) handleDeleteVolume(w http.ResponseWriter, r *http.Request) {
	if err := s.volumes.Purge(r.PathValue("id"), false); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
