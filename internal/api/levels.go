package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/internal/control"
)

// levelEntry is one module in level responses.
type levelEntry struct {
	Module string     `json:"module"`
	Level  logq.Level `json:"level"`
	Final  bool       `json:"final"`
}

// levelsResponse is the response body for GET /levels.
type levelsResponse struct {
	Default logq.Level   `json:"default"`
	Modules []levelEntry `json:"modules"`
	Count   int          `json:"count"`
}

// setLevelRequest is the request body for PUT /levels/{module} and
// PUT /default-level. Level accepts names, tags, aliases and numbers.
type setLevelRequest struct {
	Level string `json:"level"`
	Final bool   `json:"final"`
}

// handleListLevels returns the default level and every known module.
func (s *Server) handleListLevels(w http.ResponseWriter, _ *http.Request) {
	modules := s.levels.Modules()
	resp := levelsResponse{
		Default: s.levels.DefaultLevel(),
		Modules: make([]levelEntry, 0, len(modules)),
		Count:   len(modules),
	}
	for _, m := range modules {
		resp.Modules = append(resp.Modules, levelEntry{Module: m.Module, Level: m.Level, Final: m.Final})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetLevel returns one module's entry.
func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	ml, ok := s.levels.Module(module)
	if !ok {
		fail(w, http.StatusNotFound, "module not found")
		return
	}
	writeJSON(w, http.StatusOK, levelEntry{Module: module, Level: ml.Level, Final: ml.Final})
}

// handleSetLevel assigns a level to one module.
func (s *Server) handleSetLevel(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	level, req, ok := decodeLevelRequest(w, r)
	if !ok {
		return
	}

	c, err := s.levels.SetModule(module, level, req.Final, control.SourceAPI)
	switch {
	case errors.Is(err, control.ErrRejected):
		writeFinal(w, levelEntry{Module: c.Module, Level: c.Level, Final: c.Final})
		return
	case err != nil:
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, levelEntry{Module: c.Module, Level: c.Level, Final: c.Final})
}

// handleGetDefaultLevel returns the level applied to new modules.
func (s *Server) handleGetDefaultLevel(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"level": s.levels.DefaultLevel()})
}

// handleSetDefaultLevel changes the level applied to new modules.
func (s *Server) handleSetDefaultLevel(w http.ResponseWriter, r *http.Request) {
	level, _, ok := decodeLevelRequest(w, r)
	if !ok {
		return
	}
	if _, err := s.levels.SetDefault(level, control.SourceAPI); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"level": level})
}

// handleSaveLevels persists the registry to the settings store.
func (s *Server) handleSaveLevels(w http.ResponseWriter, _ *http.Request) {
	if err := s.levels.Save(); err != nil {
		s.writeStoreError(w, "saving levels failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"saved":   true,
		"modules": len(s.levels.Modules()),
	})
}

// handleReloadLevels re-reads the settings store and applies it.
func (s *Server) handleReloadLevels(w http.ResponseWriter, _ *http.Request) {
	if err := s.levels.Reload(control.SourceAPI); err != nil {
		s.writeStoreError(w, "reloading levels failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded": true,
		"default":  s.levels.DefaultLevel(),
		"modules":  len(s.levels.Modules()),
	})
}

// writeStoreError maps a settings store failure to a response.
func (s *Server) writeStoreError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, logq.ErrNoStore) {
		fail(w, http.StatusConflict, "no settings store configured")
		return
	}
	s.logger.Error(msg, "error", err)
	fail(w, http.StatusInternalServerError, msg)
}

// decodeLevelRequest reads and validates a setLevelRequest, writing a 400
// response when it is not usable.
func decodeLevelRequest(w http.ResponseWriter, r *http.Request) (logq.Level, setLevelRequest, bool) {
	var req setLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON body")
		return logq.LevelStub, req, false
	}
	level, err := logq.ParseLevel(req.Level)
	if err != nil {
		writeValidation(w, err.Error())
		return logq.LevelStub, req, false
	}
	return level, req, true
}
