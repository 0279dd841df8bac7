package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ignite/internal/api"
	"ignite/internal/logging"
	"ignite/internal/store"
)

const maxBodyBytes = 1 << 20

// StatusFor maps an error kind to an HTTP status.
func StatusFor(kind string) int {
	switch kind {
	case store.KindNotFound:
		return http.StatusNotFound
	case store.KindAmbiguous, store.KindVersionConflict, store.KindExists:
		return http.StatusConflict
	case store.KindInvalidAddress, store.KindOutsideRoot, store.KindInvalidQuery,
		store.KindInvalidKind, store.KindInvalidArgument:
		return http.StatusBadRequest
	case store.KindReprCycle, store.KindCorrupt:
		return http.StatusUnprocessableEntity
	case store.KindCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	s.writeData(w, s.svc.Health(r.Context()))
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	target, ok := s.requireParam(w, r, "target")
	if !ok {
		return
	}
	e, err := s.svc.Resolve(r.Context(), target)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, e)
}

// handlePath answers with the bare directory path as text.
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	target := strings.TrimSpace(r.URL.Query().Get("uri"))
	if target == "" {
		target = strings.TrimSpace(r.URL.Query().Get("target"))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if target == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "missing uri parameter\n")
		return
	}
	path, err := s.svc.Path(r.Context(), target)
	if err != nil {
		s.logFailure(r, err)
		w.WriteHeader(StatusFor(store.KindOf(err)))
		_, _ = io.WriteString(w, err.Error()+"\n")
		return
	}
	_, _ = io.WriteString(w, path)
}

func (s *Server) handleAddress(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	path, ok := s.requireParam(w, r, "path")
	if !ok {
		return
	}
	uri, err := s.svc.Address(r.Context(), path)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, map[string]string{"uri": uri, "path": path})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req api.QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, warnings, err := s.svc.Query(r.Context(), req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.Success(resp, warnings...))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req api.RegisterRequest
	if !s.decode(w, r, &req) {
		return
	}
	e, err := s.svc.Register(r.Context(), req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, e)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req api.UpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	e, err := s.svc.Update(r.Context(), req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, e)
}

// handleVersions lists versions on GET and creates one on POST.
func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		target, ok := s.requireParam(w, r, "target")
		if !ok {
			return
		}
		resp, err := s.svc.Versions(r.Context(), target)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		s.writeData(w, resp)
	case http.MethodPost:
		var req api.CreateVersionRequest
		if !s.decode(w, r, &req) {
			return
		}
		e, err := s.svc.CreateVersion(r.Context(), req)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.Success(e))
	default:
		allow(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleRepr(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	target, ok := s.requireParam(w, r, "target")
	if !ok {
		return
	}
	thumb, err := s.svc.Repr(r.Context(), target)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.Envelope{OK: true, Data: thumb})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req api.TargetRequest
	if !s.decode(w, r, &req) {
		return
	}
	e, err := s.svc.Delete(r.Context(), req.Target)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, e)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req api.RenameRequest
	if !s.decode(w, r, &req) {
		return
	}
	e, err := s.svc.Rename(r.Context(), req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, e)
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req api.RenameRequest
	if !s.decode(w, r, &req) {
		return
	}
	e, err := s.svc.Copy(r.Context(), req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.Success(e))
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	req := api.HistoryRequest{
		Target: q.Get("target"),
		Op:     q.Get("op"),
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			s.writeFailure(w, r, fmt.Errorf("%w: limit %q", store.ErrInvalidArgument, raw))
			return
		}
		req.Limit = limit
	}
	if raw := strings.TrimSpace(q.Get("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeFailure(w, r, fmt.Errorf("%w: since %q is not RFC3339", store.ErrInvalidArgument, raw))
			return
		}
		req.Since = since
	}
	resp, err := s.svc.History(r.Context(), req)
	if err != nil {
		if errors.Is(err, api.ErrHistoryDisabled) {
			s.writeJSON(w, http.StatusNotFound, api.Envelope{Error: &api.ErrorBody{Kind: "journal_disabled", Message: err.Error()}})
			return
		}
		s.writeFailure(w, r, err)
		return
	}
	s.writeData(w, resp)
}

// allow writes a 405 unless the request uses one of methods.
func allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_ = json.NewEncoder(w).Encode(api.Envelope{Error: &api.ErrorBody{Kind: "method_not_allowed", Message: "method not allowed"}})
	return false
}

func (s *Server) requireParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		s.writeFailure(w, r, fmt.Errorf("%w: missing %s parameter", store.ErrInvalidArgument, name))
		return "", false
	}
	return value, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		s.writeFailure(w, r, fmt.Errorf("%w: decode body: %v", store.ErrInvalidArgument, err))
		return false
	}
	return true
}

func (s *Server) writeData(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, api.Success(data))
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	s.logFailure(r, err)
	s.writeJSON(w, StatusFor(store.KindOf(err)), api.Failure(err))
}

func (s *Server) logFailure(r *http.Request, err error) {
	kind := store.KindOf(err)
	logger := logging.WithContext(r.Context(), s.logger)
	if StatusFor(kind) >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "request failed", "api_request_failed",
			logging.String("path", r.URL.Path),
			logging.String("error_kind", kind),
			logging.Error(err),
		)
		return
	}
	logger.Debug("request rejected",
		logging.String("path", r.URL.Path),
		logging.String("error_kind", kind),
		logging.Error(err),
	)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}
