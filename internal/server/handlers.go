package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/dashboard"
	"github.com/sells-group/voc-cli/internal/fetcher"
	"github.com/sells-group/voc-cli/internal/ingest"
	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/poller"
	"github.com/sells-group/voc-cli/internal/store"
	"github.com/sells-group/voc-cli/pkg/voc"
)

const retryHint = "check the CSV location and try again"

type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// dashboardResponse is DashboardData plus where it was loaded from.
type dashboardResponse struct {
	Source string `json:"source"`
	model.DashboardData
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProxyCSV streams a remote CSV so browsers can read it same-origin.
func (s *Server) handleProxyCSV(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if !isHTTPURL(raw) {
		writeError(w, http.StatusBadRequest, "url must be an http or https URL")
		return
	}

	body, err := s.deps.Fetcher.Download(r.Context(), raw)
	if err != nil {
		zap.L().Warn("server: proxy fetch failed", zap.String("host", hostOf(raw)), zap.Error(err))
		msg := "could not fetch the CSV"
		var se *fetcher.StatusError
		if errors.As(err, &se) {
			msg += " (upstream status " + strconv.Itoa(se.StatusCode) + ")"
		}
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: msg, Hint: retryHint})
		return
	}
	defer body.Close() //nolint:errcheck

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		zap.L().Warn("server: proxy copy interrupted", zap.String("host", hostOf(raw)), zap.Error(err))
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("csv_url"))
	if !isHTTPURL(raw) {
		writeError(w, http.StatusBadRequest, "csv_url must be an http or https URL")
		return
	}
	src, err := ingest.ParseSource(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	shell := s.newShell(r)
	if err := shell.Load(r.Context(), s.deps.Loader, src); err != nil {
		zap.L().Warn("server: dashboard load failed", zap.String("host", hostOf(raw)), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "could not load reviews", Hint: retryHint})
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Source: shell.Source(), DashboardData: shell.Data()})
}

func (s *Server) handleJobDashboard(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	shell := s.newShell(r)
	err := shell.LoadFromJob(r.Context(), s.deps.Checker, s.deps.Loader, jobID)
	if err == nil {
		writeJSON(w, http.StatusOK, dashboardResponse{Source: shell.Source(), DashboardData: shell.Data()})
		return
	}

	zap.L().Warn("server: job dashboard failed", zap.String("job_id", jobID), zap.Error(err))
	var (
		jf  *poller.JobFailedError
		api *voc.APIError
	)
	switch {
	case errors.As(err, &jf):
		writeError(w, http.StatusConflict, jf.Message)
	case errors.Is(err, dashboard.ErrJobRunning):
		writeError(w, http.StatusConflict, "the analysis is still running, please try again later")
	case errors.Is(err, dashboard.ErrNoCSV):
		writeError(w, http.StatusNotFound, "the job has no CSV to show")
	case errors.As(err, &api) && api.StatusCode == http.StatusNotFound:
		writeError(w, http.StatusNotFound, "unknown job")
	case errors.Is(err, ingest.ErrIngest):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "could not load reviews", Hint: retryHint})
	default:
		writeError(w, http.StatusBadGateway, "could not reach the analysis backend, please try again")
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.SessionFilter{Step: model.Step(q.Get("step"))}
	var err error
	if filter.Limit, err = intParam(q, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Offset, err = intParam(q, "offset"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessions, err := s.deps.Sessions.ListSessions(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list sessions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.deps.Sessions.GetSession(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		zap.L().Error("server: get session", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if v := r.URL.Query().Get("lookback_hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "lookback_hours must be an integer")
			return
		}
		hours = n
	}
	snap, err := s.collector.Collect(r.Context(), hours)
	if err != nil {
		zap.L().Error("server: session stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not collect session stats")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// newShell builds a per-request shell with the request's brand filter.
// brand may repeat or hold a comma-separated list.
func (s *Server) newShell(r *http.Request) *dashboard.Shell {
	var opts []dashboard.Option
	if !s.opts.Now.IsZero() {
		opts = append(opts, dashboard.WithNow(s.opts.Now))
	}
	shell := dashboard.New(opts...)

	var brands []string
	for _, v := range r.URL.Query()["brand"] {
		brands = append(brands, strings.Split(v, ",")...)
	}
	shell.SetBrandFilter(brands)
	return shell
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
