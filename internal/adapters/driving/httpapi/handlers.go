package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/hirelens-labs/hirelens/internal/core/domain"
	"github.com/hirelens-labs/hirelens/internal/core/ports/driving"
	"github.com/hirelens-labs/hirelens/internal/logger"
)

const (
	defaultRunLimit     = 20
	defaultCompanyLimit = 50
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRunDiscovery triggers a full pipeline run and blocks until it ends.
// Concurrent triggers in this process are rejected with 409; cross-process
// exclusivity is the deployment's responsibility.
func (s *Server) handleRunDiscovery(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusForbidden, "invalid or missing bearer token")
		return
	}

	result, err := s.pipeline.Run(r.Context())
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		writeError(w, http.StatusConflict, "discovery run already in progress")
	case err != nil:
		logger.Warn("Discovery trigger failed: %v", err)
		writeError(w, http.StatusInternalServerError, "discovery run failed")
	default:
		writeJSON(w, http.StatusOK, runFromDomain(*result))
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultRunLimit)

	runs, err := s.pipeline.History(r.Context(), limit)
	if err != nil {
		logger.Warn("Run history query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "run history unavailable")
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runFromDomain(run))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tier := domain.PriorityTier(q.Get("tier"))
	if tier != "" && !tier.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown tier "+strconv.Quote(string(tier)))
		return
	}

	filter := driving.CompanyFilter{
		GrowthOnly: queryFlag(q.Get("growth")),
		MissingATS: queryFlag(q.Get("missing_ats")),
		Tier:       tier,
		Limit:      queryInt(r, "limit", defaultCompanyLimit),
	}

	companies, err := s.companies.List(r.Context(), filter)
	if err != nil {
		logger.Warn("Company listing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "company listing unavailable")
		return
	}

	out := make([]companyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, companyFromDomain(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// authorized checks the bearer token when an admin token is configured.
func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.AdminToken == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Response encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// queryFlag treats any strconv-parseable true value ("1", "true", …) as set.
func queryFlag(raw string) bool {
	b, _ := strconv.ParseBool(raw)
	return b
}

// queryInt parses a non-negative integer query parameter, falling back on
// absent or unparseable values.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
