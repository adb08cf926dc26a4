package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bitsync/internal/domain"
	"github.com/kailas-cloud/bitsync/internal/domain/repo"
	"github.com/kailas-cloud/bitsync/internal/domain/search/category"
	"github.com/kailas-cloud/bitsync/internal/domain/search/filter"
	"github.com/kailas-cloud/bitsync/internal/domain/search/order"
	"github.com/kailas-cloud/bitsync/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/bitsync/internal/logger"
	exploreuc "github.com/kailas-cloud/bitsync/internal/usecase/explore"
	healthuc "github.com/kailas-cloud/bitsync/internal/usecase/health"
	reposuc "github.com/kailas-cloud/bitsync/internal/usecase/repos"
	searchuc "github.com/kailas-cloud/bitsync/internal/usecase/search"
	"github.com/kailas-cloud/bitsync/internal/version"
	"github.com/kailas-cloud/bitsync/pkg/api"
)

// maxBodyBytes caps request bodies (repository creation forms).
const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface on top of the use cases.
type Server struct {
	search        *searchuc.Service
	explore       *exploreuc.Service
	repos         *reposuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	defaultLimit  int
	maxLimit      int
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	explore *exploreuc.Service,
	repos *reposuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:       search,
		explore:      explore,
		repos:        repos,
		health:       health,
		logger:       logger,
		defaultLimit: request.DefaultLimit,
		maxLimit:     request.MaxLimit,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, api.ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, api.ErrorCodeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, api.ErrorCodeAlreadyExists),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, api.ErrorCodeRateLimited),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, api.ErrorCodeNotImplemented),
		sentinelHandler(domain.ErrQueryTimeout, http.StatusGatewayTimeout, api.ErrorCodeInternalError),
		sentinelHandler(domain.ErrQueryFailed, http.StatusBadGateway, api.ErrorCodeInternalError),
	}
	return s
}

// WithSearchLimits overrides the default and maximum /search page size.
func (s *Server) WithSearchLimits(defaultLimit, maxLimit int) *Server {
	if defaultLimit > 0 {
		s.defaultLimit = defaultLimit
	}
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	return s
}

// Search handles GET /search. Pipeline failures are answered with 200 and
// status "failed"; only malformed parameters are rejected.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, params api.SearchParams) {
	filters, err := filter.New(
		deref(params.Language),
		filter.Visibility(deref(params.Visibility)),
		filter.DateRange(deref(params.DateRange)),
	)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	limit := s.defaultLimit
	if params.Limit != nil {
		if *params.Limit <= 0 {
			writeError(w, http.StatusBadRequest, api.ErrorCodeValidationFailed, "limit must be positive")
			return
		}
		limit = min(*params.Limit, s.maxLimit)
	}

	req, err := request.New(
		deref(params.Q),
		category.Category(deref(params.Category)),
		filters,
		order.Order(deref(params.Sort)),
		limit,
	)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out := s.search.Run(r.Context(), &req)
	writeJSON(w, http.StatusOK, searchResponseToAPI(&req, out))
}

// Explore handles GET /explore.
func (s *Server) Explore(w http.ResponseWriter, r *http.Request, params api.ExploreParams) {
	o := order.Order(deref(params.Filter))
	repos, err := s.explore.List(r.Context(), o, deref(params.Limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if o == "" {
		o = order.Trending
	}
	writeJSON(w, http.StatusOK, api.ExploreResponse{
		Filter: api.Order(o),
		Items:  repositoriesToAPI(repos),
	})
}

// ListRepositories handles GET /users/{owner}/repositories.
func (s *Server) ListRepositories(
	w http.ResponseWriter, r *http.Request, owner string, params api.ListRepositoriesParams,
) {
	opts, err := repo.NewListOptions(
		deref(params.Q),
		filter.Visibility(deref(params.Visibility)),
		repo.Sort(deref(params.Sort)),
	)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	repos, err := s.repos.List(r.Context(), owner, opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.RepositoryListResponse{
		Owner: owner,
		Total: len(repos),
		Items: repositoriesToAPI(repos),
	})
}

// CreateRepository handles POST /users/{owner}/repositories.
func (s *Server) CreateRepository(w http.ResponseWriter, r *http.Request, owner string) {
	var body api.CreateRepositoryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.repos.Create(r.Context(), owner, repo.Form{
		Name:        body.Name,
		Description: body.Description,
		IsPublic:    body.IsPublic,
		Readme:      body.Readme,
		Gitignore:   body.Gitignore,
		License:     body.License,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	logpkg.FromContext(r.Context()).Info("repository created",
		zap.String("owner", created.Owner),
		zap.String("name", created.Name),
		zap.Bool("public", created.IsPublic),
	)
	writeJSON(w, http.StatusCreated, repositoryToAPI(created))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, api.HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.String(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code api.ErrorCode, message string) {
	writeJSON(w, status, api.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message for err without exposing internals.
func safeDomainMessage(err error) string {
	// Parameter errors carry the offending value, which the client sent.
	if errors.Is(err, domain.ErrInvalidQuery) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrRateLimited,
		domain.ErrNotImplemented,
		domain.ErrQueryTimeout,
		domain.ErrQueryFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code api.ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler answers form validation errors with per-field details.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	fields := make([]api.FieldError, len(verr.Fields))
	for i, f := range verr.Fields {
		fields[i] = api.FieldError{Field: f.Field, Message: f.Message}
	}
	writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
		Code:    api.ErrorCodeValidationFailed,
		Message: verr.Error(),
		Fields:  fields,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContextOr(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, api.ErrorCodeInternalError, "internal error")
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
