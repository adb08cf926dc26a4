package chi

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/bitsync/pkg/api"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Search runs the result query pipeline (GET /search).
	Search(w http.ResponseWriter, r *http.Request, params api.SearchParams)
	// Explore lists public repositories (GET /explore).
	Explore(w http.ResponseWriter, r *http.Request, params api.ExploreParams)
	// ListRepositories lists an owner's repositories (GET /users/{owner}/repositories).
	ListRepositories(w http.ResponseWriter, r *http.Request, owner string, params api.ListRepositoriesParams)
	// CreateRepository creates a repository (POST /users/{owner}/repositories).
	CreateRepository(w http.ResponseWriter, r *http.Request, owner string)
	// HealthCheck reports service health (GET /health).
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Metrics exposes Prometheus metrics (GET /metrics).
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a parameter that could not be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// serverInterfaceWrapper binds request parameters before calling the handler.
type serverInterfaceWrapper struct {
	handler      ServerInterface
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *serverInterfaceWrapper) search(w http.ResponseWriter, r *http.Request) {
	var params api.SearchParams
	q := r.URL.Query()
	if err := bindQuery(q, "q", &params.Q); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	if err := bindQuery(q, "category", &params.Category); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	if err := bindQuery(q, "language", &params.Language); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	if err := bindQuery(q, "visibility", &params.Visibility); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	if err := bindQuery(q, "dateRange", &params.DateRange); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	if err := bindQuery(q, "sort", &params.Sort); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	if err := bindQuery(q, "limit", &params.Limit); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	siw.handler.Search(w, r, params)
}

func (siw *serverInterfaceWrapper) explore(w http.ResponseWriter, r *http.Request) {
	var params api.ExploreParams
	q := r.URL.Query()
	if err := bindQuery(q, "filter", &params.Filter); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	if err := bindQuery(q, "limit", &params.Limit); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	siw.handler.Explore(w, r, params)
}

func (siw *serverInterfaceWrapper) listRepositories(w http.ResponseWriter, r *http.Request) {
	owner, err := bindOwner(r)
	if err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	var params api.ListRepositoriesParams
	q := r.URL.Query()
	if err := bindQuery(q, "q", &params.Q); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	if err := bindQuery(q, "visibility", &params.Visibility); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	if err := bindQuery(q, "sort", &params.Sort); err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	siw.handler.ListRepositories(w, r, owner, params)
}

func (siw *serverInterfaceWrapper) createRepository(w http.ResponseWriter, r *http.Request) {
	owner, err := bindOwner(r)
	if err != nil {
		siw.errorHandler(w, r, err)
		return
	}
	siw.handler.CreateRepository(w, r, owner)
}

func bindQuery(q url.Values, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
		return &InvalidParamFormatError{ParamName: name, Err: err}
	}
	return nil
}

func bindOwner(r *http.Request) (string, error) {
	var owner string
	err := runtime.BindStyledParameterWithOptions("simple", "owner", chi.URLParam(r, "owner"), &owner,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return "", &InvalidParamFormatError{ParamName: "owner", Err: err}
	}
	return owner, nil
}

// HandlerWithOptions mounts every route of si on options.BaseRouter.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, api.ErrorCodeBadRequest, err.Error())
		}
	}
	wrapper := serverInterfaceWrapper{handler: si, errorHandler: options.ErrorHandlerFunc}

	r.Get(options.BaseURL+"/search", wrapper.search)
	r.Get(options.BaseURL+"/explore", wrapper.explore)
	r.Get(options.BaseURL+"/users/{owner}/repositories", wrapper.listRepositories)
	r.Post(options.BaseURL+"/users/{owner}/repositories", wrapper.createRepository)
	r.Get(options.BaseURL+"/health", si.HealthCheck)
	r.Get(options.BaseURL+"/metrics", si.Metrics)
	return r
}
