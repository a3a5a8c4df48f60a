package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// APIPrefix is the mount point of the versioned API.
const APIPrefix = "/api/v1"

// ServerInterface is the set of HTTP operations exposed by the service.
type ServerInterface interface {
	// (GET /api/v1/search)
	Search(w http.ResponseWriter, r *http.Request, params SearchParams)
	// (POST /api/v1/search/advanced)
	AdvancedSearch(w http.ResponseWriter, r *http.Request)
	// (GET /api/v1/search/similar/{id})
	SimilarDocuments(w http.ResponseWriter, r *http.Request, id string, params SimilarParams)
	// (POST /api/v1/search/index/rebuild)
	RebuildIndex(w http.ResponseWriter, r *http.Request)
	// (POST /api/v1/documents)
	CreateDocument(w http.ResponseWriter, r *http.Request)
	// (GET /api/v1/documents)
	ListDocuments(w http.ResponseWriter, r *http.Request, params ListDocumentsParams)
	// (GET /api/v1/documents/{id})
	GetDocument(w http.ResponseWriter, r *http.Request, id string)
	// (PUT /api/v1/documents/{id})
	UpdateDocument(w http.ResponseWriter, r *http.Request, id string)
	// (DELETE /api/v1/documents/{id})
	DeleteDocument(w http.ResponseWriter, r *http.Request, id string)
	// (POST /api/v1/documents/seed)
	SeedDocuments(w http.ResponseWriter, r *http.Request)
	// (GET /api/v1/eval/run)
	RunEval(w http.ResponseWriter, r *http.Request, params EvalParams)
	// (POST /api/v1/eval)
	CustomEval(w http.ResponseWriter, r *http.Request)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ServerOptions configures Handler.
type ServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

type wrapper struct {
	handler          ServerInterface
	middlewares      []func(http.Handler) http.Handler
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (sw *wrapper) serve(w http.ResponseWriter, r *http.Request, h http.Handler) {
	for _, mw := range sw.middlewares {
		h = mw(h)
	}
	h.ServeHTTP(w, r)
}

func (sw *wrapper) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false})
	if err != nil {
		sw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return "", false
	}
	return id, true
}

func (sw *wrapper) query(w http.ResponseWriter, r *http.Request, name string, required bool, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		sw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

func (sw *wrapper) search(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	if !sw.query(w, r, "query", true, &params.Query) ||
		!sw.query(w, r, "limit", false, &params.Limit) ||
		!sw.query(w, r, "min_score", false, &params.MinScore) ||
		!sw.query(w, r, "include_content", false, &params.IncludeContent) ||
		!sw.query(w, r, "include_highlights", false, &params.IncludeHighlights) {
		return
	}
	sw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw.handler.Search(w, r, params)
	}))
}

func (sw *wrapper) similar(w http.ResponseWriter, r *http.Request) {
	id, ok := sw.pathID(w, r)
	if !ok {
		return
	}
	var params SimilarParams
	if !sw.query(w, r, "limit", false, &params.Limit) ||
		!sw.query(w, r, "min_score", false, &params.MinScore) {
		return
	}
	sw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw.handler.SimilarDocuments(w, r, id, params)
	}))
}

func (sw *wrapper) listDocuments(w http.ResponseWriter, r *http.Request) {
	var params ListDocumentsParams
	if !sw.query(w, r, "offset", false, &params.Offset) ||
		!sw.query(w, r, "limit", false, &params.Limit) {
		return
	}
	sw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw.handler.ListDocuments(w, r, params)
	}))
}

func (sw *wrapper) runEval(w http.ResponseWriter, r *http.Request) {
	var params EvalParams
	if !sw.query(w, r, "k", false, &params.K) {
		return
	}
	sw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw.handler.RunEval(w, r, params)
	}))
}

func (sw *wrapper) withID(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sw.pathID(w, r)
		if !ok {
			return
		}
		sw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, id)
		}))
	}
}

func (sw *wrapper) plain(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw.serve(w, r, fn)
	}
}

// HandlerWithOptions mounts every operation of si on a chi router.
func HandlerWithOptions(si ServerInterface, options ServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	sw := &wrapper{
		handler:          si,
		middlewares:      options.Middlewares,
		errorHandlerFunc: options.ErrorHandlerFunc,
	}
	base := options.BaseURL

	r.Group(func(r chi.Router) {
		r.Get(base+"/health", sw.plain(si.HealthCheck))
		r.Get(base+"/metrics", sw.plain(si.Metrics))

		api := base + APIPrefix
		r.Get(api+"/search", sw.search)
		r.Post(api+"/search/advanced", sw.plain(si.AdvancedSearch))
		r.Get(api+"/search/similar/{id}", sw.similar)
		r.Post(api+"/search/index/rebuild", sw.plain(si.RebuildIndex))

		r.Post(api+"/documents", sw.plain(si.CreateDocument))
		r.Get(api+"/documents", sw.listDocuments)
		r.Post(api+"/documents/seed", sw.plain(si.SeedDocuments))
		r.Get(api+"/documents/{id}", sw.withID(si.GetDocument))
		r.Put(api+"/documents/{id}", sw.withID(si.UpdateDocument))
		r.Delete(api+"/documents/{id}", sw.withID(si.DeleteDocument))

		r.Get(api+"/eval/run", sw.runEval)
		r.Post(api+"/eval", sw.plain(si.CustomEval))
	})
	return r
}
