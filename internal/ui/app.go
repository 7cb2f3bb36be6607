// Package ui serves a read-only HTML view of stored results.
package ui

import (
	"html/template"
	"net/http"
	"strconv"

	"infodyn/app"
	"infodyn/domain/core"
	"infodyn/internal"
	"infodyn/internal/errors"
	"infodyn/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2em auto; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 8px; }
</style>
</head>
<body>
<p><a href="{{.Base}}/">All results</a></p>
{{.Body}}
</body>
</html>
`))

type pageData struct {
	Title string
	Base  string
	Body  template.HTML
}

// App represents the UI application
type App struct {
	router *chi.Mux
	svc    *app.AISService
	logger *internal.Logger
	base   string
}

// NewApp creates the UI. base is the path prefix the app is mounted under,
// used for links.
func NewApp(svc *app.AISService, logger *internal.Logger, base string) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router: chi.NewRouter(),
		svc:    svc,
		logger: logger.WithComponent("UI"),
		base:   base,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/results/{id}", a.handleResult)
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			limit = n
		}
	}

	results, err := a.svc.ListResults(r.Context(), limit)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	md := "# Stored results\n\n" + report.Summary(results)
	for _, res := range results {
		md += "\n- [" + res.ID.String() + "](" + a.base + "/results/" + res.ID.String() + ")"
	}
	a.render(w, http.StatusOK, "Stored results", md)
}

func (a *App) handleResult(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseResultID(chi.URLParam(r, "id"))
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	res, err := a.svc.GetResult(r.Context(), id)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	a.render(w, http.StatusOK, "Result "+res.ID.String(), report.Markdown(res, report.Details{}))
}

func (a *App) renderError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.FromDomain(err)
	status := errors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		a.logger.Error("%s %s [%s]: %v", r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
	}
	a.render(w, status, appErr.Code, "# "+appErr.Code+"\n\n"+appErr.Error())
}

func (a *App) render(w http.ResponseWriter, status int, title, md string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := pageData{Title: title, Base: a.base, Body: template.HTML(report.HTML(md))}
	if err := page.Execute(w, data); err != nil {
		a.logger.Error("render %s: %v", title, err)
	}
}
