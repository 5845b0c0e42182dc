// Package admin mounts a CRUD admin site for SQL-backed models onto a chi
// router. Pages are JSON component trees rendered by a prebuilt frontend.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapadmin/internal/notifier"
	"github.com/leapstack-labs/leapadmin/pkg/schema"
)

var (
	// ErrNoStore is returned by New when no store is configured.
	ErrNoStore = errors.New("admin: a store is required; model views cannot work without one")
	// ErrMounted is returned when views are added after Mount.
	ErrMounted = errors.New("admin: cannot add views after the admin is mounted")
	// ErrDuplicateView is returned when two views resolve to the same URL.
	ErrDuplicateView = errors.New("admin: duplicate view URL")
)

// Store is the persistence used by model views. Get, Update and Delete
// return an error matching store.ErrNotFound for missing rows.
type Store interface {
	Count(ctx context.Context, t *schema.Table) (int64, error)
	List(ctx context.Context, t *schema.Table, offset, limit int) ([]schema.Record, error)
	Get(ctx context.Context, t *schema.Table, pk int64) (schema.Record, error)
	Insert(ctx context.Context, t *schema.Table, rec schema.Record) (int64, error)
	Update(ctx context.Context, t *schema.Table, pk int64, rec schema.Record) error
	Delete(ctx context.Context, t *schema.Table, pk int64) error
}

// Config holds the options for New. Zero values select the defaults.
type Config struct {
	Title      string
	BaseURL    string
	RouteName  string
	LogoURL    string
	FaviconURL string
	Debug      bool
	FooterText string
	IndexView  *IndexView
	Logger     *slog.Logger
	// Sessions enables flash messages when set.
	Sessions sessions.Store
	Metrics  *Metrics
	Notifier *notifier.Notifier
}

// Route is one entry of the synthesized route table. Pattern is relative
// to the base URL.
type Route struct {
	Name    string   `json:"name" yaml:"name"`
	Methods []string `json:"methods" yaml:"methods"`
	Pattern string   `json:"pattern" yaml:"pattern"`

	handler http.HandlerFunc
}

// Admin is the admin site.
type Admin struct {
	title     string
	baseURL   string
	routeName string
	debug     bool
	index     *IndexView
	layout    *Layout

	app      chi.Router
	store    Store
	views    []View
	routes   []Route
	mounted  bool
	logger   *slog.Logger
	sessions sessions.Store
	notifier *notifier.Notifier
	metrics  *Metrics
}

// New creates an admin attached to app. Views are served once Mount is called.
func New(app chi.Router, st Store, cfg Config) (*Admin, error) {
	if st == nil {
		return nil, ErrNoStore
	}
	if cfg.Title == "" {
		cfg.Title = "Admin"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "/admin"
	}
	if cfg.RouteName == "" {
		cfg.RouteName = "admin"
	}
	if cfg.IndexView == nil {
		cfg.IndexView = &IndexView{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notifier.New()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	return &Admin{
		title:     cfg.Title,
		baseURL:   base,
		routeName: cfg.RouteName,
		debug:     cfg.Debug,
		index:     cfg.IndexView,
		layout: &Layout{
			Title:      cfg.Title,
			BaseURL:    base,
			LogoURL:    cfg.LogoURL,
			FaviconURL: cfg.FaviconURL,
			FooterText: cfg.FooterText,
		},
		app:      app,
		store:    st,
		logger:   cfg.Logger,
		sessions: cfg.Sessions,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
	}, nil
}

// Title returns the site title.
func (a *Admin) Title() string { return a.title }

// BaseURL returns the mount path without a trailing slash.
func (a *Admin) BaseURL() string { return a.baseURL }

// RouteName returns the name of the mounted admin.
func (a *Admin) RouteName() string { return a.routeName }

// Layout returns the page layout.
func (a *Admin) Layout() *Layout { return a.layout }

// Notifier returns the change notifier fed by model view writes.
func (a *Admin) Notifier() *notifier.Notifier { return a.notifier }

// Views returns the registered views. After Mount the index view is first.
func (a *Admin) Views() []View { return a.views }

// Mounted reports whether Mount has run.
func (a *Admin) Mounted() bool { return a.mounted }

// AddView registers a view. Model views reflect their model here.
func (a *Admin) AddView(v View) error {
	if a.mounted {
		return ErrMounted
	}
	if mv, ok := v.(*ModelView); ok {
		if err := mv.prepare(); err != nil {
			return err
		}
	}

	slug := v.slug()
	if slug == "" || slug == "api" {
		return fmt.Errorf("%w: %q is reserved", ErrDuplicateView, v.Name())
	}
	for _, existing := range a.views {
		if existing.slug() == slug {
			return fmt.Errorf("%w: %q and %q both use /%s/", ErrDuplicateView, existing.Name(), v.Name(), slug)
		}
	}
	a.views = append(a.views, v)
	return nil
}

// Mount builds the routes and attaches the admin under its base URL.
// Calling it again does nothing.
func (a *Admin) Mount() error {
	if a.mounted {
		return nil
	}
	a.views = append([]View{a.index}, a.views...)
	a.routes = a.buildRoutes()

	sub := chi.NewRouter()
	sub.Use(middleware.GetHead)
	sub.NotFound(a.notFound)
	sub.MethodNotAllowed(a.notFound)
	for _, rt := range a.routes {
		for _, m := range rt.Methods {
			sub.Method(m, chiPattern(rt.Pattern), rt.handler)
		}
	}

	mountAt := a.baseURL
	if mountAt == "" {
		mountAt = "/"
	}
	a.app.Mount(mountAt, sub)
	a.mounted = true

	a.logger.Info("admin mounted", "base_url", mountAt, "views", len(a.views), "routes", len(a.routes))
	return nil
}

// Routes returns the route table in registration order. Empty before Mount.
func (a *Admin) Routes() []Route {
	out := make([]Route, len(a.routes))
	copy(out, a.routes)
	return out
}

func (a *Admin) buildRoutes() []Route {
	routes := []Route{
		{Name: "index", Methods: []string{http.MethodGet}, Pattern: "/", handler: a.shellHandler("")},
		{Name: "index_api", Methods: []string{http.MethodGet}, Pattern: "/api/", handler: a.indexAPI},
	}
	for _, v := range a.views {
		if mv, ok := v.(*ModelView); ok {
			routes = append(routes, a.modelRoutes(mv)...)
		}
	}
	for _, v := range a.views {
		bv, ok := v.(*BaseView)
		if !ok {
			continue
		}
		slug := bv.slug()
		routes = append(routes,
			Route{Name: bv.Name() + "_html", Methods: []string{http.MethodGet}, Pattern: "/" + slug + "/",
				handler: a.shellHandler(bv.Name() + " - " + a.title)},
			Route{Name: bv.Name() + "_api", Methods: []string{http.MethodGet}, Pattern: "/api/" + slug + "/",
				handler: a.viewAPI(bv)},
		)
	}
	return append(routes, Route{Name: "catch_all", Methods: []string{http.MethodGet}, Pattern: "/*", handler: a.shellHandler("")})
}

func (a *Admin) modelRoutes(v *ModelView) []Route {
	h := &modelHandlers{admin: a, view: v}
	base := "/" + v.slug()
	name := v.Name()
	get := []string{http.MethodGet}
	getPost := []string{http.MethodGet, http.MethodPost}

	routes := []Route{
		{Name: name + "_list", Methods: get, Pattern: base + "/", handler: a.shellHandler(name + " - " + a.title)},
		{Name: name + "_list_api", Methods: get, Pattern: "/api" + base + "/", handler: h.list},
		{Name: name + "_changes_api", Methods: get, Pattern: "/api" + base + "/changes", handler: h.changes},
	}
	p := v.perms()
	if p.Create {
		routes = append(routes,
			Route{Name: name + "_create", Methods: get, Pattern: base + "/create", handler: a.shellHandler("Create " + name + " - " + a.title)},
			Route{Name: name + "_create_api", Methods: getPost, Pattern: "/api" + base + "/create", handler: h.create},
		)
	}
	if p.ViewDetails {
		routes = append(routes,
			Route{Name: name + "_detail", Methods: get, Pattern: base + "/{pk:int}", handler: a.shellHandler(name + " - " + a.title)},
			Route{Name: name + "_detail_api", Methods: get, Pattern: "/api" + base + "/{pk:int}", handler: h.detail},
		)
	}
	if p.Edit {
		routes = append(routes,
			Route{Name: name + "_edit", Methods: get, Pattern: base + "/{pk:int}/edit", handler: a.shellHandler("Edit " + name + " - " + a.title)},
			Route{Name: name + "_edit_api", Methods: getPost, Pattern: "/api" + base + "/{pk:int}/edit", handler: h.edit},
		)
	}
	if p.Delete {
		routes = append(routes,
			Route{Name: name + "_delete_api", Methods: []string{http.MethodPost}, Pattern: "/api" + base + "/{pk:int}/delete", handler: h.delete},
		)
	}
	return routes
}

// chiPattern translates the displayed {pk:int} parameter into a chi regexp.
func chiPattern(pattern string) string {
	return strings.ReplaceAll(pattern, "{pk:int}", "{pk:[0-9]+}")
}

func (a *Admin) shellHandler(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := a.layout.Shell(title).Render(r.Context(), w); err != nil {
			a.logger.Error("failed to render page shell", "path", r.URL.Path, "error", err)
		}
	}
}

func (a *Admin) notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
}
