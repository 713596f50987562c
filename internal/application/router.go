package application

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/BitForged/Compass/internal/ports"
)

const (
	msgRouteNotFound = "That page does not exist."
	msgLoginRequired = "You must be logged in to access that page."
)

// DefaultRoutes is the route table of the client views.
var DefaultRoutes = []domain.Route{
	{Path: "/", Name: "home"},
	{Path: "/gallery", Name: "gallery", Meta: domain.RouteMeta{RequiresAuth: true}},
	{Path: "/generate", Name: "generate", Meta: domain.RouteMeta{RequiresAuth: true}},
	{Path: "/settings", Name: "settings"},
	{Path: "/models", Name: "models", Meta: domain.RouteMeta{RequiresAuth: true}},
}

// AuthState is the part of the session the guard consults.
type AuthState interface {
	IsLoggedIn() bool
}

// Decision is the outcome of evaluating one navigation attempt.
type Decision struct {
	Allow    bool
	Route    domain.Route
	Redirect string
	Err      error
}

// Guard decides each navigation attempt on its own: unknown routes and
// protected routes without a session are redirected to the root.
type Guard struct {
	routes   []domain.Route
	auth     AuthState
	notifier ports.Notifier
	log      *slog.Logger
}

func NewGuard(routes []domain.Route, auth AuthState, notifier ports.Notifier, log *slog.Logger) *Guard {
	return &Guard{routes: routes, auth: auth, notifier: notifier, log: orDiscard(log)}
}

func (g *Guard) Resolve(path string) (domain.Route, bool) {
	for _, route := range g.routes {
		if _, ok := route.Match(path); ok {
			return route, true
		}
	}
	return domain.Route{}, false
}

func (g *Guard) BeforeEach(to string) Decision {
	g.log.Debug("navigating", "to", to)

	route, ok := g.Resolve(to)
	if !ok {
		g.log.Debug("no route found, redirecting", "to", to, "redirect", domain.RootPath)
		g.notifier.Add(msgRouteNotFound, domain.SeverityError)
		return Decision{Redirect: domain.RootPath, Err: fmt.Errorf("%s: %w", to, domain.ErrRouteNotFound)}
	}

	if route.Meta.RequiresAuth && !g.auth.IsLoggedIn() {
		g.log.Debug("not logged in, redirecting", "to", to, "redirect", domain.RootPath)
		g.notifier.Add(msgLoginRequired, domain.SeverityError)
		return Decision{Route: route, Redirect: domain.RootPath, Err: fmt.Errorf("%s: %w", to, domain.ErrAuthRequired)}
	}

	return Decision{Allow: true, Route: route}
}

// Router tracks the current route and runs the guard on every navigation.
type Router struct {
	guard *Guard

	mu      sync.Mutex
	current domain.Route
}

var _ ports.Navigator = (*Router)(nil)

func NewRouter(guard *Guard) *Router {
	root, _ := guard.Resolve(domain.RootPath)
	return &Router{guard: guard, current: root}
}

// Navigate moves to path. When the guard aborts the attempt the router lands
// on the redirect target and the guard's error is returned.
func (r *Router) Navigate(path string) (domain.Route, error) {
	decision := r.guard.BeforeEach(path)
	if decision.Allow {
		r.setCurrent(decision.Route)
		return decision.Route, nil
	}

	redirect, ok := r.guard.Resolve(decision.Redirect)
	if ok {
		r.setCurrent(redirect)
	}
	return redirect, decision.Err
}

func (r *Router) Current() domain.Route {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current
}

func (r *Router) setCurrent(route domain.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = route
}
