// Package router assembles the versioned API from domain route groups.
package router

import (
	"path"

	"github.com/gin-gonic/gin"
)

// Route describes one endpoint. Path is relative to the group it was read
// from: the API base path for Router.Routes, the group itself otherwise.
type Route struct {
	Method      string
	Path        string
	Description string
}

// Router mounts domain groups under /api/<version>.
type Router struct {
	engine  *gin.Engine
	version string
	groups  []*DomainGroup
}

// Option configures a Router.
type Option func(*Router)

// WithAPIVersion sets the version segment of the base path, e.g. "v2".
func WithAPIVersion(version string) Option {
	return func(r *Router) { r.version = version }
}

// NewRouter creates a router for engine. engine may be nil when the router
// is only used to list routes.
func NewRouter(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues groups for Setup.
func (r *Router) Register(groups ...*DomainGroup) *Router {
	r.groups = append(r.groups, groups...)
	return r
}

// BasePath returns the versioned API prefix, e.g. /api/v1.
func (r *Router) BasePath() string {
	return "/api/" + r.version
}

// Routes lists every registered route with its full path.
func (r *Router) Routes() []Route {
	var out []Route
	for _, g := range r.groups {
		for _, route := range g.Routes() {
			route.Path = path.Join(r.BasePath(), route.Path)
			out = append(out, route)
		}
	}
	return out
}

// Setup mounts the registered groups on the engine and returns what it mounted.
func (r *Router) Setup() []Route {
	api := r.engine.Group(r.BasePath())
	for _, g := range r.groups {
		g.mount(api)
	}
	return r.Routes()
}

// DomainGroup collects the routes of one bounded context under a prefix.
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []endpoint
	subgroups  []*DomainGroup
}

type endpoint struct {
	Route
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates an empty group.
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (dg *DomainGroup) Name() string   { return dg.name }
func (dg *DomainGroup) Prefix() string { return dg.prefix }

// Use adds middleware that runs for this group and its subgroups.
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle adds a route. The description shows up in route listings.
func (dg *DomainGroup) Handle(method, relPath, description string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, endpoint{
		Route:    Route{Method: method, Path: relPath, Description: description},
		handlers: handlers,
	})
	return dg
}

// Group creates a nested group and returns it.
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, sub)
	return sub
}

// Routes lists the group's routes, subgroups included, prefixed with the
// group's own prefix.
func (dg *DomainGroup) Routes() []Route {
	out := make([]Route, 0, len(dg.routes))
	for _, e := range dg.routes {
		r := e.Route
		r.Path = joinPath(dg.prefix, r.Path)
		out = append(out, r)
	}
	for _, sub := range dg.subgroups {
		for _, r := range sub.Routes() {
			r.Path = joinPath(dg.prefix, r.Path)
			out = append(out, r)
		}
	}
	return out
}

// RegisterRoutes mounts the group on rg.
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	dg.mount(rg)
}

func (dg *DomainGroup) mount(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, e := range dg.routes {
		group.Handle(e.Method, e.Path, e.handlers...)
	}
	for _, sub := range dg.subgroups {
		sub.mount(group)
	}
}

func joinPath(prefix, p string) string {
	if p == "" {
		return prefix
	}
	return path.Join(prefix, p)
}
