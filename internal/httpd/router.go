package httpd

import (
	"log/slog"
	"net/http"
	"regexp"
)

// Handler is one route's business logic, given a Ctx wrapping the request
// and any captures its route matched.
type Handler func(c *Ctx) error

// Middleware wraps a Handler with cross-cutting behavior (logging, panic
// recovery). Middlewares registered with Use run for every request, in
// registration order, before the matched route's handler.
type Middleware func(Handler) Handler

// Ctx is the per-request context passed to every Handler.
type Ctx struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
}

// Writer returns the underlying http.ResponseWriter.
func (c *Ctx) Writer() http.ResponseWriter { return c.w }

// Request returns the underlying *http.Request.
func (c *Ctx) Request() *http.Request { return c.r }

// Param returns a named regex capture group from the matched route, or
// "" if name wasn't captured.
func (c *Ctx) Param(name string) string { return c.params[name] }

// matcher reports whether req matches a route, returning the named
// captures if so. Most routes are built from a path regex (see
// pathMatcher); the smart-HTTP info/refs route additionally needs to
// inspect the query string, which a matcher can do and an http.ServeMux
// pattern cannot.
type matcher func(req *http.Request) (map[string]string, bool)

type route struct {
	method  string // "" matches any method
	match   matcher
	handler Handler
}

// Router is a small priority-ordered route table: routes are tried in the
// order they were registered, and the first whose method and matcher both
// match wins. This is the ordering spec.md's routing table requires (the
// git routes must be checked before the catch-all UI/static routes).
type Router struct {
	routes []route
	chain  []Middleware
	log    *slog.Logger
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{log: slog.Default()}
}

// Logger returns the router's logger.
func (r *Router) Logger() *slog.Logger { return r.log }

// SetLogger replaces the router's logger.
func (r *Router) SetLogger(l *slog.Logger) { r.log = l }

// Use appends global middleware, run for every request before routing.
func (r *Router) Use(mw ...Middleware) {
	r.chain = append(r.chain, mw...)
}

// Handle registers h for requests matching method (empty = any) and m.
// Routes are tried in registration order.
func (r *Router) Handle(method string, m matcher, h Handler) {
	r.routes = append(r.routes, route{method: method, match: m, handler: h})
}

// HandlePath registers h for requests whose path matches pattern, a
// regular expression that is not anchored implicitly: it matches anywhere
// in the path unless it starts with ^ and ends with $.
// Named groups in pattern (?P<name>...) become Ctx.Param values.
func (r *Router) HandlePath(method, pattern string, h Handler) {
	re := regexp.MustCompile(pattern)
	r.Handle(method, pathMatcher(re), h)
}

// Get registers a GET/HEAD route matched against the request path.
func (r *Router) Get(pattern string, h Handler) {
	r.HandlePath(http.MethodGet, pattern, h)
	r.HandlePath(http.MethodHead, pattern, h)
}

// Post registers a POST route matched against the request path.
func (r *Router) Post(pattern string, h Handler) {
	r.HandlePath(http.MethodPost, pattern, h)
}

// pathMatcher builds a matcher testing re against req.URL.Path.
func pathMatcher(re *regexp.Regexp) matcher {
	return func(req *http.Request) (map[string]string, bool) {
		loc := re.FindStringSubmatchIndex(req.URL.Path)
		if loc == nil {
			return nil, false
		}
		return namedGroups(re, req.URL.Path, loc), true
	}
}

func namedGroups(re *regexp.Regexp, s string, loc []int) map[string]string {
	names := re.SubexpNames()
	out := make(map[string]string, len(names))
	for i, name := range names {
		if name == "" || loc[2*i] < 0 {
			continue
		}
		out[name] = s[loc[2*i]:loc[2*i+1]]
	}
	return out
}

// ServeHTTP implements http.Handler: run the global middleware chain,
// then dispatch to the first matching route.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var h Handler = r.dispatch
	for i := len(r.chain) - 1; i >= 0; i-- {
		h = r.chain[i](h)
	}

	ctx := &Ctx{w: w, r: req}
	if err := h(ctx); err != nil {
		r.log.Error("handler error", slog.String("path", req.URL.Path), slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (r *Router) dispatch(c *Ctx) error {
	for _, rt := range r.routes {
		if rt.method != "" && rt.method != c.r.Method {
			continue
		}
		params, ok := rt.match(c.r)
		if !ok {
			continue
		}
		c.params = params
		return rt.handler(c)
	}
	http.NotFound(c.w, c.r)
	return nil
}
