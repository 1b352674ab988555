package middleware

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteInfo records the policies a route was registered with.
type RouteInfo struct {
	Method   string
	Path     string
	Policies []Policy
}

// RouteGroup registers routes with their auth policies resolved at
// registration time: the route's own declaration, else the group's,
// else Bearer.
type RouteGroup struct {
	group    *gin.RouterGroup
	auth     *AuthMiddleware
	policies []Policy
	routes   *[]RouteInfo
}

func NewRouteGroup(group *gin.RouterGroup, auth *AuthMiddleware, policies ...Policy) *RouteGroup {
	return &RouteGroup{
		group:    group,
		auth:     auth,
		policies: policies,
		routes:   &[]RouteInfo{},
	}
}

// Group creates a child group. Without policies it inherits the parent's.
func (g *RouteGroup) Group(relativePath string, policies ...Policy) *RouteGroup {
	return &RouteGroup{
		group:    g.group.Group(relativePath),
		auth:     g.auth,
		policies: ResolvePolicies(policies, g.policies),
		routes:   g.routes,
	}
}

// Use adds plain middleware that runs before the auth check.
func (g *RouteGroup) Use(middleware ...gin.HandlerFunc) *RouteGroup {
	g.group.Use(middleware...)
	return g
}

func (g *RouteGroup) Handle(method, relativePath string, handler gin.HandlerFunc, policies ...Policy) {
	resolved := ResolvePolicies(policies, g.policies)
	g.group.Handle(method, relativePath, GinRequireAuth(g.auth, resolved...), handler)

	*g.routes = append(*g.routes, RouteInfo{
		Method:   method,
		Path:     path.Join(g.group.BasePath(), relativePath),
		Policies: resolved,
	})
}

func (g *RouteGroup) GET(relativePath string, handler gin.HandlerFunc, policies ...Policy) {
	g.Handle(http.MethodGet, relativePath, handler, policies...)
}

func (g *RouteGroup) POST(relativePath string, handler gin.HandlerFunc, policies ...Policy) {
	g.Handle(http.MethodPost, relativePath, handler, policies...)
}

// Routes lists every route registered through this group tree.
func (g *RouteGroup) Routes() []RouteInfo {
	return append([]RouteInfo(nil), *g.routes...)
}
