package gateway

import (
	"net/http"
	"strings"
)

// Route is what the gateway does with a request.
type Route uint8

const (
	RouteDecoy Route = iota
	RouteDenied
	RouteUpload
	RouteConfigPage
	RouteFetch
)

// String implements fmt.Stringer.
func (r Route) String() string {
	switch r {
	case RouteDecoy:
		return "decoy"
	case RouteDenied:
		return "denied"
	case RouteUpload:
		return "upload"
	case RouteConfigPage:
		return "config"
	case RouteFetch:
		return "fetch"
	default:
		return "unknown route"
	}
}

const (
	uploadPath = "/upload"

	// configKey always routes to the control panel, whether or not a value
	// is stored under that name.
	configKey = "config"
)

// Router classifies requests.
type Router struct {
	auth Authorizer
}

func NewRouter(auth Authorizer) Router {
	return Router{auth: auth}
}

// Classify returns the route for r, and the blob key for RouteFetch.
func (rt Router) Classify(r *http.Request) (route Route, key string) {
	path := r.URL.Path
	if !rt.auth.IsAuthorized(rt.auth.PresentedToken(r)) {
		if path == "/" {
			return RouteDecoy, ""
		}
		return RouteDenied, ""
	}
	if path == uploadPath && r.Method == http.MethodPost {
		return RouteUpload, ""
	}
	key = strings.TrimPrefix(path, "/")
	if rt.IsReserved(key) {
		return RouteConfigPage, ""
	}
	return RouteFetch, key
}

// IsReserved reports whether key names the control panel rather than a blob.
func (rt Router) IsReserved(key string) bool {
	return key == configKey || rt.auth.isSecretPath("/"+key)
}
