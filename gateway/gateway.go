package gateway

import (
	"net/http"
	"net/url"

	"github.com/nicolagi/kvgate/storage"
	log "github.com/sirupsen/logrus"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

type Option func(*options)

type options struct {
	store storage.Store
	pages PageRenderer
}

// WithStore binds the store. Without one, every request fails with
// ErrStoreNotBound.
func WithStore(value storage.Store) Option {
	return func(o *options) {
		o.store = value
	}
}

// WithPageRenderer replaces the built-in control panel.
func WithPageRenderer(value PageRenderer) Option {
	return func(o *options) {
		o.pages = value
	}
}

// Gateway is an http.Handler. It keeps no mutable state of its own, so
// requests are served fully in parallel; concurrent uploads to one key race
// in the store, and the last write wins.
type Gateway struct {
	config Config
	opts   options
	router Router
}

func New(config Config, opts ...Option) (*Gateway, error) {
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}
	g := &Gateway{
		config: config,
		router: NewRouter(NewAuthorizer(config.Token)),
	}
	g.opts.pages = NewTemplatePages()
	for _, o := range opts {
		o(&g.opts)
	}
	return g, nil
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(log.Fields{
		"method": r.Method,
		"remote": r.RemoteAddr,
	})
	status, body := func() (int, []byte) {
		if g.opts.store == nil {
			return g.fail(w, logger, ErrStoreNotBound)
		}
		route, key := g.router.Classify(r)
		logger = logger.WithField("op", route)
		switch route {
		case RouteDecoy:
			w.Header().Set("Content-Type", contentTypeHTML)
			return http.StatusOK, []byte(decoyPage)
		case RouteDenied:
			return g.fail(w, logger, ErrInvalidToken)
		case RouteUpload:
			return g.upload(w, r, logger)
		case RouteConfigPage:
			return g.configPage(w, r, logger)
		default:
			logger = logger.WithField("key", key)
			return g.fetch(w, key, logger)
		}
	}()
	w.WriteHeader(status)
	if body != nil {
		if _, err := w.Write(body); err != nil {
			logger.WithField("err", err).Error("Failed writing response")
		}
	}
}

func (g *Gateway) configPage(w http.ResponseWriter, r *http.Request, logger *log.Entry) (int, []byte) {
	html, err := g.opts.pages.RenderConfig(hostname(r), g.config.Token)
	if err != nil {
		logger.WithField("err", err).Error("Could not render config page")
		w.Header().Set("Content-Type", contentTypeText)
		return http.StatusInternalServerError, []byte(err.Error())
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	return http.StatusOK, html
}

// fail logs err at a level matching its status and returns the response.
func (g *Gateway) fail(w http.ResponseWriter, logger *log.Entry, err error) (int, []byte) {
	status := statusFor(err)
	entry := logger.WithFields(log.Fields{
		"err":    err,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Bad request")
	}
	w.Header().Set("Content-Type", contentTypeText)
	return status, []byte(err.Error())
}

// hostname is the request host without port, as shown in the control panel.
func hostname(r *http.Request) string {
	if r.URL.Host != "" {
		return r.URL.Hostname()
	}
	return (&url.URL{Host: r.Host}).Hostname()
}
