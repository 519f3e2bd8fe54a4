package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	golog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/gops/agent"
	"github.com/nicolagi/kvgate/gateway"
	"github.com/nicolagi/kvgate/metrics"
	"github.com/nicolagi/kvgate/storage"
	log "github.com/sirupsen/logrus"
)

func main() {
	defaultConfigFile := os.ExpandEnv("$HOME/lib/kvgate/kvgate.config")
	configFile := flag.String("config", defaultConfigFile, "location of configuration file")
	flag.Parse()

	opts, err := loadConfig(*configFile)
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"path": *configFile,
		}).Fatal("Could not load configuration")
	}
	opts.applyDefaultsForMissingProperties()

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	cleanup := redirectLogging(opts)
	defer cleanup()

	if err := agent.Listen(agent.Options{
		ShutdownCleanup: true,
	}); err != nil {
		log.WithField("err", err).Warn("Could not start gops agent")
	} else {
		defer agent.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, closeStore, err := openStore(ctx, &opts.Store)
	cancel()
	if err != nil {
		log.WithField("err", err).Fatal("Could not open store")
	}
	defer closeStore()

	m := metrics.New()
	var gopts []gateway.Option
	if store != nil {
		gopts = append(gopts, gateway.WithStore(metrics.NewInstrumentedStore(store, m)))
	} else {
		log.Warn("No store configured, all requests will fail")
	}
	g, err := gateway.New(opts.gatewayConfig(), gopts...)
	if err != nil {
		log.WithField("err", err).Fatal("Could not create gateway")
	}

	srv := &http.Server{
		Addr:              opts.Address,
		Handler:           m.Middleware(g),
		ReadHeaderTimeout: 10 * time.Second,
	}
	var admin *http.Server
	if opts.AdminAddress != "" {
		admin = &http.Server{
			Addr:              opts.AdminAddress,
			Handler:           adminRouter(m, store),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.WithField("addr", admin.Addr).Info("Admin listening")
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithField("err", err).Error("Admin listener failed")
			}
		}()
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"addr": srv.Addr,
		}).Fatal("Could not listen")
	}

	// Before we call serve, which only returns after Shutdown is called, we need
	// to install a signal handler to trigger it.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	serve(srv, admin, ln, c)
}

// serve returns once srv has stopped and every in-flight request has
// completed, so that the deferred store cleanup in main never runs under a
// live handler. A value on sigc starts the shutdown.
func serve(srv, admin *http.Server, ln net.Listener, sigc <-chan os.Signal) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := <-sigc
		log.WithField("signal", sig).Info("Shutting down server")
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		if admin != nil {
			_ = admin.Shutdown(sctx)
		}
		// Returns when in-flight requests are done, or on timeout.
		if err := srv.Shutdown(sctx); err != nil {
			log.WithFields(log.Fields{"err": err}).Warn("Could not shut down the server cleanly")
		}
	}()

	log.WithField("addr", ln.Addr()).Info("Listening")
	// Serve returns as soon as Shutdown starts, not when it finishes.
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithField("err", err).Error("Could not serve")
		return
	}
	<-done
}

func adminRouter(m *metrics.Metrics, store storage.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, gateway.ErrStoreNotBound.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

func redirectLogging(c *config) (cleanup func()) {
	golog.SetOutput(log.StandardLogger().Writer())
	if c.LogPath == "" {
		return func() {}
	}
	pathname := os.ExpandEnv(c.LogPath)
	logger := log.WithField("pathname", pathname)
	f, err := os.OpenFile(pathname, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		logger.WithField("err", err).Fatal("Could not open log file")
	}
	logger.Info("Lines after this one will logged to a file")
	log.SetOutput(f)
	return func() {
		if err := f.Close(); err != nil {
			// Can't use the logger here!
			_, _ = fmt.Fprintf(os.Stderr, "Could not close log file cleanly %q: %v", pathname, err)
		}
	}
}
