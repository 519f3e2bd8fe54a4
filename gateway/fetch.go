package gateway

import (
	"errors"
	"net/http"

	"github.com/nicolagi/kvgate/storage"
	log "github.com/sirupsen/logrus"
)

// fetch serves the stored value for key. A missing key is not an error: it
// yields 200 with an empty body.
func (g *Gateway) fetch(w http.ResponseWriter, key string, logger *log.Entry) (int, []byte) {
	if key == "" {
		w.Header().Set("Content-Type", contentTypeText)
		w.Header().Set(storage.ExistsHeader, "false")
		return http.StatusOK, nil
	}
	value, err := g.opts.store.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		logger.WithField("err", err).Debug("Not found")
		w.Header().Set("Content-Type", contentTypeText)
		w.Header().Set(storage.ExistsHeader, "false")
		return http.StatusOK, nil
	}
	if err != nil {
		return g.fail(w, logger, &StorageError{Op: "get", Key: key, Err: err})
	}
	logger.Debug("Success")
	w.Header().Set("Content-Type", contentTypeText)
	w.Header().Set(storage.ExistsHeader, "true")
	return http.StatusOK, value
}
