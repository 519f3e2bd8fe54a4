package gateway

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/nicolagi/kvgate/codec"
	"github.com/nicolagi/kvgate/storage"
	log "github.com/sirupsen/logrus"
)

const uploadConfirmation = "file uploaded successfully"

// upload stores the "file" part of a multipart form under its file name. The
// payload is read fully into memory; the request body is capped at the
// configured upload limit.
func (g *Gateway) upload(w http.ResponseWriter, r *http.Request, logger *log.Entry) (int, []byte) {
	r.Body = http.MaxBytesReader(w, r.Body, g.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(g.config.MaxUploadBytes); err != nil {
		return g.fail(w, logger, classifyFormError(err))
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.WithField("err", err).Warn("Could not remove temporary upload files")
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return g.fail(w, logger, ErrMissingFile)
		}
		return g.fail(w, logger, fmt.Errorf("%w: %v", ErrMalformedUpload, err))
	}
	defer func() {
		_ = file.Close()
	}()
	key := uploadKey(header)
	if key == "" {
		return g.fail(w, logger, ErrMissingFile)
	}
	logger = logger.WithField("key", key)
	if g.router.IsReserved(key) {
		return g.fail(w, logger, fmt.Errorf("%w: %q", ErrReservedKey, key))
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		return g.fail(w, logger, fmt.Errorf("%w: %v", ErrMalformedUpload, err))
	}
	mode, err := codec.ParseMode(r.FormValue("encryption"))
	if err != nil {
		logger.WithField("err", err).Warn("Storing as plaintext")
	}
	value := mode.Apply(payload)
	logger = logger.WithFields(log.Fields{
		"mode": mode,
		"size": len(value),
	})

	// Only observed. Overwrites are allowed and nothing guards the window
	// between this check and the put.
	existed, err := storage.Exists(g.opts.store, key)
	if err != nil {
		logger.WithField("err", err).Warn("Could not check for an existing value")
	} else if existed {
		logger.Info("Overwriting existing value")
	}

	if err := g.opts.store.Put(key, value); err != nil {
		return g.fail(w, logger, &StorageError{Op: "put", Key: key, Err: err})
	}
	logger.Debug("Success")
	w.Header().Set("Content-Type", contentTypeText)
	return http.StatusOK, []byte(uploadConfirmation)
}

// uploadKey is the file name exactly as the client sent it. FileHeader.Filename
// has been through filepath.Base, which would store "dir/a.txt" as "a.txt".
func uploadKey(header *multipart.FileHeader) string {
	_, params, err := mime.ParseMediaType(header.Header.Get("Content-Disposition"))
	if err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return header.Filename
}

func classifyFormError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, mbe.Limit)
	}
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		return ErrMissingFile
	}
	return fmt.Errorf("%w: %v", ErrMalformedUpload, err)
}
