package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/nicolagi/kvgate/codec"
)

// ExistsHeader is set by the gateway on fetch responses, so that clients can
// tell a missing key from an empty value. Both come back as 200 with an empty
// body.
const ExistsHeader = "X-Blob-Exists"

// RemoteStore implements Store. It requires to connect to a kvgate server, and
// uses its public surface: multipart uploads for puts and token-authenticated
// fetches for gets.
type RemoteStore struct {
	base   *url.URL
	token  string
	mode   codec.Mode
	client *http.Client
}

type RemoteOption func(*RemoteStore)

// WithMode selects the encryption form field sent with uploads.
func WithMode(mode codec.Mode) RemoteOption {
	return func(r *RemoteStore) {
		r.mode = mode
	}
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteStore) {
		r.client = c
	}
}

// NewRemoteStore returns a store talking to the gateway at address, which is
// either host:port or a full http(s) URL.
func NewRemoteStore(address, token string, opts ...RemoteOption) (*RemoteStore, error) {
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	base, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", address, err)
	}
	r := &RemoteStore{
		base:   base,
		token:  token,
		mode:   codec.Plaintext,
		client: http.DefaultClient,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

func (r *RemoteStore) Put(key string, value []byte) (err error) {
	if key == "" {
		return ErrEmptyKey
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", key)
	if err != nil {
		return err
	}
	if _, err = fw.Write(value); err != nil {
		return err
	}
	if err = mw.WriteField("encryption", r.mode.String()); err != nil {
		return err
	}
	if err = mw.Close(); err != nil {
		return err
	}
	request, err := http.NewRequest(http.MethodPost, r.urlFor("upload"), &body)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", mw.FormDataContentType())
	response, err := r.client.Do(request)
	if response != nil && response.Body != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}
	if err != nil {
		return err
	}
	rbody, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%d: %s", response.StatusCode, rbody)
	}
	return nil
}

func (r *RemoteStore) Get(key string) (value []byte, err error) {
	if key == "" {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, ErrEmptyKey)
	}
	response, err := r.client.Get(r.urlFor(url.PathEscape(key)))
	if response != nil && response.Body != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusOK {
		return nil, errors.New(string(body))
	}
	if response.Header.Get(ExistsHeader) == "false" {
		return nil, fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	return body, nil
}

func (r *RemoteStore) urlFor(escapedPath string) string {
	u := *r.base
	u.Path = ""
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	q := url.Values{}
	q.Set("token", r.token)
	return strings.TrimSuffix(u.String(), "/") + "/" + escapedPath + "?" + q.Encode()
}
