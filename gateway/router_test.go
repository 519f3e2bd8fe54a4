package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouterClassify(t *testing.T) {
	rt := NewRouter(NewAuthorizer("s3cret"))
	testCases := []struct {
		method    string
		target    string
		wantRoute Route
		wantKey   string
	}{
		{http.MethodGet, "/", RouteDecoy, ""},
		{http.MethodGet, "/?token=nope", RouteDecoy, ""},
		{http.MethodGet, "/a.txt", RouteDenied, ""},
		{http.MethodPost, "/upload", RouteDenied, ""},
		{http.MethodPost, "/upload?token=s3cret", RouteUpload, ""},
		{http.MethodGet, "/upload?token=s3cret", RouteFetch, "upload"},
		{http.MethodGet, "/config?token=s3cret", RouteConfigPage, ""},
		{http.MethodPost, "/config?token=s3cret", RouteConfigPage, ""},
		{http.MethodGet, "/s3cret", RouteConfigPage, ""},
		{http.MethodGet, "/s3cret?token=wrong", RouteConfigPage, ""},
		{http.MethodGet, "/a.txt?token=s3cret", RouteFetch, "a.txt"},
		{http.MethodGet, "/dir/a.txt?token=s3cret", RouteFetch, "dir/a.txt"},
		{http.MethodGet, "/with%20space?token=s3cret", RouteFetch, "with space"},
		{http.MethodGet, "/?token=s3cret", RouteFetch, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			route, key := rt.Classify(httptest.NewRequest(tc.method, tc.target, nil))
			assert.Equal(t, tc.wantRoute, route, "got %v", route)
			assert.Equal(t, tc.wantKey, key)
		})
	}
}

func TestAuthorizer(t *testing.T) {
	a := NewAuthorizer("s3cret")
	assert.True(t, a.IsAuthorized("s3cret"))
	assert.False(t, a.IsAuthorized(""))
	assert.False(t, a.IsAuthorized("s3cret "))
	assert.False(t, a.IsAuthorized("S3CRET"))
	assert.False(t, NewAuthorizer("").IsAuthorized(""))

	t.Run("query parameter", func(t *testing.T) {
		assert.Equal(t, "abc", a.PresentedToken(httptest.NewRequest(http.MethodGet, "/k?token=abc", nil)))
	})
	t.Run("secret path presents the secret", func(t *testing.T) {
		assert.Equal(t, "s3cret", a.PresentedToken(httptest.NewRequest(http.MethodGet, "/s3cret?token=abc", nil)))
	})
	t.Run("nothing presented", func(t *testing.T) {
		assert.Equal(t, "", a.PresentedToken(httptest.NewRequest(http.MethodGet, "/k", nil)))
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(ErrStoreNotBound))
	assert.Equal(t, http.StatusBadRequest, statusFor(ErrInvalidToken))
	assert.Equal(t, http.StatusBadRequest, statusFor(ErrMissingFile))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(ErrUploadTooLarge))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&StorageError{Op: "get", Key: "k", Err: ErrMissingFile}))
}
