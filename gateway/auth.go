package gateway

import (
	"crypto/subtle"
	"net/http"
)

// Authorizer validates presented tokens against the configured secret.
type Authorizer struct {
	secret string
}

func NewAuthorizer(secret string) Authorizer {
	return Authorizer{secret: secret}
}

// IsAuthorized compares in constant time. The empty token is never valid.
func (a Authorizer) IsAuthorized(presented string) bool {
	if presented == "" || a.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(a.secret)) == 1
}

// PresentedToken extracts the token a request carries. Requesting "/<secret>"
// presents the secret itself; otherwise the "token" query parameter is used.
func (a Authorizer) PresentedToken(r *http.Request) string {
	if a.isSecretPath(r.URL.Path) {
		return a.secret
	}
	return r.URL.Query().Get("token")
}

func (a Authorizer) isSecretPath(path string) bool {
	return a.secret != "" && path == "/"+a.secret
}
