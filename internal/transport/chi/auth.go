package chi

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	errNoCredentials = errors.New("missing authorization header")
	errNotBearer     = errors.New("authorization header must use the Bearer scheme")
	errUnknownKey    = errors.New("invalid api key")
)

// keyring holds the accepted API keys.
type keyring [][]byte

func newKeyring(keys []string) keyring {
	var kr keyring
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			kr = append(kr, []byte(k))
		}
	}
	return kr
}

// accepts compares token with every key so timing does not reveal which one matched.
func (kr keyring) accepts(token string) bool {
	var match int
	for _, k := range kr {
		match |= subtle.ConstantTimeCompare(k, []byte(token))
	}
	return match == 1
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoCredentials
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	return strings.TrimSpace(token), nil
}

// RequireAPIKey rejects requests without a known Bearer key. With no keys
// configured it returns next unchanged. Mount it only on routes that need it.
func RequireAPIKey(apiKeys []string) func(http.Handler) http.Handler {
	kr := newKeyring(apiKeys)
	return func(next http.Handler) http.Handler {
		if len(kr) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r.Header.Get("Authorization"))
			if err == nil && !kr.accepts(token) {
				err = errUnknownKey
			}
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="croptalk"`)
				writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
