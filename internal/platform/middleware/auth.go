package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AnonymousPrincipal is the well-known unauthenticated caller identity.
const AnonymousPrincipal = "2vxsx-fae"

// CallerClaims is the token payload callers present. Subject carries the
// principal; Anchor is set only on recovery assertions.
type CallerClaims struct {
	Anchor uint64 `json:"anchor,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator validates bearer tokens and resolves the caller principal.
type Authenticator struct {
	signingKey []byte
	devMode    bool
	log        *slog.Logger
}

func NewAuthenticator(signingKey string, devMode bool, log *slog.Logger) *Authenticator {
	return &Authenticator{signingKey: []byte(signingKey), devMode: devMode, log: log}
}

// Principal extracts the caller principal from the request. Dev mode trusts
// the X-Principal header the way local canister replicas trust the agent
// identity; production requires a signed bearer token.
func (a *Authenticator) Principal(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		claims := &CallerClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims,
			func(t *jwt.Token) (any, error) { return a.signingKey, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}
	if a.devMode {
		if p := r.Header.Get("X-Principal"); p != "" {
			return p, nil
		}
	}
	return AnonymousPrincipal, nil
}

// VerifyRecoveryProof validates a recovery assertion and returns the anchor
// it vouches for. The proof is minted by the identity provider after the
// caller re-authenticated its root device.
func (a *Authenticator) VerifyRecoveryProof(proof string) (uint64, string, error) {
	claims := &CallerClaims{}
	_, err := jwt.ParseWithClaims(proof, claims,
		func(t *jwt.Token) (any, error) { return a.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, "", err
	}
	return claims.Anchor, claims.Subject, nil
}

// RequireCaller rejects anonymous and unverifiable callers with a call-level
// failure. Domain 403s stay inside envelopes; a broken signature is a
// transport problem, mirroring agent rejections.
func (a *Authenticator) RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.Principal(r)
		if err != nil {
			a.log.WarnContext(r.Context(), "caller token rejected",
				"request_id", GetRequestID(r.Context()),
				"error", err.Error(),
			)
			http.Error(w, "request could not be authenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), principal)))
	})
}

// WithCaller stores the caller principal on the context.
func WithCaller(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, callerKey, principal)
}

// Caller returns the caller principal, defaulting to anonymous.
func Caller(ctx context.Context) string {
	if p, ok := ctx.Value(callerKey).(string); ok && p != "" {
		return p
	}
	return AnonymousPrincipal
}

// IsAnonymous reports whether the principal is the anonymous identity.
func IsAnonymous(principal string) bool {
	return principal == "" || principal == AnonymousPrincipal
}
