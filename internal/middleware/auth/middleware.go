package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"billreminder/internal/core"
	"billreminder/internal/log"
)

type contextKey struct{}

// WithOwner returns ctx carrying owner.
func WithOwner(ctx context.Context, owner core.Owner) context.Context {
	return context.WithValue(ctx, contextKey{}, owner)
}

// OwnerFrom returns the authenticated owner, if any.
func OwnerFrom(ctx context.Context) (core.Owner, bool) {
	owner, ok := ctx.Value(contextKey{}).(core.Owner)
	return owner, ok && owner.ID != ""
}

// Authenticator turns bearer tokens into owners on the request context.
type Authenticator struct {
	tokens *JWTManager
	logger *log.Logger
}

func NewAuthenticator(tokens *JWTManager, logger *log.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, logger: logger.WithComponent(log.ComponentAuth)}
}

// Optional attaches the owner when a valid token is present and passes
// anonymous requests through. An invalid token is still rejected.
func (a *Authenticator) Optional(onFail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return a.middleware(false, onFail)
}

// Required rejects requests without a valid token.
func (a *Authenticator) Required(onFail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return a.middleware(true, onFail)
}

func (a *Authenticator) middleware(required bool, onFail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	if onFail == nil {
		onFail = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if errors.Is(err, ErrMissingToken) && !required {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				onFail(w, r, err)
				return
			}

			owner, err := a.tokens.Validate(raw)
			if err != nil {
				a.logger.WarnContext(r.Context(), "Rejected bearer token",
					log.FieldPath, r.URL.Path,
					log.FieldError, err.Error())
				onFail(w, r, ErrInvalidToken)
				return
			}

			ctx := WithOwner(r.Context(), owner)
			logger := log.FromContext(ctx).With(log.FieldOwnerID, owner.ID)
			next.ServeHTTP(w, r.WithContext(log.NewContext(ctx, logger)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}
