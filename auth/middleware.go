package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"postboard/schemas"
)

// Claims issued by the auth service. Older tokens only carry the subject.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type contextKey struct{ name string }

var userCtxKey = &contextKey{"user_id"}

// FailureFunc writes the 401 response; handlers plug in their JSON error writer.
type FailureFunc func(w http.ResponseWriter, r *http.Request, err error)

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify validates an HS256 bearer token and returns the user it was issued to.
func (v *Verifier) Verify(tokenString string) (schemas.UserId, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", schemas.ErrUnauthorized, err)
	}
	if !token.Valid {
		return "", fmt.Errorf("%w: token is not valid", schemas.ErrUnauthorized)
	}

	userId := claims.UserID
	if userId == "" {
		userId = claims.Subject
	}
	if userId == "" {
		return "", fmt.Errorf("%w: token has no user", schemas.ErrUnauthorized)
	}
	return schemas.UserId(userId), nil
}

// Middleware rejects requests without a valid "Authorization: Bearer <token>".
func (v *Verifier) Middleware(onFailure FailureFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				onFailure(w, r, fmt.Errorf("%w: no authorization token provided", schemas.ErrUnauthorized))
				return
			}
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tokenStr) == "" {
				onFailure(w, r, fmt.Errorf("%w: format should be Bearer <token>", schemas.ErrUnauthorized))
				return
			}

			userId, err := v.Verify(strings.TrimSpace(tokenStr))
			if err != nil {
				onFailure(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userId)))
		})
	}
}

func WithUser(ctx context.Context, userId schemas.UserId) context.Context {
	return context.WithValue(ctx, userCtxKey, userId)
}

// ForContext returns the authenticated user id, empty if none.
func ForContext(ctx context.Context) schemas.UserId {
	raw, _ := ctx.Value(userCtxKey).(schemas.UserId)
	return raw
}
