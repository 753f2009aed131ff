package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"phakamani-backend/internal/models"
)

type contextKey string

const SubjectKey contextKey = "subject"

const bearerPrefix = "bearer "

// AuthErrorKind is the machine-readable reason a request failed the token gate.
type AuthErrorKind string

const (
	Unauthenticated AuthErrorKind = "UNAUTHENTICATED"
	TokenExpired    AuthErrorKind = "TOKEN_EXPIRED"
	TokenInvalid    AuthErrorKind = "TOKEN_INVALID"
)

type AuthError struct {
	Kind    AuthErrorKind
	Message string
}

func (e *AuthError) Error() string { return e.Message }

var (
	errMissingHeader = &AuthError{Kind: Unauthenticated, Message: "Missing Authorization"}
	errBadScheme     = &AuthError{Kind: Unauthenticated, Message: "Invalid Authorization header format"}
	errExpired       = &AuthError{Kind: TokenExpired, Message: "Token expired"}
	errInvalid       = &AuthError{Kind: TokenInvalid, Message: "Invalid token"}
)

// JWTAuth issues and verifies HS256 session tokens carrying {sub, exp}.
type JWTAuth struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

func NewJWTAuth(secret string, ttl time.Duration) *JWTAuth {
	return &JWTAuth{Secret: []byte(secret), TTL: ttl, now: time.Now}
}

// Issue signs a token for subject that expires TTL from now.
func (j *JWTAuth) Issue(subject string) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": j.now().Add(j.TTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Verify checks an Authorization header value and returns the token subject.
func (j *JWTAuth) Verify(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errMissingHeader
	}
	if !strings.HasPrefix(strings.ToLower(authHeader), bearerPrefix) {
		return "", errBadScheme
	}
	return j.ParseToken(strings.TrimSpace(authHeader[len(bearerPrefix):]))
}

// ParseToken validates a bare token. Expiry is checked before the signature so
// an expired token always reports TokenExpired.
func (j *JWTAuth) ParseToken(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", errInvalid
	}

	unverified := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, unverified); err != nil {
		return "", errInvalid
	}
	if exp, err := unverified.GetExpirationTime(); err == nil && exp != nil && !j.now().Before(exp.Time) {
		return "", errExpired
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return j.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errExpired
		}
		return "", errInvalid
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errInvalid
	}
	return subject, nil
}

// Middleware rejects requests without a valid bearer token and attaches the
// subject to the request context.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := j.Verify(r.Header.Get("Authorization"))
		if err != nil {
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				authErr = errInvalid
			}
			writeError(w, http.StatusUnauthorized, string(authErr.Kind), authErr.Message, r)
			return
		}

		ctx := context.WithValue(r.Context(), SubjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSubject extracts the token subject from request context
func GetSubject(ctx context.Context) string {
	sub, _ := ctx.Value(SubjectKey).(string)
	return sub
}

// RequestID returns the id assigned by chi's RequestID middleware, falling
// back to a client supplied X-Request-ID.
func RequestID(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: RequestID(r),
		},
		Detail: message,
	})
}
