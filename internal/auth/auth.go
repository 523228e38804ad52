// Package auth issues session tokens, delivers them as cookies and guards
// protected routes. A request is authenticated when it carries a token the
// Issuer accepts, either in the session cookie or in an
// "Authorization: Bearer" header. No server-side session state exists.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/todotracker/internal/logger"
	"github.com/patric-chuzhbe/todotracker/internal/models"
)

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated user's ID.
const UserIDKey ContextKey = "userID"

const bearerPrefix = "Bearer "

type tokenVerifier interface {
	Issue(userID string) (string, error)
	Verify(tokenString string) (string, error)
	TTL() time.Duration
}

// Auth handles session cookies and request authentication.
type Auth struct {
	issuer tokenVerifier

	// authCookieName is the name of the cookie used to store the JWT.
	authCookieName string

	// secureCookie marks the cookie Secure; set in production.
	secureCookie bool
}

// New creates an Auth that delivers tokens from issuer in the cookie authCookieName.
func New(issuer tokenVerifier, authCookieName string, secureCookie bool) *Auth {
	return &Auth{
		issuer:         issuer,
		authCookieName: authCookieName,
		secureCookie:   secureCookie,
	}
}

// IssueSession mints a token for the user and sets it as the session cookie.
func (a *Auth) IssueSession(response http.ResponseWriter, userID string) error {
	token, err := a.issuer.Issue(userID)
	if err != nil {
		return err
	}

	http.SetCookie(response, a.cookie(token, int(a.issuer.TTL().Seconds())))

	return nil
}

// ClearSession tells the client to discard the session cookie.
func (a *Auth) ClearSession(response http.ResponseWriter) {
	http.SetCookie(response, a.cookie("", -1))
}

func (a *Auth) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     a.authCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// AuthenticateUser is the session gate. It rejects the request with 401 unless it
// carries a valid token, and otherwise stores the user ID in the request context.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID, err := a.issuer.Verify(a.getTokenStringFromAuthorizationHeaderOrCookie(request))
		if err != nil {
			logger.Log.Debugln("rejecting unauthenticated request", "uri", request.RequestURI, zap.Error(err))
			writeUnauthorized(response)

			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, userID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// UserIDFromContext returns the user ID stored by AuthenticateUser.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)

	return userID, ok && userID != ""
}

func (a *Auth) getTokenStringFromAuthorizationHeaderOrCookie(request *http.Request) string {
	cookie, err := request.Cookie(a.authCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := request.Header.Get("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}

	return ""
}

func writeUnauthorized(response http.ResponseWriter) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(response).Encode(models.ErrorsResponse{Errors: []string{"Unauthorized"}})
}
