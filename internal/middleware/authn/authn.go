// Package authn provides the request gates: session-token verification,
// identity resolution, the admin role gate and the link ownership gate.
package authn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	resp "linkshare/internal/lib/api/response"
	sl "linkshare/internal/lib/logger"
	"linkshare/internal/lib/tokens"
	"linkshare/internal/models"
	"linkshare/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
)

type ctxKey string

const (
	userIDKey  ctxKey = "authn.userID"
	profileKey ctxKey = "authn.profile"
)

type UserProvider interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
}

type LinkProvider interface {
	LinkByID(ctx context.Context, id int64) (models.Link, error)
}

// UserID returns the authenticated caller's id set by RequireSignin.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// Profile returns the resolved user set by RequireUser or RequireAdmin.
func Profile(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(profileKey).(models.User)
	return u, ok
}

// RequireSignin admits only requests bearing a valid, unexpired session
// token and stores the embedded user id in the request context.
func RequireSignin(log *slog.Logger, sessionSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Authorization required"))

				return
			}

			claims, err := tokens.ParseSessionToken(token, sessionSecret)
			if err != nil {
				log.Warn("invalid session token", sl.Err(err))

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid or expired token"))

				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser resolves the caller's user row and attaches it to the request
// context for downstream handlers.
func RequireUser(log *slog.Logger, users UserProvider) func(http.Handler) http.Handler {
	return requireRole(log, users, "")
}

// RequireAdmin is RequireUser plus an admin role check.
func RequireAdmin(log *slog.Logger, users UserProvider) func(http.Handler) http.Handler {
	return requireRole(log, users, models.RoleAdmin)
}

func requireRole(log *slog.Logger, users UserProvider, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := UserID(r.Context())
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Authorization required"))

				return
			}

			user, err := users.UserByID(r.Context(), id)
			if err != nil {
				if !errors.Is(err, storage.ErrUserNotFound) {
					log.Error("failed to load user", sl.Err(err))
				}

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}

			if role != "" && user.Role != role {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("Admin resource. Access denied."))

				return
			}

			ctx := context.WithValue(r.Context(), profileKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLinkOwner admits only the user who posted the link named by the id
// route parameter.
func RequireLinkOwner(log *slog.Logger, links LinkProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID, ok := UserID(r.Context())
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Authorization required"))

				return
			}

			linkID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Could not find link"))

				return
			}

			link, err := links.LinkByID(r.Context(), linkID)
			if err != nil {
				if !errors.Is(err, storage.ErrLinkNotFound) {
					log.Error("failed to load link", sl.Err(err))
				}

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Could not find link"))

				return
			}

			if link.PostedBy != callerID {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("You are not authorized"))

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
