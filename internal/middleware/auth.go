package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
	"github.com/strayfire/scrimhub/internal/httputil"
	"github.com/strayfire/scrimhub/internal/store"
	users "github.com/strayfire/scrimhub/internal/user"
)

type ContextKey string

const UserIDKey ContextKey = "userID"
const SuperUserID = "00000000-0000-0000-0000-000000000001"

func InitAuth() {
	discordKey := os.Getenv("DISCORD_KEY")
	discordSecret := os.Getenv("DISCORD_SECRET")
	discordCallbackURL := os.Getenv("DISCORD_CALLBACK_URL")

	googleKey := os.Getenv("GOOGLE_KEY")
	googleSecret := os.Getenv("GOOGLE_SECRET")
	googleCallbackURL := os.Getenv("GOOGLE_CALLBACK_URL")

	goth.UseProviders(
		discord.New(discordKey, discordSecret, discordCallbackURL, discord.ScopeIdentify, discord.ScopeEmail),
		google.New(googleKey, googleSecret, googleCallbackURL, "email", "profile"),
	)
}

// RequireAuth resolves the caller's identity from either a bearer token (bot
// clients) or the session cookie (browser clients) and loads the user into
// the request context. Requests with neither get a 401.
func RequireAuth(sessionManager *scs.SessionManager, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := identify(r, sessionManager)
			if !ok {
				httputil.Unauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)

			user, err := userStore.GetUser(ctx, userID)
			if err != nil {
				httputil.Unauthenticated(w)
				return
			}
			ctx = context.WithValue(ctx, users.UserKey, user)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identify(r *http.Request, sessionManager *scs.SessionManager) (uuid.UUID, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return uuid.Nil, false
		}
		userID, err := ParseToken(parts[1])
		if err != nil {
			return uuid.Nil, false
		}
		return userID, true
	}

	userIDStr := sessionManager.GetString(r.Context(), "userID")
	if userIDStr == "" {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetAuthenticatedUser(ctx context.Context) *users.User {
	val := ctx.Value(users.UserKey)
	if val == nil {
		return nil
	}

	user, ok := val.(*users.User)
	if !ok {
		return nil
	}
	return user
}
