package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/iyhunko/marketplace-items/internal/auth"
	"github.com/iyhunko/marketplace-items/internal/config"
	"github.com/iyhunko/marketplace-items/internal/csrf"
	"github.com/iyhunko/marketplace-items/internal/model"
	"github.com/iyhunko/marketplace-items/internal/repository"
)

const currentUserKey = "currentUser"

type Middleware struct {
	config *config.Config
	users  repository.UserRepository
}

// New initializes the middleware with the given configuration.
// We don't need ctx here because it always has Gin context.
func New(config *config.Config, users repository.UserRepository) *Middleware {
	return &Middleware{
		config: config,
		users:  users,
	}
}

// Recovery is a middleware that recovers from panics and returns a 500 Internal Server Error
// instead of crashing the server.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered",
					slog.Any("error", err),
					slog.String("path", c.Request.URL.Path),
					slog.String("method", c.Request.Method),
				)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal Server Error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// Logger writes one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			slog.Error("HTTP request", attrs...)
			return
		}
		slog.Info("HTTP request", attrs...)
	}
}

// CORS allows the given origins, or any origin when the list is empty.
// Preflight requests are answered with 204.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       24 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		// cookies carry the session and CSRF tokens
		conf.AllowOrigins = allowedOrigins
		conf.AllowCredentials = true
	}
	return cors.New(conf)
}

// Authenticate resolves the session token to a user. Requests without a valid token,
// or whose user no longer exists, continue anonymously.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	secret := []byte(m.config.Security.AuthSecret)
	return func(c *gin.Context) {
		token := auth.TokenFromRequest(c.Request)
		if token == "" {
			c.Next()
			return
		}

		claims, err := auth.ParseToken(secret, token)
		if err != nil {
			slog.Debug("Ignoring session token", slog.Any("err", err))
			c.Next()
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.Next()
			return
		}

		user, err := m.users.FindByID(c.Request.Context(), userID)
		switch {
		case err == nil:
			c.Set(currentUserKey, user)
		case errors.Is(err, repository.ErrNotFound):
		default:
			slog.Error("Failed to load session user", slog.Any("err", err), slog.String("user_id", userID.String()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			return
		}
		c.Next()
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

// SetCurrentUser stores user on the context.
func SetCurrentUser(c *gin.Context, user *model.User) {
	c.Set(currentUserKey, user)
}

// SessionSubject identifies the session a CSRF token is bound to. Anonymous requests share the empty subject.
func SessionSubject(c *gin.Context) string {
	if user := CurrentUser(c); user != nil {
		return user.ID.String()
	}
	return ""
}

// CSRFCookie issues a fresh CSRF cookie when the request has none or carries one that does not
// verify for the current session. It must run after Authenticate.
func CSRFCookie(guard *csrf.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := SessionSubject(c)
		current, _ := c.Cookie(csrf.CookieName)
		if guard.Verify(current, subject) != nil {
			token, err := guard.Issue(subject)
			if err != nil {
				slog.Error("Failed to issue CSRF token", slog.Any("err", err))
			} else {
				http.SetCookie(c.Writer, guard.Cookie(token))
			}
		}
		c.Next()
	}
}
