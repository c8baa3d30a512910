package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/marketplace-items/internal/auth"
	"github.com/iyhunko/marketplace-items/internal/config"
	"github.com/iyhunko/marketplace-items/internal/csrf"
	"github.com/iyhunko/marketplace-items/internal/model"
	"github.com/iyhunko/marketplace-items/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-auth-secret"

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) Create(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUsers) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func newAuthRouter(users repository.UserRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	conf := &config.Config{Security: config.Security{AuthSecret: testSecret}}

	router := gin.New()
	router.Use(New(conf, users).Authenticate())
	router.GET("/whoami", func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusOK, gin.H{"user": ""})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Username})
	})
	router.POST("/private", RequireUser(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c).Username})
	})
	return router
}

func tokenFor(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := auth.NewToken([]byte(testSecret), user, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	user := &model.User{ID: uuid.New(), Username: "potter"}

	t.Run("bearer token resolves the user", func(t *testing.T) {
		users := new(mockUsers)
		users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, user))
		w := httptest.NewRecorder()
		newAuthRouter(users).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":"potter"}`, w.Body.String())
		users.AssertExpectations(t)
	})

	t.Run("session cookie resolves the user", func(t *testing.T) {
		users := new(mockUsers)
		users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		req := httptest.NewRequest(http.MethodPost, "/private", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: tokenFor(t, user)})
		w := httptest.NewRecorder()
		newAuthRouter(users).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":"potter"}`, w.Body.String())
	})

	t.Run("token signed with another key is anonymous", func(t *testing.T) {
		users := new(mockUsers)
		forged, err := auth.NewToken([]byte("other"), user, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/private", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		w := httptest.NewRecorder()
		newAuthRouter(users).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())
		users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("deleted user is anonymous", func(t *testing.T) {
		users := new(mockUsers)
		users.On("FindByID", mock.Anything, user.ID).Return(nil, repository.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, user))
		w := httptest.NewRecorder()
		newAuthRouter(users).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":""}`, w.Body.String())
	})

	t.Run("store failure aborts with 500", func(t *testing.T) {
		users := new(mockUsers)
		users.On("FindByID", mock.Anything, user.ID).Return(nil, errors.New("connection refused"))

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, user))
		w := httptest.NewRecorder()
		newAuthRouter(users).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("anonymous request to a protected route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/private", nil)
		w := httptest.NewRecorder()
		newAuthRouter(new(mockUsers)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCSRFCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	guard := csrf.New([]byte("csrf-secret-key-32-bytes-long!!!"), time.Hour, false)

	newRouter := func(user *model.User) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if user != nil {
				SetCurrentUser(c, user)
			}
			c.Next()
		})
		router.Use(CSRFCookie(guard))
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	findCookie := func(w *httptest.ResponseRecorder) *http.Cookie {
		for _, cookie := range w.Result().Cookies() {
			if cookie.Name == csrf.CookieName {
				return cookie
			}
		}
		return nil
	}

	t.Run("issues a token when missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		cookie := findCookie(w)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.NoError(t, guard.Verify(cookie.Value, ""))
	})

	t.Run("keeps a valid token", func(t *testing.T) {
		token, err := guard.Issue("")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: token})
		w := httptest.NewRecorder()
		newRouter(nil).ServeHTTP(w, req)

		assert.Nil(t, findCookie(w))
	})

	t.Run("replaces a tampered token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: "tampered"})
		w := httptest.NewRecorder()
		newRouter(nil).ServeHTTP(w, req)

		cookie := findCookie(w)
		require.NotNil(t, cookie)
		assert.NotEqual(t, "tampered", cookie.Value)
	})

	t.Run("token of another session is replaced with one bound to the user", func(t *testing.T) {
		user := &model.User{ID: uuid.New(), Username: "potter"}
		anonymous, err := guard.Issue("")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: anonymous})
		w := httptest.NewRecorder()
		newRouter(user).ServeHTTP(w, req)

		cookie := findCookie(w)
		require.NotNil(t, cookie)
		assert.NoError(t, guard.Verify(cookie.Value, user.ID.String()))
		assert.Error(t, guard.Verify(cookie.Value, ""))
	})
}
