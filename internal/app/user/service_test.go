package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"groupchat/internal/app/user"
	"groupchat/internal/apperr"
	"groupchat/internal/db/dbtest"
	"groupchat/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) user.Service {
	t.Helper()
	return user.NewService(user.NewRepository(dbtest.Open(t)), zap.NewNop())
}

func validRequest() user.RegisterRequest {
	return user.RegisterRequest{
		Email:     "Ada@Example.com ",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "engine",
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "engine", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "ADA@example.com", "engine")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong")
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	_, err = svc.Authenticate(ctx, "nobody@example.com", "engine")
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRequest())
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "Email already registered", appErr.Message)
}

// staleExistsRepo reports every email as free, as a concurrent registration
// that checked before the other one committed would see it.
type staleExistsRepo struct {
	user.Repository
}

func (staleExistsRepo) EmailExists(context.Context, string) (bool, error) {
	return false, nil
}

func TestRegisterDuplicateEmailAtInsert(t *testing.T) {
	svc := user.NewService(staleExistsRepo{user.NewRepository(dbtest.Open(t))}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRequest())
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "Email already registered", appErr.Message)
}

func TestGetUserByIDMissing(t *testing.T) {
	_, err := newService(t).GetUserByID(context.Background(), 77)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRegisterHandlerValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler(zap.NewNop()))
	api := r.Group("/api")
	user.RegisterRoutes(api, api, user.NewHandler(newService(t)))

	post := func(body interface{}) *httptest.ResponseRecorder {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	req := validRequest()
	req.Email = "ada@example.com"

	w := post(req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "engine")

	bad := validRequest()
	bad.Email = "other@example.com"
	bad.FirstName = "A1"
	w = post(bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid registration data")

	w = post(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email already registered")
}
