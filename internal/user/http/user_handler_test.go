package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/pubflow/internal/errors"
	"github.com/allisson/pubflow/internal/testutil"
	"github.com/allisson/pubflow/internal/user/domain"
	"github.com/allisson/pubflow/internal/user/http/dto"
	"github.com/allisson/pubflow/internal/user/usecase"
)

type mockUserUseCase struct {
	mock.Mock
}

func (m *mockUserUseCase) RegisterUser(ctx context.Context, input usecase.RegisterUserInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserUseCase) Email(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func setupRouter(t *testing.T) (*gin.Engine, *mockUserUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	useCase := &mockUserUseCase{}
	router := gin.New()
	NewUserHandler(useCase, testutil.DiscardLogger()).RegisterRoutes(router.Group("/v1"))
	return router, useCase
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestUserHandler_RegisterHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, useCase := setupRouter(t)
		user := &domain.User{
			ID:        uuid.Must(uuid.NewV7()),
			Name:      "Ada",
			Email:     "ada@example.com",
			Password:  "hash",
			CreatedAt: time.Now().UTC(),
		}

		useCase.On("RegisterUser", mock.Anything, usecase.RegisterUserInput{
			Name:     "Ada",
			Email:    "ada@example.com",
			Password: "SecurePass123!",
		}).Return(user, nil).Once()

		w := doRequest(router, http.MethodPost, "/v1/users",
			`{"name":"Ada","email":"ada@example.com","password":"SecurePass123!"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "hash")

		var response dto.UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, user.ID.String(), response.ID)
		useCase.AssertExpectations(t)
	})

	t.Run("Error_MissingEmail", func(t *testing.T) {
		router, useCase := setupRouter(t)

		w := doRequest(router, http.MethodPost, "/v1/users", `{"name":"Ada","password":"SecurePass123!"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		useCase.AssertNotCalled(t, "RegisterUser")
	})

	t.Run("Error_MalformedBody", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doRequest(router, http.MethodPost, "/v1/users", `{`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_Conflict", func(t *testing.T) {
		router, useCase := setupRouter(t)

		useCase.On("RegisterUser", mock.Anything, mock.Anything).Return(nil, domain.ErrUserAlreadyExists).Once()

		w := doRequest(router, http.MethodPost, "/v1/users",
			`{"name":"Ada","email":"ada@example.com","password":"SecurePass123!"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Error_WeakPassword", func(t *testing.T) {
		router, useCase := setupRouter(t)

		useCase.On("RegisterUser", mock.Anything, mock.Anything).
			Return(nil, apperrors.Wrap(apperrors.ErrInvalidInput, "password: must contain uppercase letter")).Once()

		w := doRequest(router, http.MethodPost, "/v1/users",
			`{"name":"Ada","email":"ada@example.com","password":"weakpassword"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "uppercase")
	})
}

func TestUserHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, useCase := setupRouter(t)
		user := &domain.User{ID: uuid.Must(uuid.NewV7()), Name: "Ada", Email: "ada@example.com"}

		useCase.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()

		w := doRequest(router, http.MethodGet, "/v1/users/"+user.ID.String(), "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ada@example.com")
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		router, useCase := setupRouter(t)
		id := uuid.New()

		useCase.On("GetUserByID", mock.Anything, id).Return(nil, domain.ErrUserNotFound).Once()

		w := doRequest(router, http.MethodGet, "/v1/users/"+id.String(), "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_InvalidID", func(t *testing.T) {
		router, _ := setupRouter(t)

		w := doRequest(router, http.MethodGet, "/v1/users/abc", "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
