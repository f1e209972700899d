package handler

import (
	"encoding/json"
	"errors"
	"github.com/golang/mock/gomock"
	"github.com/rookgm/cardpay/internal/handler/http/mocks"
	"github.com/rookgm/cardpay/internal/middleware"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubTokens struct{}

func (stubTokens) CreateToken(_ *models.Admin) (string, error) { return "token", nil }

func (stubTokens) VerifyToken(token string) (*models.TokenPayload, error) {
	if token != "token" {
		return nil, errors.New("invalid")
	}
	return adminToken, nil
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setup          func(t *testing.T) *mocks.MockAuthService
		wantStatusCode int
		wantCookie     bool
	}{
		{
			name: "valid_credentials_return_200",
			body: `{"username":"root","password":"toor"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().Login(gomock.Any(), "root", "toor").
					Return("token", &models.Admin{Username: "root", Role: models.AdminRoleSuper}, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantCookie:     true,
		},
		{
			name: "missing_password_return_400",
			body: `{"username":"root"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "invalid_credentials_return_401",
			body: `{"username":"root","password":"wrong"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
					Return("", nil, models.ErrInvalidCredentials).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "internal_error_return_500",
			body: `{"username":"root","password":"toor"}`,
			setup: func(t *testing.T) *mocks.MockAuthService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockAuthService(ctrl)
				svcMock.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
					Return("", nil, models.ErrInternalError).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler := NewAuthHandler(tt.setup(t), stubTokens{})
			handler.Login()(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			var found bool
			for _, c := range res.Cookies() {
				if c.Name == middleware.AuthCookie && c.Value == "token" {
					found = true
					assert.True(t, c.HttpOnly)
				}
			}
			assert.Equal(t, tt.wantCookie, found)
		})
	}
}

func TestAuthHandler_Check(t *testing.T) {
	handler := NewAuthHandler(nil, stubTokens{})

	tests := []struct {
		name   string
		cookie string
		want   bool
	}{
		{name: "no_cookie", want: false},
		{name: "invalid_cookie", cookie: "forged", want: false},
		{name: "valid_cookie", cookie: "token", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			handler.Check()(w, req)

			require.Equal(t, http.StatusOK, w.Code)

			var got sessionResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
			require.NotNil(t, got.Authenticated)
			assert.Equal(t, tt.want, *got.Authenticated)
			if tt.want {
				assert.Equal(t, "root", got.Username)
			}
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	w := httptest.NewRecorder()
	NewAuthHandler(nil, stubTokens{}).Logout()(w, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	cookies := res.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.AuthCookie, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}
