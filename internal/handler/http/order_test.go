package handler

import (
	"context"
	"encoding/json"
	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/rookgm/cardpay/internal/handler/http/mocks"
	"github.com/rookgm/cardpay/internal/middleware"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var adminToken = &models.TokenPayload{AdminID: "a1", Username: "root", Role: models.AdminRoleSuper}

func TestOrderHandler_ListPaidOrders(t *testing.T) {
	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name           string
		token          *models.TokenPayload
		setup          func(t *testing.T) *mocks.MockOrderService
		wantStatusCode int
		wantBody       []OrderResp
	}{
		{
			name:  "valid_request_return_200",
			token: adminToken,
			setup: func(t *testing.T) *mocks.MockOrderService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().PaidOrders(gomock.Any()).Return([]service.OrderView{
					{
						Order: models.Order{
							ID:            "ord-1",
							Type:          models.CardTypeNormal,
							Inputs:        models.Inputs{FirstName: "John", LastName: "Doe"},
							Amount:        decimal.NewFromInt(75),
							WalletAddress: "TXYZ",
							Status:        models.PaymentStatusPaid,
							CardStatus:    models.CardStatusInProcess,
							CreatedAt:     createdAt,
						},
						Username: "johnny",
					},
				}, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantBody: []OrderResp{{
				ID:            "ord-1",
				Username:      "johnny",
				FirstName:     "John",
				LastName:      "Doe",
				CardType:      "normal",
				Status:        "paid",
				CardStatus:    "inprocess",
				Amount:        "75",
				WalletAddress: "TXYZ",
				CreatedAt:     createdAt.Format(time.RFC3339),
			}},
		},
		{
			name: "unauthorized_request_return_401",
			setup: func(t *testing.T) *mocks.MockOrderService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().PaidOrders(gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:  "internal_error_return_500",
			token: adminToken,
			setup: func(t *testing.T) *mocks.MockOrderService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().PaidOrders(gomock.Any()).Return(nil, models.ErrInternalError).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "/api/orders", nil)
			if err != nil {
				t.Fatal("cannot create request", zap.Error(err))
			}

			w := httptest.NewRecorder()
			st := tt.setup(t)
			ctx := req.Context()
			if tt.token != nil {
				ctx = middleware.WithPayload(ctx, tt.token)
			}

			handler := NewOrderHandler(st, nil)
			h := handler.ListPaidOrders()
			h(w, req.WithContext(ctx))

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
			resBody, err := io.ReadAll(res.Body)
			require.NoError(t, err)

			if tt.wantBody != nil {
				var got listOrdersResponse
				err = json.Unmarshal(resBody, &got)
				require.NoError(t, err)
				assert.True(t, got.Success)

				if diff := cmp.Diff(tt.wantBody, got.Orders); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestOrderHandler_UpdateCardStatus(t *testing.T) {
	changedAt := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	details := &models.CardDetails{CardNumber: "4539578763621486", ExpiryDate: "12/29", CVV: "123", CardName: "JOHN DOE"}
	deliveredBody := `{"cardStatus":"delivered","cardDetails":{"cardNumber":"4539578763621486","expiryDate":"12/29","cvv":"123","cardName":"JOHN DOE"}}`

	tests := []struct {
		name           string
		token          *models.TokenPayload
		body           string
		svcErr         error
		wantCalls      int
		wantStatusCode int
	}{
		{
			name:           "delivered_return_200",
			token:          adminToken,
			body:           deliveredBody,
			wantCalls:      1,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "malformed_body_return_400",
			token:          adminToken,
			body:           "{",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unknown_status_return_400",
			token:          adminToken,
			body:           `{"cardStatus":"shipped"}`,
			svcErr:         models.ErrInvalidCardStatus,
			wantCalls:      1,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_details_return_400",
			token:          adminToken,
			body:           `{"cardStatus":"delivered"}`,
			svcErr:         models.ErrCardDetailsMissing,
			wantCalls:      1,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unauthorized_request_return_401",
			body:           deliveredBody,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "not_found_return_404",
			token:          adminToken,
			body:           deliveredBody,
			svcErr:         models.ErrDataNotFound,
			wantCalls:      1,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "not_paid_return_409",
			token:          adminToken,
			body:           `{"cardStatus":"inprocess"}`,
			svcErr:         models.ErrOrderNotPaid,
			wantCalls:      1,
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "backwards_return_409",
			token:          adminToken,
			body:           `{"cardStatus":"pending"}`,
			svcErr:         models.ErrInvalidTransition,
			wantCalls:      1,
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "luhn_invalid_return_422",
			token:          adminToken,
			body:           deliveredBody,
			svcErr:         models.ErrInvalidCardNumber,
			wantCalls:      1,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "internal_error_return_500",
			token:          adminToken,
			body:           deliveredBody,
			svcErr:         models.ErrInternalError,
			wantCalls:      1,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			fulfillment := mocks.NewMockFulfillmentService(ctrl)
			call := fulfillment.EXPECT().
				UpdateCardStatus(gomock.Any(), "ord-1", gomock.Any(), gomock.Any(), "root").
				Times(tt.wantCalls)
			if tt.svcErr != nil {
				call.Return(nil, tt.svcErr)
			} else {
				call.DoAndReturn(func(_ context.Context, id string, to models.CardStatus, cd *models.CardDetails, by string) (*models.Order, error) {
					assert.Equal(t, models.CardStatusDelivered, to)
					assert.Equal(t, details, cd)
					return &models.Order{
						ID:              id,
						Status:          models.PaymentStatusPaid,
						CardStatus:      to,
						CardDetails:     cd,
						StatusChangedBy: by,
						StatusChangedAt: &changedAt,
					}, nil
				})
			}

			router := chi.NewRouter()
			router.Patch("/api/orders/{orderID}/status", NewOrderHandler(nil, fulfillment).UpdateCardStatus())

			req := httptest.NewRequest(http.MethodPatch, "/api/orders/ord-1/status", strings.NewReader(tt.body))
			if tt.token != nil {
				req = req.WithContext(middleware.WithPayload(req.Context(), tt.token))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.wantStatusCode == http.StatusOK {
				var got orderResponse
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
				assert.Equal(t, "delivered", got.Order.CardStatus)
				assert.Equal(t, "root", got.Order.StatusChangedBy)
				assert.Equal(t, changedAt.Format(time.RFC3339), got.Order.StatusChangedAt)
			}
		})
	}
}
