package trongrid

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const (
	testContract = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
	testAddress  = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
)

func TestClient_BalanceOf(t *testing.T) {
	var got triggerRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/triggerconstantcontract", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("TRON-PRO-API-KEY"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		// 75 USDT with 6 decimals
		w.Write([]byte(`{"result":{"result":true},"constant_result":["00000000000000000000000000000000000000000000000000000000047868c0"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 0)
	bal, err := c.BalanceOf(context.Background(), testContract, testAddress)
	require.NoError(t, err)

	assert.Equal(t, "75000000", bal.String())
	assert.Equal(t, balanceOfSelector, got.FunctionSelector)
	assert.Len(t, got.Parameter, 64)
	assert.True(t, got.Visible)
}

func TestClient_BalanceOf_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		header  map[string]string
		body    string
		checkFn func(t *testing.T, err error)
	}{
		{
			name:   "too_many_requests_with_retry_after",
			status: http.StatusTooManyRequests,
			header: map[string]string{"Retry-After": "7"},
			checkFn: func(t *testing.T, err error) {
				var tooMany *models.TooManyRequestsError
				require.True(t, errors.As(err, &tooMany))
				assert.Equal(t, 7*time.Second, tooMany.RetryAfter)
			},
		},
		{
			name:   "too_many_requests_default_delay",
			status: http.StatusTooManyRequests,
			checkFn: func(t *testing.T, err error) {
				var tooMany *models.TooManyRequestsError
				require.True(t, errors.As(err, &tooMany))
				assert.Equal(t, delaySeconds*time.Second, tooMany.RetryAfter)
			},
		},
		{
			name:   "internal_error",
			status: http.StatusBadGateway,
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, models.ErrInternalError)
			},
		},
		{
			name:   "contract_failed",
			status: http.StatusOK,
			body:   `{"result":{"result":false,"message":"REVERT"}}`,
			checkFn: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "REVERT")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", 0)
			_, err := c.BalanceOf(context.Background(), testContract, testAddress)
			require.Error(t, err)
			tt.checkFn(t, err)
		})
	}
}

func TestClient_BalanceOf_InvalidAddress(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", 0)
	_, err := c.BalanceOf(context.Background(), testContract, "nope")
	assert.Error(t, err)
}

func TestClient_LatestIncomingTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/"+testAddress+"/transactions/trc20", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("only_to"))
		assert.Equal(t, testContract, r.URL.Query().Get("contract_address"))
		w.Write([]byte(`{"data":[{"transaction_id":"abc123","to":"` + testAddress + `","value":"75000000"}],"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0)
	txID, err := c.LatestIncomingTransfer(context.Background(), testContract, testAddress)
	require.NoError(t, err)
	assert.Equal(t, "abc123", txID)
}

func TestClient_LatestIncomingTransfer_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0)
	_, err := c.LatestIncomingTransfer(context.Background(), testContract, testAddress)
	assert.ErrorIs(t, err, models.ErrDataNotFound)
}
