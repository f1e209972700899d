package trongrid

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/tron"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// default time of retry after
const delaySeconds = 2

const balanceOfSelector = "balanceOf(address)"

// Client represents HTTP client of TronGrid full node API
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates new Client instance.
// rps limits outgoing requests per second, zero disables limiting.
func NewClient(baseURL, apiKey string, rps float64) *Client {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &Client{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		limiter: limiter,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "trongrid",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// rate limiting is expected and handled by caller
			IsSuccessful: func(err error) bool {
				var tooMany *models.TooManyRequestsError
				return err == nil || errors.As(err, &tooMany)
			},
		}),
	}
}

type triggerRequest struct {
	OwnerAddress     string `json:"owner_address"`
	ContractAddress  string `json:"contract_address"`
	FunctionSelector string `json:"function_selector"`
	Parameter        string `json:"parameter"`
	Visible          bool   `json:"visible"`
}

type triggerResponse struct {
	Result struct {
		Result  bool   `json:"result"`
		Message string `json:"message"`
	} `json:"result"`
	ConstantResult []string `json:"constant_result"`
}

// BalanceOf returns raw token balance of address
// 200 - ok
// 429 - too many requests
// 5xx - internal server error
func (c *Client) BalanceOf(ctx context.Context, contract, address string) (*big.Int, error) {
	raw, err := tron.DecodeAddress(address)
	if err != nil {
		return nil, err
	}
	// abi encoded address is 20 bytes left padded to 32
	param := strings.Repeat("0", 24) + hex.EncodeToString(raw[1:])

	body, err := json.Marshal(triggerRequest{
		OwnerAddress:     address,
		ContractAddress:  contract,
		FunctionSelector: balanceOfSelector,
		Parameter:        param,
		Visible:          true,
	})
	if err != nil {
		return nil, err
	}

	var resp triggerResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/wallet/triggerconstantcontract", body, &resp); err != nil {
		return nil, err
	}

	if !resp.Result.Result {
		return nil, fmt.Errorf("trigger contract failed: %s", resp.Result.Message)
	}
	if len(resp.ConstantResult) == 0 {
		return nil, errors.New("empty constant result")
	}

	val, ok := new(big.Int).SetString(resp.ConstantResult[0], 16)
	if !ok {
		return nil, fmt.Errorf("malformed balance %q", resp.ConstantResult[0])
	}

	return val, nil
}

type transfersResponse struct {
	Data []struct {
		TransactionID string `json:"transaction_id"`
		To            string `json:"to"`
		Value         string `json:"value"`
	} `json:"data"`
	Success bool `json:"success"`
}

// LatestIncomingTransfer returns id of latest transfer of token to address.
// Returns models.ErrDataNotFound if there is no such transfer.
func (c *Client) LatestIncomingTransfer(ctx context.Context, contract, address string) (string, error) {
	// GET /v1/accounts/{address}/transactions/trc20
	u, err := url.JoinPath(c.baseURL, "v1", "accounts", address, "transactions", "trc20")
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("only_to", "true")
	q.Set("limit", "1")
	q.Set("contract_address", contract)

	var resp transfersResponse
	if err := c.do(ctx, http.MethodGet, u+"?"+q.Encode(), nil, &resp); err != nil {
		return "", err
	}

	if len(resp.Data) == 0 {
		return "", models.ErrDataNotFound
	}

	return resp.Data[0].TransactionID, nil
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, method, u, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", models.ErrCircuitOpen, err)
	}

	return err
}

func (c *Client) send(ctx context.Context, method, u string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusTooManyRequests:
		t, err := strconv.Atoi(resp.Header.Get("Retry-After"))
		if err != nil {
			t = delaySeconds
		}
		return models.NewTooManyRequestsError(time.Duration(t) * time.Second)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", models.ErrInternalError, resp.StatusCode)
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
