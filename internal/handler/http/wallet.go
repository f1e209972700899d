package handler

import (
	"context"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/service"
	"go.uber.org/zap"
	"net/http"
	"strconv"
	"time"
)

//go:generate mockgen -source=wallet.go -destination=mocks/wallet.go -package=mocks

type WalletService interface {
	// ListWallets returns page of wallets with balances
	ListWallets(ctx context.Context, page, limit int) (*service.WalletPage, error)
}

// WalletHandler represents HTTP handler for wallet-related requests
type WalletHandler struct {
	svc WalletService
}

// NewWalletHandler creates new WalletHandler instance
func NewWalletHandler(svc WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

// WalletResp is deposit wallet as seen by super admins
type WalletResp struct {
	ID         string `json:"id"`
	UserID     int64  `json:"tgId"`
	Username   string `json:"username"`
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
	Balance    string `json:"balance"`
	CreatedAt  string `json:"createdAt"`
}

// PaginationResp describes returned page
type PaginationResp struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalWallets int64 `json:"totalWallets"`
	Limit        int   `json:"limit"`
}

type listWalletsResponse struct {
	Success    bool           `json:"success"`
	Wallets    []WalletResp   `json:"wallets"`
	Pagination PaginationResp `json:"pagination"`
}

// ListWallets returns page of wallets
// 200 - ok;
// 401 - admin is not authenticated;
// 403 - admin is not super admin;
// 500 - internal server error.
func (wh *WalletHandler) ListWallets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// malformed values fall back to defaults
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		result, err := wh.svc.ListWallets(r.Context(), page, limit)
		if err != nil {
			logger.Log.Error("list wallets", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := listWalletsResponse{
			Success: true,
			Wallets: make([]WalletResp, 0, len(result.Wallets)),
			Pagination: PaginationResp{
				CurrentPage:  result.Page,
				TotalPages:   result.TotalPages,
				TotalWallets: result.Total,
				Limit:        result.Limit,
			},
		}
		for _, v := range result.Wallets {
			resp.Wallets = append(resp.Wallets, WalletResp{
				ID:         v.ID,
				UserID:     v.UserID,
				Username:   v.Username,
				Address:    v.Address,
				PrivateKey: v.PrivateKey,
				Balance:    v.Balance.String(),
				CreatedAt:  v.CreatedAt.Format(time.RFC3339),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
