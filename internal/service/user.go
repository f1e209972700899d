package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/models"
	"go.uber.org/zap"
	"time"
)

// UserService keeps track of bot users
type UserService struct {
	repo UserRepository
	now  func() time.Time
}

// NewUserService creates new UserService instance
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo, now: time.Now}
}

// Register stores user on first contact, later calls keep the first record
func (us *UserService) Register(ctx context.Context, id int64, username string) error {
	return us.repo.UpsertUser(ctx, &models.User{
		ID:          id,
		Username:    username,
		FirstSeenAt: us.now(),
	})
}

// lookupUsername returns username of user or name built from id
func lookupUsername(ctx context.Context, users UserRepository, userID int64) string {
	user, err := users.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrDataNotFound) {
			logger.Log.Warn("get user", zap.Int64("user", userID), zap.Error(err))
		}
		return fmt.Sprintf("User%d", userID)
	}
	if user.Username == "" {
		return fmt.Sprintf("User%d", userID)
	}
	return user.Username
}
