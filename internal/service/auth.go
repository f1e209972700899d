package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"strings"
	"time"
)

// AdminRepository is interface for interacting with admins
type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin *models.Admin) error
	GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// AuthService authenticates admins
type AuthService struct {
	repo  AdminRepository
	token TokenService
	now   func() time.Time
}

// NewAuthService creates new AuthService instance
func NewAuthService(repo AdminRepository, token TokenService) *AuthService {
	return &AuthService{repo: repo, token: token, now: time.Now}
}

// Login checks credentials and returns session token
func (as *AuthService) Login(ctx context.Context, username, password string) (string, *models.Admin, error) {
	admin, err := as.repo.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			return "", nil, models.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return "", nil, models.ErrInvalidCredentials
	}

	now := as.now()
	if err := as.repo.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		logger.Log.Warn("update last login", zap.String("admin", admin.Username), zap.Error(err))
	} else {
		admin.LastLogin = &now
	}

	token, err := as.token.CreateToken(admin)
	if err != nil {
		return "", nil, err
	}

	return token, admin, nil
}

// SeedAdmins creates admins listed as "user:password:role,..." unless they exist.
// Role defaults to normal. Role is taken after the last colon, so password
// containing colon requires role to be given explicitly.
func (as *AuthService) SeedAdmins(ctx context.Context, list string) error {
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		username, rest, ok := strings.Cut(entry, ":")
		if !ok || username == "" {
			return fmt.Errorf("malformed admin entry %q", entry)
		}
		password, role := rest, ""
		if i := strings.LastIndex(rest, ":"); i >= 0 {
			password, role = rest[:i], rest[i+1:]
		}
		if password == "" {
			return fmt.Errorf("malformed admin entry %q", entry)
		}
		if role == "" {
			role = models.AdminRoleNormal
		}
		if role != models.AdminRoleNormal && role != models.AdminRoleSuper {
			return fmt.Errorf("unknown admin role %q", role)
		}

		if _, err := as.repo.GetAdminByUsername(ctx, username); err == nil {
			continue
		} else if !errors.Is(err, models.ErrDataNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		err = as.repo.CreateAdmin(ctx, &models.Admin{
			ID:        uuid.NewString(),
			Username:  username,
			Password:  string(hash),
			Role:      role,
			CreatedAt: as.now(),
		})
		if err != nil && !errors.Is(err, models.ErrConflictData) {
			return err
		}

		logger.Log.Info("admin seeded", zap.String("admin", username), zap.String("role", role))
	}

	return nil
}
