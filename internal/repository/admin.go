package repository

import (
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/repository/postgres"
	"time"
)

const (
	insertAdminQuery = `
						INSERT INTO admins (id, username, password, role, created_at)
						VALUES ($1, $2, $3, $4, $5)
`
	selectAdminByUsernameQuery = `
						SELECT id, username, password, role, created_at, last_login FROM admins
						WHERE username = $1
`
	updateLastLoginQuery = `
						UPDATE admins
						SET last_login = $2
						WHERE id = $1
`
)

// AdminRepository implements AdminRepository interface
type AdminRepository struct {
	db *postgres.DB
}

// NewAdminRepository creates new admin repository instance
func NewAdminRepository(db *postgres.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// CreateAdmin inserts new admin
func (ar *AdminRepository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	_, err := ar.db.Exec(ctx, insertAdminQuery, admin.ID, admin.Username, admin.Password, admin.Role, admin.CreatedAt)
	if err != nil {
		if errCode := ar.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return models.ErrConflictData
		}
		return err
	}

	return nil
}

// GetAdminByUsername returns admin by username
func (ar *AdminRepository) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	admin := models.Admin{}
	err := ar.db.QueryRow(ctx, selectAdminByUsernameQuery, username).
		Scan(&admin.ID, &admin.Username, &admin.Password, &admin.Role, &admin.CreatedAt, &admin.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &admin, nil
}

// UpdateLastLogin sets last login time of admin
func (ar *AdminRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	cmd, err := ar.db.Exec(ctx, updateLastLoginQuery, id, at)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}

	return nil
}
