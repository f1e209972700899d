package repository

import (
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/repository/postgres"
)

const (
	upsertUserQuery = `
						INSERT INTO users (id, username, first_seen_at)
						VALUES ($1, $2, $3)
						ON CONFLICT (id) DO NOTHING
`
	selectUserQuery = `
						SELECT id, username, first_seen_at FROM users
						WHERE id = $1
`
)

// UserRepository implements UserRepository interface
type UserRepository struct {
	db *postgres.DB
}

// NewUserRepository creates new user repository instance
func NewUserRepository(db *postgres.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertUser inserts user if it is seen first time
func (ur *UserRepository) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := ur.db.Exec(ctx, upsertUserQuery, user.ID, user.Username, user.FirstSeenAt)
	return err
}

// GetUser returns user by id
func (ur *UserRepository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user := models.User{}
	err := ur.db.QueryRow(ctx, selectUserQuery, id).Scan(&user.ID, &user.Username, &user.FirstSeenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &user, nil
}
