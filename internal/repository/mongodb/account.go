package mongodb

import (
	"context"
	"errors"
	"github.com/rookgm/cardpay/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

type walletDocument struct {
	ID         string    `bson:"_id"`
	UserID     int64     `bson:"user_id"`
	Address    string    `bson:"address"`
	PrivateKey string    `bson:"private_key"`
	CreatedAt  time.Time `bson:"created_at"`
}

type userDocument struct {
	ID          int64     `bson:"_id"`
	Username    string    `bson:"username"`
	FirstSeenAt time.Time `bson:"first_seen_at"`
}

type adminDocument struct {
	ID        string     `bson:"_id"`
	Username  string     `bson:"username"`
	Password  string     `bson:"password"`
	Role      string     `bson:"role"`
	CreatedAt time.Time  `bson:"created_at"`
	LastLogin *time.Time `bson:"last_login"`
}

// WalletRepository stores deposit wallets in mongo
type WalletRepository struct {
	coll *mongo.Collection
}

// NewWalletRepository creates new wallet repository instance
func NewWalletRepository(db *DB) *WalletRepository {
	return &WalletRepository{coll: db.wallets()}
}

// CreateWallet inserts new wallet. Address must not exist.
func (wr *WalletRepository) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	_, err := wr.coll.InsertOne(ctx, walletDocument{
		ID:         wallet.ID,
		UserID:     wallet.UserID,
		Address:    wallet.Address,
		PrivateKey: wallet.PrivateKey,
		CreatedAt:  wallet.CreatedAt.UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrConflictData
		}
		return err
	}
	return nil
}

// GetWallets returns page of wallets, newest first, and total count
func (wr *WalletRepository) GetWallets(ctx context.Context, offset, limit int) ([]models.Wallet, int64, error) {
	total, err := wr.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	cur, err := wr.coll.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	wallets := []models.Wallet{}
	for cur.Next(ctx) {
		var doc walletDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, err
		}
		wallets = append(wallets, models.Wallet{
			ID:         doc.ID,
			UserID:     doc.UserID,
			Address:    doc.Address,
			PrivateKey: doc.PrivateKey,
			CreatedAt:  doc.CreatedAt,
		})
	}

	if err := cur.Err(); err != nil {
		return nil, 0, err
	}

	return wallets, total, nil
}

// UserRepository stores bot users in mongo
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates new user repository instance
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{coll: db.users()}
}

// UpsertUser inserts user if it is seen first time
func (ur *UserRepository) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := ur.coll.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$setOnInsert": bson.M{
			"username":      user.Username,
			"first_seen_at": user.FirstSeenAt.UTC(),
		}},
		options.Update().SetUpsert(true))
	return err
}

// GetUser returns user by id
func (ur *UserRepository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var doc userDocument
	if err := ur.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &models.User{ID: doc.ID, Username: doc.Username, FirstSeenAt: doc.FirstSeenAt}, nil
}

// AdminRepository stores admins in mongo
type AdminRepository struct {
	coll *mongo.Collection
}

// NewAdminRepository creates new admin repository instance
func NewAdminRepository(db *DB) *AdminRepository {
	return &AdminRepository{coll: db.admins()}
}

// CreateAdmin inserts new admin
func (ar *AdminRepository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	_, err := ar.coll.InsertOne(ctx, adminDocument{
		ID:        admin.ID,
		Username:  admin.Username,
		Password:  admin.Password,
		Role:      admin.Role,
		CreatedAt: admin.CreatedAt.UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrConflictData
		}
		return err
	}
	return nil
}

// GetAdminByUsername returns admin by username
func (ar *AdminRepository) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var doc adminDocument
	if err := ar.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &models.Admin{
		ID:        doc.ID,
		Username:  doc.Username,
		Password:  doc.Password,
		Role:      doc.Role,
		CreatedAt: doc.CreatedAt,
		LastLogin: doc.LastLogin,
	}, nil
}

// UpdateLastLogin sets last login time of admin
func (ar *AdminRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := ar.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login": at.UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrDataNotFound
	}
	return nil
}
