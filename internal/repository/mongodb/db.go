package mongodb

import (
	"context"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

const defaultDatabase = "cardpay"

// DB is mongo database handle
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to mongo, pings it and creates indexes
func New(ctx context.Context, uri, database string) (*DB, error) {
	if database == "" {
		database = defaultDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	d := &DB{client: client, db: client.Database(database)}
	if err := d.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return d, nil
}

// Close disconnects from mongo
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *DB) orders() *mongo.Collection  { return d.db.Collection("orders") }
func (d *DB) wallets() *mongo.Collection { return d.db.Collection("wallets") }
func (d *DB) users() *mongo.Collection   { return d.db.Collection("users") }
func (d *DB) admins() *mongo.Collection  { return d.db.Collection("admins") }

func (d *DB) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	if _, err := d.wallets().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "address", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}

	if _, err := d.admins().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}

	_, err := d.orders().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
	})
	return err
}
