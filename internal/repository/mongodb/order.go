package mongodb

import (
	"context"
	"errors"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

type cardDetailsDocument struct {
	CardNumber string `bson:"card_number"`
	ExpiryDate string `bson:"expiry_date"`
	CVV        string `bson:"cvv"`
	CardName   string `bson:"card_name"`
}

type orderDocument struct {
	ID                   string               `bson:"_id"`
	UserID               int64                `bson:"user_id"`
	Type                 string               `bson:"type"`
	FirstName            string               `bson:"first_name"`
	LastName             string               `bson:"last_name"`
	Email                string               `bson:"email"`
	Phone                string               `bson:"phone"`
	Amount               primitive.Decimal128 `bson:"amount"`
	WalletAddress        string               `bson:"wallet_address"`
	TokenContract        string               `bson:"token_contract"`
	TokenDecimals        int32                `bson:"token_decimals"`
	Status               string               `bson:"status"`
	CardStatus           string               `bson:"card_status"`
	StatusChangedBy      string               `bson:"status_changed_by"`
	StatusChangedAt      *time.Time           `bson:"status_changed_at"`
	CardDetails          *cardDetailsDocument `bson:"card_details"`
	OperationsMessageRef int                  `bson:"operations_message_ref"`
	SettlementTxRef      string               `bson:"settlement_tx_ref"`
	CreatedAt            time.Time            `bson:"created_at"`
	ExpiresAt            time.Time            `bson:"expires_at"`
	PaidAt               *time.Time           `bson:"paid_at"`
}

func toOrderDocument(o *models.Order) (*orderDocument, error) {
	amount, err := primitive.ParseDecimal128(o.Amount.String())
	if err != nil {
		return nil, err
	}

	return &orderDocument{
		ID:                   o.ID,
		UserID:               o.UserID,
		Type:                 string(o.Type),
		FirstName:            o.Inputs.FirstName,
		LastName:             o.Inputs.LastName,
		Email:                o.Inputs.Email,
		Phone:                o.Inputs.Phone,
		Amount:               amount,
		WalletAddress:        o.WalletAddress,
		TokenContract:        o.Token.Contract,
		TokenDecimals:        o.Token.Decimals,
		Status:               string(o.Status),
		CardStatus:           string(o.CardStatus),
		StatusChangedBy:      o.StatusChangedBy,
		StatusChangedAt:      o.StatusChangedAt,
		CardDetails:          toCardDetailsDocument(o.CardDetails),
		OperationsMessageRef: o.OperationsMessageRef,
		SettlementTxRef:      o.SettlementTxRef,
		CreatedAt:            o.CreatedAt.UTC(),
		ExpiresAt:            o.ExpiresAt.UTC(),
		PaidAt:               o.PaidAt,
	}, nil
}

func toCardDetailsDocument(cd *models.CardDetails) *cardDetailsDocument {
	if cd == nil {
		return nil
	}
	return &cardDetailsDocument{
		CardNumber: cd.CardNumber,
		ExpiryDate: cd.ExpiryDate,
		CVV:        cd.CVV,
		CardName:   cd.CardName,
	}
}

func (d *orderDocument) model() (*models.Order, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return nil, err
	}

	o := &models.Order{
		ID:     d.ID,
		UserID: d.UserID,
		Type:   models.CardType(d.Type),
		Inputs: models.Inputs{
			FirstName: d.FirstName,
			LastName:  d.LastName,
			Email:     d.Email,
			Phone:     d.Phone,
		},
		Amount:               amount,
		WalletAddress:        d.WalletAddress,
		Token:                models.Token{Contract: d.TokenContract, Decimals: d.TokenDecimals},
		Status:               models.PaymentStatus(d.Status),
		CardStatus:           models.CardStatus(d.CardStatus),
		StatusChangedBy:      d.StatusChangedBy,
		StatusChangedAt:      d.StatusChangedAt,
		OperationsMessageRef: d.OperationsMessageRef,
		SettlementTxRef:      d.SettlementTxRef,
		CreatedAt:            d.CreatedAt,
		ExpiresAt:            d.ExpiresAt,
		PaidAt:               d.PaidAt,
	}
	if d.CardDetails != nil {
		o.CardDetails = &models.CardDetails{
			CardNumber: d.CardDetails.CardNumber,
			ExpiryDate: d.CardDetails.ExpiryDate,
			CVV:        d.CardDetails.CVV,
			CardName:   d.CardDetails.CardName,
		}
	}

	return o, nil
}

// OrderRepository stores orders in mongo
type OrderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{coll: db.orders()}
}

// CreateOrder inserts new order
func (or *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	doc, err := toOrderDocument(order)
	if err != nil {
		return err
	}

	if _, err := or.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrConflictData
		}
		return err
	}

	return nil
}

// GetOrder returns order by id
func (or *OrderRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return or.findOne(ctx, bson.M{"_id": id}, nil)
}

// GetLastUserOrder returns the most recent order of user
func (or *OrderRepository) GetLastUserOrder(ctx context.Context, userID int64) (*models.Order, error) {
	return or.findOne(ctx, bson.M{"user_id": userID}, options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// GetOrdersByUserID returns page of user orders, newest first, and total count
func (or *OrderRepository) GetOrdersByUserID(ctx context.Context, userID int64, offset, limit int) ([]models.Order, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := or.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	orders, err := or.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// GetPendingOrders returns orders waiting for payment
func (or *OrderRepository) GetPendingOrders(ctx context.Context) ([]models.Order, error) {
	return or.find(ctx, bson.M{"status": models.PaymentStatusPending}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// GetPaidOrders returns paid orders, newest first
func (or *OrderRepository) GetPaidOrders(ctx context.Context) ([]models.Order, error) {
	return or.find(ctx, bson.M{"status": models.PaymentStatusPaid}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// MarkPaid moves pending order to paid and its card to inprocess.
// Returns false if order was not pending.
func (or *OrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	return or.updateOne(ctx,
		bson.M{"_id": id, "status": models.PaymentStatusPending},
		bson.M{"$set": bson.M{
			"status":      models.PaymentStatusPaid,
			"card_status": models.CardStatusInProcess,
			"paid_at":     at.UTC(),
		}})
}

// MarkExpired moves pending order to expired.
// Returns false if order was not pending.
func (or *OrderRepository) MarkExpired(ctx context.Context, id string) (bool, error) {
	return or.updateOne(ctx,
		bson.M{"_id": id, "status": models.PaymentStatusPending},
		bson.M{"$set": bson.M{"status": models.PaymentStatusExpired}})
}

// ExpireOverdue expires every pending order whose deadline is not after now
func (or *OrderRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := or.coll.UpdateMany(ctx,
		bson.M{"status": models.PaymentStatusPending, "expires_at": bson.M{"$lte": now.UTC()}},
		bson.M{"$set": bson.M{"status": models.PaymentStatusExpired}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SetOperationsMessage stores reference of operations channel message
func (or *OrderRepository) SetOperationsMessage(ctx context.Context, id string, ref int) error {
	return or.setOne(ctx, id, bson.M{"operations_message_ref": ref})
}

// ClearOperationsMessage clears stored reference if it still equals ref
func (or *OrderRepository) ClearOperationsMessage(ctx context.Context, id string, ref int) (bool, error) {
	if ref == 0 {
		return false, nil
	}
	return or.updateOne(ctx,
		bson.M{"_id": id, "operations_message_ref": ref},
		bson.M{"$set": bson.M{"operations_message_ref": 0}})
}

// SetSettlementTx stores id of settlement transaction
func (or *OrderRepository) SetSettlementTx(ctx context.Context, id, txID string) error {
	return or.setOne(ctx, id, bson.M{"settlement_tx_ref": txID})
}

// UpdateCardStatus advances card status of paid order from one status to another.
// Details are stored when given. Returns false if order is not paid or not in from status.
func (or *OrderRepository) UpdateCardStatus(ctx context.Context, id string, from, to models.CardStatus, by string, at time.Time, details *models.CardDetails) (bool, error) {
	set := bson.M{
		"card_status":       to,
		"status_changed_by": by,
		"status_changed_at": at.UTC(),
	}
	if details != nil {
		set["card_details"] = toCardDetailsDocument(details)
	}

	return or.updateOne(ctx,
		bson.M{"_id": id, "status": models.PaymentStatusPaid, "card_status": from},
		bson.M{"$set": set})
}

func (or *OrderRepository) setOne(ctx context.Context, id string, set bson.M) error {
	res, err := or.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrDataNotFound
	}
	return nil
}

func (or *OrderRepository) updateOne(ctx context.Context, filter, update bson.M) (bool, error) {
	res, err := or.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (or *OrderRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.Order, error) {
	var doc orderDocument
	if err := or.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}
	return doc.model()
}

func (or *OrderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Order, error) {
	cur, err := or.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	orders := []models.Order{}
	for cur.Next(ctx) {
		var doc orderDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		o, err := doc.model()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
