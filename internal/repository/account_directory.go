package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Musanse/shiteni-sub006/internal/models"
)

var ErrAccountNotFound = errors.New("account not found")

// Directory reads the identity collaborator's account records. The only
// write is EnsureCustomer, the upsert-on-first-contact behavior for callers
// that have no account yet.
type Directory interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	EnsureCustomer(ctx context.Context, email, name string) (*models.Account, error)
}

type mongoDirectory struct {
	coll *mongo.Collection
}

func NewMongoDirectory(db *mongo.Database, collection string) Directory {
	coll := db.Collection(collection)
	_, _ = coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	})
	return &mongoDirectory{coll: coll}
}

func (d *mongoDirectory) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := d.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (d *mongoDirectory) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := d.coll.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (d *mongoDirectory) EnsureCustomer(ctx context.Context, email, name string) (*models.Account, error) {
	email = strings.ToLower(email)
	if a, err := d.FindByEmail(ctx, email); err == nil {
		return a, nil
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}
	a := &models.Account{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
		Role:  "customer",
	}
	if _, err := d.coll.InsertOne(ctx, a); err != nil {
		// lost a race with a concurrent first contact; the row exists now
		if mongo.IsDuplicateKeyError(err) {
			return d.FindByEmail(ctx, email)
		}
		return nil, err
	}
	return a, nil
}
