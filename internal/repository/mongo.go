package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emarc99/chaincapture/internal/models"
	"github.com/emarc99/chaincapture/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoAssetRepo struct {
	col *mongo.Collection
}

func NewMongoAssetRepo(col *mongo.Collection) *MongoAssetRepo {
	return &MongoAssetRepo{col: col}
}

// EnsureIndexes creates the owner lookup index.
func (r *MongoAssetRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "registered_at", Value: -1}},
	})
	return err
}

func (r *MongoAssetRepo) Insert(ctx context.Context, a *models.IPAsset) error {
	if a.RegisteredAt.IsZero() {
		a.RegisteredAt = time.Now().UTC()
	}
	doc := *a
	doc.Owner = strings.ToLower(a.Owner)
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *MongoAssetRepo) GetByID(ctx context.Context, ipID string) (*models.IPAsset, error) {
	var a models.IPAsset
	err := r.col.FindOne(ctx, bson.M{"_id": ipID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("ip asset %s: %w", ipID, utils.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *MongoAssetRepo) ListByOwner(ctx context.Context, owner string) ([]models.IPAsset, error) {
	opts := options.Find().SetSort(bson.D{{Key: "registered_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"owner": strings.ToLower(owner)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.IPAsset{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoAssetRepo) SetLicense(ctx context.Context, ipID, termsID string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": ipID}, bson.M{"$set": bson.M{"license_terms_id": termsID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("ip asset %s: %w", ipID, utils.ErrNotFound)
	}
	return nil
}
