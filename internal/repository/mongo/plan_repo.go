// internal/repository/mongo/plan_repo.go
package mongo

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planCollectionName = "plans"

// mongoPlanRepository implements repository.PlanRepository.
// Each plan is one document, so every write touches exactly one record.
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// planDocument is the stored form of a plan. Seq is set once on insert and
// orders plans saved in the same millisecond.
type planDocument struct {
	domain.SavedPlan `bson:",inline"`
	Seq              primitive.ObjectID `bson:"seq"`
}

// NewMongoPlanRepository creates a new plan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// ListByOwner retrieves all plans of an owner, newest first.
func (r *mongoPlanRepository) ListByOwner(ctx context.Context, owner string) ([]domain.SavedPlan, error) {
	filter := bson.M{"owner": owner}
	// Sort by cycle start, newest first; seq keeps insertion order within a millisecond
	findOptions := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}, {Key: "seq", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []planDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	plans := make([]domain.SavedPlan, 0, len(docs))
	for _, doc := range docs {
		plans = append(plans, doc.SavedPlan)
	}
	return plans, nil
}

// Insert stores a new plan document.
func (r *mongoPlanRepository) Insert(ctx context.Context, plan *domain.SavedPlan) error {
	if plan.ID == "" || plan.Owner == "" {
		return repository.ErrMissingFields
	}
	_, err := r.collection.InsertOne(ctx, planDocument{SavedPlan: *plan, Seq: primitive.NewObjectID()})
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicateKey
	}
	return err
}

// Replace overwrites a plan, matched by ID and owner.
func (r *mongoPlanRepository) Replace(ctx context.Context, plan *domain.SavedPlan) error {
	if plan.ID == "" || plan.Owner == "" {
		return repository.ErrMissingFields
	}
	filter := bson.M{"_id": plan.ID, "owner": plan.Owner}

	// A replacement keeps the insertion sequence of the stored document.
	var current planDocument
	err := r.collection.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"seq": 1})).Decode(&current)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}

	result, err := r.collection.ReplaceOne(ctx, filter, planDocument{SavedPlan: *plan, Seq: current.Seq})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	// result.ModifiedCount could be 0 if data was the same, which is not an error.
	return nil
}

// Delete removes a plan. The owner filter prevents deleting another identity's plan.
func (r *mongoPlanRepository) Delete(ctx context.Context, owner, id string) error {
	if owner == "" || id == "" {
		return repository.ErrMissingFields
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "owner": owner})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Main query pattern: an owner's plans, newest first
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "startDate", Value: -1}, {Key: "seq", Value: -1}},
			Options: options.Index(),
		},
		{
			// Evolution chain lookups
			Keys:    bson.D{{Key: "previousId", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
