package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yoockh/hirelink/internal/models"
	"github.com/yoockh/hirelink/internal/utils"
)

const PostingsCollection = "postings"

type PostingRepository interface {
	Create(ctx context.Context, p *models.Posting) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Posting, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Posting, error)
	Update(ctx context.Context, p *models.Posting) error
	Search(ctx context.Context, f PostingFilter) ([]models.Posting, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Posting, error)
	Recommend(ctx context.Context, tagKeys []string, excludeOwner string, limit int64) ([]models.Posting, error)
	IncrementApplicants(ctx context.Context, id primitive.ObjectID, delta int64) error
	// SwapApplicants sets the counter to n only while it still reads from.
	SwapApplicants(ctx context.Context, id primitive.ObjectID, from, n int64) (bool, error)
	ListCounters(ctx context.Context) ([]models.PostingCounter, error)
}

type postingRepo struct {
	col *mongo.Collection
}

func NewPostingRepo(db *mongo.Database) PostingRepository {
	return &postingRepo{col: db.Collection(PostingsCollection)}
}

// newestFirst orders by creation time, ties broken by insertion order.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}

func (r *postingRepo) Create(ctx context.Context, p *models.Posting) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *postingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Posting, error) {
	var p models.Posting
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postingRepo) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Posting, error) {
	out := make(map[primitive.ObjectID]models.Posting, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Posting
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// Update rewrites the editable fields. The applicant counter is left alone.
func (r *postingRepo) Update(ctx context.Context, p *models.Posting) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": p.ID},
		bson.M{"$set": bson.M{
			"title":       p.Title,
			"company":     p.Company,
			"description": p.Description,
			"salary":      p.Salary,
			"role_type":   p.RoleType,
			"work_mode":   p.WorkMode,
			"location":    p.Location,
			"tags":        p.Tags,
			"tag_keys":    p.TagKeys,
			"status":      p.Status,
			"updated_at":  p.UpdatedAt,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *postingRepo) Search(ctx context.Context, f PostingFilter) ([]models.Posting, error) {
	return r.find(ctx, buildSearchQuery(f), options.Find().SetSort(newestFirst))
}

func (r *postingRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Posting, error) {
	return r.find(ctx, bson.M{"owner_id": ownerID}, options.Find().SetSort(newestFirst))
}

func (r *postingRepo) Recommend(ctx context.Context, tagKeys []string, excludeOwner string, limit int64) ([]models.Posting, error) {
	if len(tagKeys) == 0 {
		return []models.Posting{}, nil
	}
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, buildRecommendQuery(tagKeys, excludeOwner), opts)
}

func (r *postingRepo) IncrementApplicants(ctx context.Context, id primitive.ObjectID, delta int64) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"applicants": delta}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *postingRepo) SwapApplicants(ctx context.Context, id primitive.ObjectID, from, n int64) (bool, error) {
	res, err := r.col.UpdateOne(ctx, counterAt(id, from), bson.M{"$set": bson.M{"applicants": n}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// counterAt matches the posting while its counter equals n. Documents
// written before the counter existed decode as 0, so 0 also matches a
// missing field.
func counterAt(id primitive.ObjectID, n int64) bson.M {
	if n == 0 {
		return bson.M{"_id": id, "applicants": bson.M{"$in": bson.A{0, nil}}}
	}
	return bson.M{"_id": id, "applicants": n}
}

func (r *postingRepo) ListCounters(ctx context.Context) ([]models.PostingCounter, error) {
	cur, err := r.col.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1, "applicants": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.PostingCounter{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postingRepo) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Posting, error) {
	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Posting{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
