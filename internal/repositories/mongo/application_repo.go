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

const ApplicationsCollection = "applications"

// ApplicationFilter selects applications. Zero fields are ignored.
type ApplicationFilter struct {
	ApplicantID string
	PostingIDs  []primitive.ObjectID
	Status      models.ApplicationStatus
}

func (f ApplicationFilter) query() bson.M {
	q := bson.M{}
	if f.ApplicantID != "" {
		q["applicant_id"] = f.ApplicantID
	}
	if f.PostingIDs != nil {
		q["posting_id"] = bson.M{"$in": f.PostingIDs}
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

type ApplicationRepository interface {
	// Insert fails with utils.ErrDuplicate when the applicant already
	// applied to the posting.
	Insert(ctx context.Context, a *models.Application) error
	Exists(ctx context.Context, applicantID string, postingID primitive.ObjectID) (bool, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error)
	ListByApplicant(ctx context.Context, applicantID string) ([]models.Application, error)
	ListByPosting(ctx context.Context, postingID primitive.ObjectID) ([]models.Application, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ApplicationStatus) (*models.Application, error)
	Count(ctx context.Context, f ApplicationFilter) (int64, error)
	CountByPosting(ctx context.Context, postingIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error)
	// TallyByPosting reports, for every posting with applications, how many
	// exist and when the newest was created.
	TallyByPosting(ctx context.Context) (map[primitive.ObjectID]models.ApplicationTally, error)
}

type applicationRepo struct {
	col *mongo.Collection
}

func NewApplicationRepo(db *mongo.Database) ApplicationRepository {
	return &applicationRepo{col: db.Collection(ApplicationsCollection)}
}

func (r *applicationRepo) Insert(ctx context.Context, a *models.Application) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return utils.ErrDuplicate
	}
	return err
}

func (r *applicationRepo) Exists(ctx context.Context, applicantID string, postingID primitive.ObjectID) (bool, error) {
	n, err := r.col.CountDocuments(ctx,
		bson.M{"applicant_id": applicantID, "posting_id": postingID},
		options.Count().SetLimit(1),
	)
	return n > 0, err
}

func (r *applicationRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	var a models.Application
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

var (
	latestApplicationsFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

	// bestMatchFirst orders by match score; equal scores keep submission order.
	bestMatchFirst = bson.D{
		{Key: "match_score", Value: -1},
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	}
)

func (r *applicationRepo) ListByApplicant(ctx context.Context, applicantID string) ([]models.Application, error) {
	return r.find(ctx, bson.M{"applicant_id": applicantID},
		options.Find().SetSort(latestApplicationsFirst),
	)
}

func (r *applicationRepo) ListByPosting(ctx context.Context, postingID primitive.ObjectID) ([]models.Application, error) {
	return r.find(ctx, bson.M{"posting_id": postingID},
		options.Find().SetSort(bestMatchFirst),
	)
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ApplicationStatus) (*models.Application, error) {
	var a models.Application
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepo) Count(ctx context.Context, f ApplicationFilter) (int64, error) {
	return r.col.CountDocuments(ctx, f.query())
}

// CountByPosting groups live application counts per posting. Postings
// without applications are absent from the result.
func (r *applicationRepo) CountByPosting(ctx context.Context, postingIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	out := make(map[primitive.ObjectID]int64, len(postingIDs))
	if postingIDs != nil && len(postingIDs) == 0 {
		return out, nil
	}

	pipeline := mongo.Pipeline{}
	if postingIDs != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"posting_id": bson.M{"$in": postingIDs}}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.M{"_id": "$posting_id", "n": bson.M{"$sum": 1}}}})

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
		N  int64              `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.N
	}
	return out, nil
}

func (r *applicationRepo) TallyByPosting(ctx context.Context) (map[primitive.ObjectID]models.ApplicationTally, error) {
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":     "$posting_id",
			"count":   bson.M{"$sum": 1},
			"last_at": bson.M{"$max": "$created_at"},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID     primitive.ObjectID `bson:"_id"`
		Count  int64              `bson:"count"`
		LastAt time.Time          `bson:"last_at"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.ApplicationTally, len(rows))
	for _, row := range rows {
		out[row.ID] = models.ApplicationTally{Count: row.Count, LastAt: row.LastAt}
	}
	return out, nil
}

func (r *applicationRepo) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]models.Application, error) {
	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Application{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
