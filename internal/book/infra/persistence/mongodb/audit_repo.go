package mongodb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"BookShelf/internal/book/domain"
	"BookShelf/internal/book/errs"
	"BookShelf/internal/book/infra/persistence/mapper"
	"BookShelf/internal/book/infra/persistence/model"
)

const (
	OpAppendAudit  = "repo.audit.Append"
	OpListAudit    = "repo.audit.ListByBook"
	OpAuditIndexes = "repo.audit.EnsureIndexes"
)

var errNilAuditCollection = errors.New("mongodb audit collection is nil")

type AuditRepo struct {
	coll *mongo.Collection
}

func NewAuditRepo(db *mongo.Database) *AuditRepo {
	if db == nil {
		return &AuditRepo{}
	}
	return &AuditRepo{coll: db.Collection(defaultAuditCollectionName)}
}

func (r *AuditRepo) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.coll == nil {
		return errs.Wrap(OpAuditIndexes, errs.KindInfra, errNilAuditCollection, nil)
	}
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "bookId", Value: 1}, {Key: "_id", Value: -1}},
	})
	return errs.Wrap(OpAuditIndexes, errs.KindInfra, err, nil)
}

func (r *AuditRepo) Append(ctx context.Context, e domain.AuditEntry) error {
	meta := map[string]any{"book_id": e.BookID.String(), "id": e.ID}
	if r == nil || r.coll == nil {
		return errs.Wrap(OpAppendAudit, errs.KindInfra, errNilAuditCollection, meta)
	}
	if _, err := r.coll.InsertOne(ctx, mapper.AuditToDoc(e)); err != nil {
		return errs.Wrap(OpAppendAudit, errs.KindInfra, err, meta)
	}
	return nil
}

func (r *AuditRepo) ListByBook(ctx context.Context, bookID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	meta := map[string]any{"book_id": bookID.String()}
	if r == nil || r.coll == nil {
		return nil, errs.Wrap(OpListAudit, errs.KindInfra, errNilAuditCollection, meta)
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, bson.M{"bookId": bookID.String()}, opts)
	if err != nil {
		return nil, errs.Wrap(OpListAudit, errs.KindInfra, err, meta)
	}
	var docs []model.AuditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.Wrap(OpListAudit, errs.KindCodec, err, meta)
	}
	out := make([]domain.AuditEntry, 0, len(docs))
	for i := range docs {
		out = append(out, mapper.AuditDocToDomain(&docs[i]))
	}
	return out, nil
}
