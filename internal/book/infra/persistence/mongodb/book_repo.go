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
	defaultBookCollectionName  = "books"
	defaultAuditCollectionName = "book_audits"
)

const (
	OpGetBook    = "repo.book.GetBook"
	OpListBooks  = "repo.book.ListBooks"
	OpAddBook    = "repo.book.AddBook"
	OpUpdateBook = "repo.book.UpdateBook"
	OpDeleteBook = "repo.book.DeleteBook"
	OpIndexes    = "repo.book.EnsureIndexes"
)

var errNilCollection = errors.New("mongodb book collection is nil")

// BookRepo 一本书一个文档（作者内嵌），整本书 ReplaceOne 保存，单文档写天然原子。
type BookRepo struct {
	coll *mongo.Collection
}

func NewBookRepo(db *mongo.Database) *BookRepo {
	if db == nil {
		return &BookRepo{}
	}
	return &BookRepo{coll: db.Collection(defaultBookCollectionName)}
}

// EnsureIndexes 建列表排序用的索引，启动时调用一次。
func (r *BookRepo) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.coll == nil {
		return errs.Wrap(OpIndexes, errs.KindInfra, errNilCollection, nil)
	}
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
	})
	return errs.Wrap(OpIndexes, errs.KindInfra, err, nil)
}

func (r *BookRepo) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	meta := map[string]any{"book_id": id.String()}
	if r == nil || r.coll == nil {
		return nil, errs.Wrap(OpGetBook, errs.KindInfra, errNilCollection, meta)
	}

	var doc model.BookDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	switch {
	case err == nil:
		return mapper.BookDocToDomain(&doc), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, domain.ErrBookNotFound
	default:
		return nil, errs.Wrap(OpGetBook, errs.KindInfra, err, meta)
	}
}

func (r *BookRepo) ListBooks(ctx context.Context, offset, limit int) ([]*domain.Book, int64, error) {
	meta := map[string]any{"offset": offset, "limit": limit}
	if r == nil || r.coll == nil {
		return nil, 0, errs.Wrap(OpListBooks, errs.KindInfra, errNilCollection, meta)
	}

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, errs.Wrap(OpListBooks, errs.KindInfra, err, meta)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, errs.Wrap(OpListBooks, errs.KindInfra, err, meta)
	}
	var docs []model.BookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, errs.Wrap(OpListBooks, errs.KindCodec, err, meta)
	}

	out := make([]*domain.Book, 0, len(docs))
	for i := range docs {
		out = append(out, mapper.BookDocToDomain(&docs[i]))
	}
	return out, total, nil
}

func (r *BookRepo) AddBook(ctx context.Context, b *domain.Book) error {
	doc := mapper.BookToDoc(b)
	meta := map[string]any{"book_id": doc.ID}
	if r == nil || r.coll == nil {
		return errs.Wrap(OpAddBook, errs.KindInfra, errNilCollection, meta)
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return errs.Wrap(OpAddBook, errs.KindInfra, err, meta)
	}
	return nil
}

func (r *BookRepo) UpdateBook(ctx context.Context, b *domain.Book) error {
	doc := mapper.BookToDoc(b)
	meta := map[string]any{"book_id": doc.ID}
	if r == nil || r.coll == nil {
		return errs.Wrap(OpUpdateBook, errs.KindInfra, errNilCollection, meta)
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return errs.Wrap(OpUpdateBook, errs.KindInfra, err, meta)
	}
	if res.MatchedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *BookRepo) DeleteBook(ctx context.Context, id uuid.UUID) error {
	meta := map[string]any{"book_id": id.String()}
	if r == nil || r.coll == nil {
		return errs.Wrap(OpDeleteBook, errs.KindInfra, errNilCollection, meta)
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return errs.Wrap(OpDeleteBook, errs.KindInfra, err, meta)
	}
	if res.DeletedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}
