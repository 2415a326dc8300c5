// Package gormrepo 是基于 gorm 的图书仓储，mysql 与 sqlite 共用。
package gormrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"BookShelf/internal/book/domain"
	"BookShelf/internal/book/errs"
	"BookShelf/internal/book/infra/persistence/mapper"
	"BookShelf/internal/book/infra/persistence/model"
)

const (
	OpGetBook    = "repo.book.GetBook"
	OpListBooks  = "repo.book.ListBooks"
	OpAddBook    = "repo.book.AddBook"
	OpUpdateBook = "repo.book.UpdateBook"
	OpDeleteBook = "repo.book.DeleteBook"
)

type BookRepo struct {
	db *gorm.DB
}

func NewBookRepo(db *gorm.DB) *BookRepo {
	return &BookRepo{db: db}
}

func (r *BookRepo) WithTx(tx *gorm.DB) *BookRepo {
	return &BookRepo{db: tx}
}

// Migrate 建表：book / book_author / book_audit。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.BookModel{}, &model.AuthorModel{}, &model.AuditModel{})
}

func preloadAuthors(db *gorm.DB) *gorm.DB {
	return db.Preload("Authors", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

func (r *BookRepo) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	var m model.BookModel
	err := preloadAuthors(r.db.WithContext(ctx)).Where("id = ?", id.String()).First(&m).Error

	switch {
	case err == nil:
		return mapper.BookModelToDomain(&m), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrBookNotFound
	default:
		return nil, errs.Wrap(OpGetBook, errs.KindInfra, err, map[string]any{"book_id": id.String()})
	}
}

func (r *BookRepo) ListBooks(ctx context.Context, offset, limit int) ([]*domain.Book, int64, error) {
	meta := map[string]any{"offset": offset, "limit": limit}
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.BookModel{}).Count(&total).Error; err != nil {
		return nil, 0, errs.Wrap(OpListBooks, errs.KindInfra, err, meta)
	}

	var ms []model.BookModel
	err := preloadAuthors(db).Order("created_at").Order("id").Offset(offset).Limit(limit).Find(&ms).Error
	if err != nil {
		return nil, 0, errs.Wrap(OpListBooks, errs.KindInfra, err, meta)
	}
	out := make([]*domain.Book, 0, len(ms))
	for i := range ms {
		out = append(out, mapper.BookModelToDomain(&ms[i]))
	}
	return out, total, nil
}

func (r *BookRepo) AddBook(ctx context.Context, b *domain.Book) error {
	m := mapper.BookToModel(b)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return err
		}
		if len(m.Authors) == 0 {
			return nil
		}
		return tx.Create(&m.Authors).Error
	})
	if err != nil {
		return errs.Wrap(OpAddBook, errs.KindInfra, err, map[string]any{"book_id": m.ID})
	}
	return nil
}

// UpdateBook 在一个事务里保存整本书：
//  1. 更新标量列
//  2. 删除不在新集合里的作者
//  3. 按 (book_id, author_id) upsert 其余作者（名字与位置）
func (r *BookRepo) UpdateBook(ctx context.Context, b *domain.Book) error {
	m := mapper.BookToModel(b)
	meta := map[string]any{"book_id": m.ID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.BookModel{}).Where("id = ?", m.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrBookNotFound
		}

		err := tx.Model(&model.BookModel{}).Where("id = ?", m.ID).Updates(map[string]any{
			"title":       m.Title,
			"description": m.Description,
			"pages":       m.Pages,
			"updated_at":  m.UpdatedAt,
		}).Error
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(m.Authors))
		for _, a := range m.Authors {
			ids = append(ids, a.AuthorID)
		}
		del := tx.Where("book_id = ?", m.ID)
		if len(ids) > 0 {
			del = del.Where("author_id NOT IN ?", ids)
		}
		if err := del.Delete(&model.AuthorModel{}).Error; err != nil {
			return err
		}

		if len(m.Authors) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "book_id"}, {Name: "author_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "position"}),
		}).Create(&m.Authors).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrBookNotFound):
		return err
	default:
		return errs.Wrap(OpUpdateBook, errs.KindInfra, err, meta)
	}
}

func (r *BookRepo) DeleteBook(ctx context.Context, id uuid.UUID) error {
	key := id.String()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", key).Delete(&model.BookModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrBookNotFound
		}
		return tx.Where("book_id = ?", key).Delete(&model.AuthorModel{}).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrBookNotFound):
		return err
	default:
		return errs.Wrap(OpDeleteBook, errs.KindInfra, err, map[string]any{"book_id": key})
	}
}
