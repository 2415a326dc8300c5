package app

import (
	"errors"
	"fmt"
	"testing"

	"BookShelf/internal/book/domain"
	"BookShelf/internal/book/errs"
	"BookShelf/modules/kit/errx"
)

func TestTranslateRepoErr_不存在转成业务错误(t *testing.T) {
	err := translateRepoErr(fmt.Errorf("load: %w", domain.ErrBookNotFound), map[string]any{"book_id": "b-1"})
	if !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("期望 ErrBookNotFound, got=%v", err)
	}
	var xe *errx.Error
	if !errors.As(err, &xe) || xe.Data()["book_id"] != "b-1" {
		t.Fatalf("期望带上 book_id, got=%v", err)
	}
	if xe.Stack() != nil {
		t.Fatalf("期望业务类错误不捕获栈")
	}
}

func TestTranslateRepoErr_技术错误保留cause链(t *testing.T) {
	cause := errors.New("connection refused")
	repoErr := errs.Wrap("repo.book.GetBook", errs.KindInfra, cause, nil)

	err := translateRepoErr(repoErr, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("期望 ErrUnavailable, got=%v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("期望 cause 链不丢, err=%v", err)
	}
	if errx.IsBiz(err) {
		t.Fatalf("期望系统类错误")
	}
}

func TestTranslateRepoErr_nil(t *testing.T) {
	if translateRepoErr(nil, nil) != nil {
		t.Fatalf("期望 nil")
	}
}

func TestErrBookNotFound_WithData不污染哨兵(t *testing.T) {
	_ = ErrBookNotFound.WithData("book_id", "x")
	if ErrBookNotFound.Data() != nil {
		t.Fatalf("期望哨兵错误不被修改, got=%v", ErrBookNotFound.Data())
	}
}

func TestMergePatch(t *testing.T) {
	patch, err := mergePatch([]byte(`{"title":"a","pages":1}`), []byte(`{"title":"b","pages":1}`))
	if err != nil {
		t.Fatalf("mergePatch err=%v", err)
	}
	if string(patch) != `{"title":"b"}` {
		t.Fatalf("unexpected patch: %s", patch)
	}
	if deleted, _ := mergePatch([]byte(`{"title":"a"}`), nil); string(deleted) != "null" {
		t.Fatalf("期望删除记为 null, got=%s", deleted)
	}
}
