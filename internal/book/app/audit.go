package app

import (
	"context"
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/sets"

	"BookShelf/internal/book/domain"
	"BookShelf/internal/shared/security"
	"BookShelf/modules/kit/logx"
)

var (
	emptyDoc   = []byte("{}")
	deletedDoc = []byte("null")
)

func snapshot(b *domain.Book) []byte {
	if b == nil {
		return emptyDoc
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return emptyDoc
	}
	return raw
}

// mergePatch 计算 before -> after 的 RFC 7386 merge patch；after 为 nil 表示删除。
func mergePatch(before, after []byte) ([]byte, error) {
	if after == nil {
		return deletedDoc, nil
	}
	return jsonpatch.CreateMergePatch(before, after)
}

type auditRecord struct {
	op       domain.AuditOp
	bookID   uuid.UUID
	authorID uuid.UUID
	applied  sets.Set[string]
	before   []byte
	after    []byte
}

// appendAudit 写审计记录。审计失败不回滚业务写入，只打系统错误日志。
func (s *BookService) appendAudit(ctx context.Context, rec auditRecord) {
	if s.audits == nil {
		return
	}
	patch, err := mergePatch(rec.before, rec.after)
	if err != nil {
		logx.ReportSysError(ctx, s.log, logx.NewSysLog("book audit diff failed",
			ErrUnavailable.WithData("book_id", rec.bookID.String()).WithCause(err)))
		patch = nil
	}
	fields := []string{}
	if rec.applied != nil {
		fields = sets.List(rec.applied)
	}
	entry := domain.AuditEntry{
		ID:         s.ids.NextID(),
		BookID:     rec.bookID,
		AuthorID:   rec.authorID,
		Op:         rec.op,
		Subject:    security.SubjectFrom(ctx),
		Fields:     fields,
		MergePatch: patch,
		CreatedAt:  s.now(),
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		logx.ReportSysError(ctx, s.log, logx.NewSysLog("book audit append failed",
			ErrUnavailable.WithData("book_id", rec.bookID.String()).WithCause(err)))
	}
}
