package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditOp 是审计记录的操作类型。
type AuditOp string

const (
	AuditCreate      AuditOp = "create"
	AuditUpdate      AuditOp = "update" // PUT 全量覆盖
	AuditPatch       AuditOp = "patch"
	AuditPatchAuthor AuditOp = "patch_author"
	AuditDelete      AuditOp = "delete"
)

// AuditEntry 记录一次写操作：谁、改了哪些字段、前后差异（RFC 7386 merge patch）。
type AuditEntry struct {
	ID         int64     `json:"id"`
	BookID     uuid.UUID `json:"bookId"`
	AuthorID   uuid.UUID `json:"authorId"` // 仅 patch_author 有值
	Op         AuditOp   `json:"op"`
	Subject    string    `json:"subject"`
	Fields     []string  `json:"fields"`
	MergePatch []byte    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}
