package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/sets"

	"BookShelf/internal/book/app"
)

const maxBodyBytes = 1 << 20

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息里用 json 名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func invalid(detail string, cause error) error {
	e := app.ErrInvalidArgument.WithData("detail", detail)
	if cause != nil {
		return e.WithCause(cause)
	}
	return e
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, invalid(name+" 不是合法的 uuid", err)
	}
	return id, nil
}

// decodeBody 把请求体解析到 req，并返回请求体里实际出现的顶层 key（即声明字段）。
func decodeBody(c *gin.Context, req any) (sets.Set[string], error) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, invalid("请求体读取失败", err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return nil, invalid("请求体必须是 JSON 对象", err)
	}
	if err := json.Unmarshal(raw, req); err != nil {
		return nil, invalid("请求体字段类型错误", err)
	}
	return sets.KeySet(top), nil
}

// validateDeclared 只校验声明过的可写字段：未声明或只读的字段不会被应用，也不该因此被拒绝。
// fields 是可写字段的 json 名 -> Go 字段名，readOnly 是始终跳过的 Go 字段名。
func (h *Book) validateDeclared(req any, declared sets.Set[string], fields map[string]string, readOnly ...string) error {
	lower := sets.New[string]()
	for k := range declared {
		lower.Insert(strings.ToLower(k))
	}
	except := append([]string(nil), readOnly...)
	for jsonName, goName := range fields {
		if !lower.Has(jsonName) {
			except = append(except, goName)
		}
	}
	return validationErr(h.validate.StructExcept(req, except...))
}

func (h *Book) validateAll(req any) error {
	return validationErr(h.validate.Struct(req))
}

func validationErr(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalid("参数校验失败", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		parts = append(parts, fmt.Sprintf("%s %s", ns, fe.Tag()))
	}
	return invalid(strings.Join(parts, ", "), err)
}
