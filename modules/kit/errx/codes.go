package errx

// 这里定义“跨服务统一”的错误码。
//
// 约束：
// - 系统类错误码用于技术错误归一化（告警、观测、排障）
// - 通用的请求类错误码（参数错误/未认证/资源不存在）也放这里，便于接口层统一映射 HTTP 状态
// - 具体业务错误码（例如 BOOK_NOT_FOUND）由各业务自行定义，通过 WithData/NewBiz 派生

const (
	// CodeInternal 表示服务内部不可预期错误（兜底）。
	CodeInternal Code = "INTERNAL_ERROR"
	// CodeUnavailable 表示依赖不可用（DB/Mongo/下游服务/网络异常等）。
	CodeUnavailable Code = "SERVICE_UNAVAILABLE"
	// CodeTimeout 表示请求/依赖调用超时。
	CodeTimeout Code = "TIMEOUT"
	// CodeInvariant 表示代码契约被破坏（字段注册表/实体拷贝契约有缺陷），不是调用方输入问题。
	CodeInvariant Code = "INVARIANT_VIOLATION"

	// CodeInvalidArgument 请求参数错误。
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeUnauthorized 未认证或令牌无效。
	CodeUnauthorized Code = "UNAUTHORIZED"
	// CodeNotFound 资源不存在（业务可以定义更细的 code）。
	CodeNotFound Code = "NOT_FOUND"
)

// 统一哨兵错误（允许 WithData/WithCause 派生新对象，禁止直接修改）。
var (
	ErrInternal    = NewSys(CodeInternal, "internal server error")
	ErrUnavailable = NewSys(CodeUnavailable, "service unavailable")
	ErrTimeout     = NewSys(CodeTimeout, "request timeout")
	ErrInvariant   = NewSys(CodeInvariant, "invariant violation")

	ErrInvalidArgument = NewBiz(CodeInvalidArgument, "invalid argument")
	ErrUnauthorized    = NewBiz(CodeUnauthorized, "unauthorized")
	ErrNotFound        = NewBiz(CodeNotFound, "not found")
)
