package transport

// BizCode 表示业务码的强类型封装，用于在日志上下文中减少误传风险。
type BizCode int

// 响应体 {code,msg,data} 中的 code。0 成功；1~499 客户端问题；>=500 服务端问题。
const (
	OK             = 0
	InvalidParam   = 100
	Unauthorized   = 101
	Forbidden      = 102
	BookNotFound   = 200
	AuthorNotFound = 201
	SystemError    = 500
	Unavailable    = 503
)
