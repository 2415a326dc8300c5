package transport

// Response 是 HTTP 接口统一响应体。
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func Success(data any) Response {
	return Response{Code: OK, Msg: "success", Data: data}
}

func Error(code int, msg string) Response {
	return Response{Code: code, Msg: msg}
}
