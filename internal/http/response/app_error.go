package response

// AppError 处理器错误：业务状态码、对外文案与原始错误
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Severe 服务端或上游故障（5xx）需按错误级别记录，其余按警告
func (e *AppError) Severe() bool {
	return e.Code >= CodeInternal
}

// NewAppError 包装错误
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
