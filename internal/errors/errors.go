package errors

import (
	"errors"
	"fmt"
)

// AppError 应用错误类型
// 用于统一管理业务错误，包含错误码和错误消息
type AppError struct {
	Code    int    // 错误码
	Message string // 用户可见的错误消息
	Err     error  // 原始错误（可选，用于调试）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Is 判断是否为指定错误
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，如果不是 AppError 返回默认错误码
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError // 默认返回服务器错误
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "服务器内部错误"
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 认证相关 10000-10999
	CodeUnauthenticated = 10001
	CodeTokenInvalid    = 10002
	CodeTokenExpired    = 10003

	// 参数与资源相关 11000-11999
	CodeInvalidParams   = 11001
	CodeEmptyContent    = 11002
	CodeAmbiguousTarget = 11003
	CodeUserNotFound    = 11004
	CodeGroupNotFound   = 11005
	CodeMessageNotFound = 11006

	// 群组权限相关 13000-13999
	CodeNotGroupMember    = 13001
	CodeInsufficientRole  = 13002
	CodeNotMessageSender  = 13003
	CodeAlreadyMember     = 13004
	CodeMembershipMissing = 13005

	// 系统错误 50000-50999
	CodeServerError = 50001
	CodeDBError     = 50002
)

// ============== 预定义错误 ==============

// 认证相关
var (
	ErrUnauthenticated = NewError(CodeUnauthenticated, "未认证")
	ErrTokenInvalid    = NewError(CodeTokenInvalid, "Token 无效")
	ErrTokenExpired    = NewError(CodeTokenExpired, "Token 已过期")
)

// 参数与资源相关
var (
	ErrInvalidParams   = NewError(CodeInvalidParams, "参数校验失败")
	ErrEmptyContent    = NewError(CodeEmptyContent, "消息内容不能为空")
	ErrAmbiguousTarget = NewError(CodeAmbiguousTarget, "接收者和群组必须二选一")
	ErrUserNotFound    = NewError(CodeUserNotFound, "用户不存在")
	ErrGroupNotFound   = NewError(CodeGroupNotFound, "群组不存在")
	ErrMessageNotFound = NewError(CodeMessageNotFound, "消息不存在")
)

// 群组权限相关
var (
	ErrNotGroupMember    = NewError(CodeNotGroupMember, "你不是该群组成员")
	ErrInsufficientRole  = NewError(CodeInsufficientRole, "群组权限不足")
	ErrNotMessageSender  = NewError(CodeNotMessageSender, "只有发送者可以操作该消息")
	ErrAlreadyMember     = NewError(CodeAlreadyMember, "用户已经是群组成员")
	ErrMembershipMissing = NewError(CodeMembershipMissing, "群组成员关系不存在")
)

// 系统相关
var (
	ErrServerError = NewError(CodeServerError, "服务器内部错误")
	ErrDBError     = NewError(CodeDBError, "数据库错误")
)
