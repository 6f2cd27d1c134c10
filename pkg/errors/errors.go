// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 错误码，对应排班核心的七类错误
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// ValidationFailure — 非法日期/时间、空班次列表、weekday 越界、end<=start、范围不一致
	CodeValidationFailure Code = "VALIDATION_FAILURE"
	// AuthorizationFailure — 缺少租户、角色权限不足
	CodeAuthorizationFailure Code = "AUTHORIZATION_FAILURE"
	// NotFound — 未知的 demand/shift/rule/request
	CodeNotFound Code = "NOT_FOUND"
	// ConflictState — 调班申请已被处理、地点重复创建
	CodeConflictState Code = "CONFLICT_STATE"
	// SolverTimeout — 返回当前最优解；记录日志，不向调用方暴露为错误
	CodeSolverTimeout Code = "SOLVER_TIMEOUT"
	// IndexRace — 日索引或内容哈希唯一约束冲突：重新查询后继续
	CodeIndexRace Code = "INDEX_RACE"
	// NotificationFailure — 吞掉并记录日志
	CodeNotificationFailure Code = "NOTIFICATION_FAILURE"

	CodeInternal Code = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// codeToHTTPStatus 把错误码映射到未来传输层会使用的 HTTP 状态码。
// 核心本身不做传输，但规格 6/7 节要求这一映射表存在。
func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeValidationFailure:
		return http.StatusBadRequest
	case CodeAuthorizationFailure:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflictState:
		return http.StatusConflict
	case CodeSolverTimeout:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// ValidationFailure 创建校验失败错误
func ValidationFailure(field, reason string) *AppError {
	return New(CodeValidationFailure, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}

// AuthorizationFailure 创建权限不足错误
func AuthorizationFailure(reason string) *AppError {
	return New(CodeAuthorizationFailure, reason)
}

// NotFound 创建资源不存在错误
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s '%s' 不存在", resource, id))
}

// ConflictState 创建状态冲突错误
func ConflictState(reason string) *AppError {
	return New(CodeConflictState, reason)
}

// ValidationErrors 验证错误集合（用于批量校验，如可用性批量写入）
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError 单个验证错误
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "验证失败"
	}
	return fmt.Sprintf("验证失败: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

// Add 添加验证错误
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors 检查是否有错误
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError 转换为 AppError
func (ve *ValidationErrors) ToAppError() *AppError {
	err := New(CodeValidationFailure, "验证失败")
	err.Fields = make(map[string]interface{})
	for _, e := range ve.Errors {
		err.Fields[e.Field] = e.Message
	}
	return err
}
