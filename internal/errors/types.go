package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 校验错误
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// 摄取/存储错误
	ErrCodeDimensionMismatch ErrorCode = "DIMENSION_MISMATCH"
	ErrCodeStoreIO           ErrorCode = "STORE_IO_ERROR"

	// 外部模型错误（嵌入或生成后端）
	ErrCodeExternalModel ErrorCode = "EXTERNAL_MODEL_ERROR"

	// 通用错误
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// ErrorType 错误类型
type ErrorType int

const (
	ErrorTypeSystem ErrorType = iota
	ErrorTypeValidation
	ErrorTypeExternal
	ErrorTypeStorage
)

// AppError 应用错误结构体
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Type     ErrorType   `json:"type"`
	HTTPCode int         `json:"-"`
	Details  interface{} `json:"details,omitempty"`
	Cause    error       `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加错误详情
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause 添加错误原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewValidation 创建校验错误（空问题、非法参数等）
func NewValidation(message string) *AppError {
	return &AppError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Type:     ErrorTypeValidation,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewDimensionMismatch 创建向量维度不一致错误
func NewDimensionMismatch(expected, actual int) *AppError {
	return &AppError{
		Code:     ErrCodeDimensionMismatch,
		Message:  fmt.Sprintf("embedding dimension mismatch: index expects %d, got %d", expected, actual),
		Type:     ErrorTypeStorage,
		HTTPCode: http.StatusInternalServerError,
	}
}

// NewExternalModel 创建外部模型调用错误
func NewExternalModel(message string, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeExternalModel,
		Message:  message,
		Type:     ErrorTypeExternal,
		HTTPCode: http.StatusBadGateway,
		Cause:    cause,
	}
}

// NewStoreIO 创建持久化错误
func NewStoreIO(message string, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeStoreIO,
		Message:  message,
		Type:     ErrorTypeStorage,
		HTTPCode: http.StatusInternalServerError,
		Cause:    cause,
	}
}

// NewInternal 创建内部错误
func NewInternal(message string, cause error) *AppError {
	return &AppError{
		Code:     ErrCodeInternal,
		Message:  message,
		Type:     ErrorTypeSystem,
		HTTPCode: http.StatusInternalServerError,
		Cause:    cause,
	}
}

// CodeOf 提取错误码，非AppError返回 INTERNAL_ERROR
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidationFailed
}

// IsDimensionMismatch 判断是否为维度不一致错误
func IsDimensionMismatch(err error) bool {
	return CodeOf(err) == ErrCodeDimensionMismatch
}

// IsExternalModel 判断是否为外部模型错误
func IsExternalModel(err error) bool {
	return CodeOf(err) == ErrCodeExternalModel
}

// IsStoreIO 判断是否为持久化错误
func IsStoreIO(err error) bool {
	return CodeOf(err) == ErrCodeStoreIO
}
