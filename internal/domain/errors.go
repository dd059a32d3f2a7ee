package domain

import (
	"errors"
	"fmt"
)

// 错误分类：
// - ValidationError 输入缺失/非法，发生在任何写入之前
// - NotFoundError   未知的 bin / cleaner / org unit / branch
// - InternalError   存储或聚合执行失败
// HTTP 层据此映射 400 / 404 / 500

// ValidationError 输入校验错误
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError 创建校验错误
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError 资源不存在
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError 创建资源不存在错误
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// InternalError 内部执行错误（存储/聚合）
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// NewInternalError 包装内部错误
func NewInternalError(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}

// IsValidation 判断是否校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound 判断是否资源不存在
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
