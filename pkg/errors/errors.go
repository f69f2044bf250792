// Package errors 定义跨模块共享的错误类别，以及 GORM 错误到类别的翻译。
// 各业务模块的哨兵错误通过 New 挂靠到某个类别上，handler 可按类别兜底映射 HTTP 状态码。
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// 错误类别
var (
	ErrForbidden           = errors.New("无权限执行此操作")
	ErrNotFound            = errors.New("记录不存在")
	ErrValidation          = errors.New("参数校验失败")
	ErrConstraintViolation = errors.New("数据约束冲突")
)

// Error 归属于某个类别的业务错误
type Error struct {
	kind error
	msg  string
}

// New 创建归属于 kind 类别的业务错误
func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Unwrap 使 errors.Is(err, kind) 成立
func (e *Error) Unwrap() error { return e.kind }

// Translate 将存储层错误归类，原始错误仍保留在链上
func Translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	default:
		return err
	}
}

// HTTPStatus 按类别返回 HTTP 状态码，未归类的错误视为 500
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConstraintViolation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
