// Package apperr 定义服务层统一的错误分类。
//
// 每个操作把失败翻译成带 Kind 的 *Error，传输层据此选择 HTTP 状态码
// 和响应里的 EC 错误码，避免各模块各自发明错误码含义。
package apperr

import (
	"errors"
	"fmt"
)

// Kind 表示错误类别。
type Kind int

const (
	Internal     Kind = iota // 未预期的服务端错误（含数据库错误）
	NotFound                 // 目标资源不存在
	Invalid                  // 输入为空或不合法
	Forbidden                // 已登录但无权限
	Unauthorized             // 未登录或凭证无效
)

// Error 是带类别的服务层错误。
type Error struct {
	Kind    Kind
	Message string
	Err     error // 底层原因（可为 nil）
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建一个指定类别的错误。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 包装底层错误为服务端错误，保留原因链。
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf 返回 err 的类别；非 *Error 一律视为 Internal。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf 返回适合展示给调用方的消息；非 *Error 返回通用服务端错误文案。
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Lỗi server"
}

// Is 判断 err 是否属于给定类别。
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
