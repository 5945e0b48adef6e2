package server

import (
	"errors"
	"net/http"

	"ctfarena/game"
)

// ErrorKind 面向客户端的机器可读错误类型
type ErrorKind string

const (
	KindRoomNotFound       ErrorKind = "room_not_found"
	KindRoomFull           ErrorKind = "room_full"
	KindInvalidPlayerCount ErrorKind = "invalid_player_count"
	KindBadRequest         ErrorKind = "bad_request"
	KindInternal           ErrorKind = "internal"
)

// AppError 结构化错误：Kind 供程序判断，Message 给人看
type AppError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *AppError) Error() string { return string(e.Kind) + ": " + e.Message }

var (
	ErrRoomNotFound = &AppError{Kind: KindRoomNotFound, Message: "room not found"}
	ErrRoomFull     = &AppError{Kind: KindRoomFull, Message: "no free player slot in room"}
)

// AsAppError 把任意错误归一化为 AppError
func AsAppError(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, game.ErrInvalidPlayerCount) {
		return &AppError{Kind: KindInvalidPlayerCount, Message: err.Error()}
	}
	return &AppError{Kind: KindInternal, Message: err.Error()}
}

// HTTPStatus 错误类型对应的 HTTP 状态码
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindRoomNotFound:
		return http.StatusNotFound
	case KindRoomFull:
		return http.StatusConflict
	case KindInvalidPlayerCount, KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
