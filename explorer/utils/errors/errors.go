package custom_errors

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound = &ExplorerError{Code: http.StatusNotFound, Message: "not found"}
)

// IExplorerError is an error that carries the HTTP status to answer with.
type IExplorerError interface {
	error
	IsExplorerError() bool
	GetCode() int
}

type ExplorerError struct {
	Code    int
	Message string
	cause   error
}

func (e *ExplorerError) Error() string {
	return e.Message
}

func (e *ExplorerError) Unwrap() error {
	return e.cause
}

func (e *ExplorerError) IsExplorerError() bool {
	return true
}

func (e *ExplorerError) GetCode() int {
	return e.Code
}

func New400Error(msg string) IExplorerError {
	return &ExplorerError{Code: http.StatusBadRequest, Message: msg}
}

func New403Error(msg string) IExplorerError {
	return &ExplorerError{Code: http.StatusForbidden, Message: msg}
}

func New404Error(msg string) IExplorerError {
	return &ExplorerError{Code: http.StatusNotFound, Message: msg}
}

// New502Error reports a failure of the warehouse behind the explorer.
func New502Error(err error) IExplorerError {
	return &ExplorerError{Code: http.StatusBadGateway, Message: err.Error(), cause: err}
}

func Unwrap[T IExplorerError](err error) (T, bool) {
	var target T
	if errors.As(err, &target) {
		return target, true
	}
	return target, false
}

// Code returns the HTTP status for err, 500 for uncoded errors.
func Code(err error) int {
	if e, ok := Unwrap[IExplorerError](err); ok {
		return e.GetCode()
	}
	return http.StatusInternalServerError
}
