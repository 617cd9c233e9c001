package utils

import (
	"context"
	"errors"
	"syscall"
)

// IsClientDisconnect 下载过程中客户端断开，不视为服务端错误
func IsClientDisconnect(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
