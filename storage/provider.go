package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("object not found")

// Provider 存储提供者接口
// key 为存储层相对路径，如 dicom/2024/01/15/1705314600000-a1b2c3-chest.dcm
type Provider interface {
	// SaveWithContext 保存文件并返回可长期引用的 URL
	SaveWithContext(ctx context.Context, key string, file io.Reader) (string, error)

	// GetWithContext 读取文件，调用方负责关闭
	GetWithContext(ctx context.Context, key string) (io.ReadCloser, error)

	// DeleteWithContext 删除文件
	DeleteWithContext(ctx context.Context, key string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// KeyFromURL 将 SaveWithContext 返回的 URL 还原为 key
	KeyFromURL(fileURL string) (string, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
