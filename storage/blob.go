package storage

import (
	"context"
	"io"
	"time"
)

// Store 以 URL 为引用的 blob 存储
// Put 返回的 URL 即检查记录中的 file_url
type Store struct {
	provider      Provider
	deleteTimeout time.Duration
}

// NewStore 创建 blob 存储，deleteTimeout 为 0 时不额外限制删除耗时
func NewStore(provider Provider, deleteTimeout time.Duration) *Store {
	return &Store{provider: provider, deleteTimeout: deleteTimeout}
}

// Put 写入对象并返回 URL
func (s *Store) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	return s.provider.SaveWithContext(ctx, key, r)
}

// Delete 按 URL 删除对象
func (s *Store) Delete(ctx context.Context, fileURL string) error {
	key, err := s.provider.KeyFromURL(fileURL)
	if err != nil {
		return err
	}

	if s.deleteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deleteTimeout)
		defer cancel()
	}
	return s.provider.DeleteWithContext(ctx, key)
}

// Open 按 URL 读取对象
func (s *Store) Open(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	key, err := s.provider.KeyFromURL(fileURL)
	if err != nil {
		return nil, err
	}
	return s.provider.GetWithContext(ctx, key)
}

// Health 检查底层存储
func (s *Store) Health(ctx context.Context) error {
	return s.provider.Health(ctx)
}

// Name 返回底层存储名称
func (s *Store) Name() string {
	return s.provider.Name()
}
