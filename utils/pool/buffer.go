package pool

import (
	"io"
	"sync"
)

// BufferSize 统一缓冲区大小（256KB）
const BufferSize = 256 * 1024

// sharedBufferPool 存储 *([]byte) 以避免 SA6002 警告
var sharedBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// Copy 使用池化缓冲区复制数据流
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	bufPtr := sharedBufferPool.Get().(*[]byte)
	defer sharedBufferPool.Put(bufPtr)
	return io.CopyBuffer(dst, src, *bufPtr)
}
