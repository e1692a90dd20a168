package compositor

import "sync"

// bufferPool recycles *Buffer allocations across the engine/renderer
// boundary, where a full buffer snapshot is produced every frame at
// sustained throughput.
var bufferPool = sync.Pool{
	New: func() any { return &Buffer{} },
}

// GetBuffer retrieves a buffer from the pool sized to width x height,
// reusing its cell slice's backing array when it is already large enough
// rather than reallocating. The returned buffer is always fully cleared.
func GetBuffer(width, height int) *Buffer {
	b := bufferPool.Get().(*Buffer)
	needed := width * height
	if cap(b.cells) < needed {
		b.cells = make([]Cell, needed)
	} else {
		b.cells = b.cells[:needed]
	}
	b.width = width
	b.height = height
	if b.overflow == nil {
		b.overflow = make(map[uint32]string)
	} else {
		for k := range b.overflow {
			delete(b.overflow, k)
		}
	}
	b.nextOverflowIndex = 0
	b.Clear()
	return b
}

// PutBuffer returns a buffer to the pool for reuse. The caller must not
// touch b after this call.
func PutBuffer(b *Buffer) {
	if b == nil {
		return
	}
	bufferPool.Put(b)
}
