package particle

import "sync"

// BufferPool recycles flat position-sized scratch arrays.
type BufferPool struct {
	pool sync.Pool
	size int
}

func NewBufferPool(n int) *BufferPool {
	size := 3 * n
	return &BufferPool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]float64, size)
			},
		},
	}
}

func (p *BufferPool) Get() []float64 {
	return p.pool.Get().([]float64)
}

func (p *BufferPool) Put(b []float64) {
	if len(b) == p.size {
		for i := range b {
			b[i] = 0
		}
		p.pool.Put(b)
	}
}

func (p *BufferPool) GetAndCopy(src []float64) []float64 {
	dst := p.Get()
	copy(dst, src)
	return dst
}
