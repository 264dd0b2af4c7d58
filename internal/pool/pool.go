// Package pool provides bucketed sync.Pool instances for the per-call scratch
// storage of the deringing stage. Buffers are organized by size class (in
// elements) to minimize waste.
package pool

import "sync"

// Size classes for bucketed pools, in elements.
const (
	Size1K  = 1024
	Size16K = 16384
	Size64K = 65536
	Size1M  = 1048576
	Size4M  = 4194304
)

var sizes = [5]int{Size1K, Size16K, Size64K, Size1M, Size4M}

// bucketIndex returns the pool index serving a request of size elements.
func bucketIndex(size int) int {
	switch {
	case size <= Size1K:
		return 0
	case size <= Size16K:
		return 1
	case size <= Size64K:
		return 2
	case size <= Size1M:
		return 3
	default:
		return 4
	}
}

// putIndex returns the largest bucket whose class size fits in c, or -1 when
// c is below the smallest class. Every slice stored in bucket i (i < 4) thus
// has capacity >= sizes[i].
func putIndex(c int) int {
	for i := len(sizes) - 1; i >= 0; i-- {
		if c >= sizes[i] {
			return i
		}
	}
	return -1
}

// Buckets is a set of size-classed pools for slices of T.
type Buckets[T any] struct {
	pools [5]sync.Pool
}

// Get returns a slice of exactly size elements. Its contents are unspecified;
// callers must overwrite every element before reading it. The caller must call
// Put when done.
func (b *Buckets[T]) Get(size int) []T {
	idx := bucketIndex(size)
	if v := b.pools[idx].Get(); v != nil {
		s := *(v.(*[]T))
		if cap(s) >= size {
			return s[:size]
		}
	}
	c := sizes[idx]
	if c < size {
		c = size
	}
	return make([]T, size, c)
}

// Put returns a slice to the pool. Slices smaller than Size1K are not pooled.
func (b *Buckets[T]) Put(s []T) {
	idx := putIndex(cap(s))
	if idx < 0 {
		return
	}
	s = s[:cap(s)]
	b.pools[idx].Put(&s)
}

var (
	bytePool  Buckets[uint8]
	int16Pool Buckets[int16]
)

// Get returns a byte slice of the requested size from the shared pool.
func Get(size int) []byte { return bytePool.Get(size) }

// Put returns a byte slice obtained from Get.
func Put(b []byte) { bytePool.Put(b) }

// GetInt16 returns an int16 slice of the requested length from the shared pool.
func GetInt16(length int) []int16 { return int16Pool.Get(length) }

// PutInt16 returns an int16 slice obtained from GetInt16.
func PutInt16(s []int16) { int16Pool.Put(s) }
