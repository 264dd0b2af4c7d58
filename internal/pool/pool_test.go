package pool

import (
	"runtime"
	"sync"
	"testing"
)

func TestGetPut_ExactSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"1K", 1024},
		{"16K", 16384},
		{"64K", 65536},
		{"1M", 1048576},
		{"4M", 4194304},
		{"500", 500},
		{"3000", 3000},
		{"1080p", 1920 * 1088},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Get(tt.size)
			if len(b) != tt.size {
				t.Errorf("Get(%d): len = %d, want %d", tt.size, len(b), tt.size)
			}
			Put(b)

			s := GetInt16(tt.size)
			if len(s) != tt.size {
				t.Errorf("GetInt16(%d): len = %d, want %d", tt.size, len(s), tt.size)
			}
			PutInt16(s)
		})
	}
}

func TestGet_MinCapacity(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		minCap int
	}{
		{"bucket0_small", 100, Size1K},
		{"bucket0_exact", 1024, Size1K},
		{"bucket1_mid", 5000, Size16K},
		{"bucket2_exact", 65536, Size64K},
		{"bucket3_mid", 500000, Size1M},
		{"bucket4_exact", 4194304, Size4M},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := GetInt16(tt.size)
			if cap(s) < tt.minCap {
				t.Errorf("GetInt16(%d): cap = %d, want >= %d", tt.size, cap(s), tt.minCap)
			}
			PutInt16(s)
		})
	}
}

func TestGet_LargeSize(t *testing.T) {
	// Requests above the largest class allocate exactly what is asked.
	large := 2 * Size4M
	s := GetInt16(large)
	if len(s) != large || cap(s) < large {
		t.Errorf("GetInt16(%d): len = %d cap = %d", large, len(s), cap(s))
	}
	PutInt16(s)

	// A pooled slice smaller than the request must not be handed out.
	again := GetInt16(large + 1)
	if len(again) != large+1 {
		t.Errorf("GetInt16(%d): len = %d", large+1, len(again))
	}
	PutInt16(again)
}

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		wantBucket int
	}{
		{"1->bucket0", 1, 0},
		{"1024->bucket0", 1024, 0},
		{"1025->bucket1", 1025, 1},
		{"16384->bucket1", 16384, 1},
		{"16385->bucket2", 16385, 2},
		{"65537->bucket3", 65537, 3},
		{"1048576->bucket3", 1048576, 3},
		{"1048577->bucket4", 1048577, 4},
		{"8388608->bucket4", 8388608, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if idx := bucketIndex(tt.size); idx != tt.wantBucket {
				t.Errorf("bucketIndex(%d) = %d, want %d", tt.size, idx, tt.wantBucket)
			}
		})
	}
}

func TestPutIndex(t *testing.T) {
	tests := []struct {
		c    int
		want int
	}{
		{0, -1},
		{1023, -1},
		{1024, 0},
		{16383, 0},
		{16384, 1},
		{70000, 2},
		{1048576, 3},
		{9000000, 4},
	}
	for _, tt := range tests {
		if got := putIndex(tt.c); got != tt.want {
			t.Errorf("putIndex(%d) = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestPut_SmallSlice(t *testing.T) {
	Put(make([]byte, 100))
	PutInt16(make([]int16, 0, 10))
	Put(nil)
	PutInt16(nil)

	b := Get(Size1K)
	if len(b) != Size1K {
		t.Errorf("Get(%d) after small Put: len = %d", Size1K, len(b))
	}
	Put(b)
}

func TestGet_ZeroSize(t *testing.T) {
	if b := Get(0); len(b) != 0 {
		t.Errorf("Get(0): len = %d, want 0", len(b))
	}
	if s := GetInt16(0); len(s) != 0 {
		t.Errorf("GetInt16(0): len = %d, want 0", len(s))
	}
}

func TestReuse(t *testing.T) {
	// sync.Pool may drop entries on GC; this only checks that every cycle
	// hands out a correctly sized slice.
	const size = 4096
	s := GetInt16(size)
	s[0], s[size-1] = 7, 7
	PutInt16(s)
	runtime.GC()

	for i := 0; i < 10; i++ {
		buf := GetInt16(size)
		if len(buf) != size {
			t.Errorf("cycle %d: GetInt16(%d) len = %d", i, size, len(buf))
		}
		PutInt16(buf)
	}
}

func TestConcurrency(t *testing.T) {
	const goroutines = 32
	const iterations = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				for _, size := range []int{512, 2048, 20000, 100000} {
					s := GetInt16(size)
					if len(s) != size {
						t.Errorf("concurrent GetInt16(%d): len = %d", size, len(s))
						return
					}
					for j := range s {
						s[j] = int16(j)
					}
					PutInt16(s)
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkGetInt16(b *testing.B) {
	benchmarks := []struct {
		name string
		size int
	}{
		{"1K", 1024},
		{"64K", 65536},
		{"1080p", 1920 * 1088},
	}
	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				PutInt16(GetInt16(bm.size))
			}
		})
	}
}
