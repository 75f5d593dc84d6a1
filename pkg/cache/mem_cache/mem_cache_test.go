package mem_cache

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_memCache(t *testing.T) {
	r := require.New(t)
	c := NewMemCache(1024, 0)
	defer c.Close()

	for i := 0; i < 128; i++ {
		key := strconv.Itoa(i)
		c.Store(key, []byte{byte(i)}, time.Minute)
		v, ok := c.Get(key)
		r.True(ok)
		r.Equal(byte(i), v[0])
	}

	for i := 0; i < 1024*4; i++ {
		c.Store(strconv.Itoa(i), []byte{}, time.Minute)
	}
	r.LessOrEqual(c.Len(), 2048, "cache overflow")
}

func Test_memCache_expiry(t *testing.T) {
	r := require.New(t)
	c := NewMemCache(1024, 0)
	defer c.Close()

	c.Store("k", []byte("v"), time.Millisecond*20)
	_, ok := c.Get("k")
	r.True(ok)

	time.Sleep(time.Millisecond * 40)
	_, ok = c.Get("k")
	r.False(ok, "expired entry must miss")
}

func Test_memCache_owns_buffer(t *testing.T) {
	r := require.New(t)
	c := NewMemCache(1024, 0)
	defer c.Close()

	b := []byte("value")
	c.Store("k", b, time.Minute)
	b[0] = 'X'

	v, ok := c.Get("k")
	r.True(ok)
	r.Equal([]byte("value"), v)
}

func Test_memCache_remove(t *testing.T) {
	r := require.New(t)
	c := NewMemCache(1024, 0)
	defer c.Close()

	c.Store("k", []byte("v"), time.Minute)
	c.Remove("k")
	_, ok := c.Get("k")
	r.False(ok)
}

func Test_memCache_cleaner(t *testing.T) {
	c := NewMemCache(1024, time.Millisecond*10)
	defer c.Close()
	for i := 0; i < 64; i++ {
		c.Store(strconv.Itoa(i), []byte{}, time.Millisecond)
	}

	time.Sleep(time.Millisecond * 100)
	if c.Len() != 0 {
		t.Fatal()
	}
}

func Test_memCache_race(t *testing.T) {
	c := NewMemCache(1024, -1)
	defer c.Close()

	wg := sync.WaitGroup{}
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 256; i++ {
				key := strconv.Itoa(i)
				c.Store(key, []byte{}, time.Minute)
				_, _ = c.Get(key)
				c.lru.Clean(func(_ string, _ *elem) bool { return false })
			}
		}()
	}
	wg.Wait()
}
