package geoip

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	n atomic.Int32
}

func (c *closeRecorder) Close() error {
	c.n.Add(1)
	return nil
}

func (c *closeRecorder) closed() bool {
	return c.n.Load() > 0
}

func TestRetire_DelaysClose(t *testing.T) {
	r := require.New(t)

	old := retireDelay
	retireDelay = 20 * time.Millisecond
	defer func() { retireDelay = old }()

	c := new(closeRecorder)
	retire(c)

	// The handle must survive the swap itself so a lookup holding it
	// can finish.
	r.False(c.closed())

	r.Eventually(c.closed, time.Second, 5*time.Millisecond)
	r.Equal(int32(1), c.n.Load())
}
