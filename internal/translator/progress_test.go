package translator

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterConcurrentAdd(t *testing.T) {
	c := NewCounter(1000)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(10)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), c.Done())
	assert.Equal(t, int64(1000), c.Total())
}

func TestTeeSkipsNil(t *testing.T) {
	a, b := NewCounter(0), NewCounter(0)
	Tee{a, nil, b}.Add(7)
	assert.Equal(t, int64(7), a.Done())
	assert.Equal(t, int64(7), b.Done())
}

func TestProgressBarRenders(t *testing.T) {
	var buf bytes.Buffer
	pb := NewProgressBar(&buf)

	ok := pb.Track("index.md → zh", 1200)
	ok.Add(1200)
	pb.Done(ok, nil)

	failed := pb.Track("index.md → ja", 10)
	pb.Done(failed, errors.New("boom"))

	pb.Done(NewCounter(1), nil)
	pb.Stop()

	assert.Contains(t, buf.String(), "index.md → zh")
}
