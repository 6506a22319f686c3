package cdev

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-gpiocdev"

	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

type mockLine struct {
	mu     sync.Mutex
	value  int
	closed bool
	nopts  int
}

func (m *mockLine) Value() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, errors.New("line closed")
	}
	return m.value, nil
}

func (m *mockLine) SetValue(v int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("line closed")
	}
	m.value = v
	return nil
}

func (m *mockLine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type mockChip struct {
	requested map[int][]*mockLine
	fail      error
}

func (c *mockChip) request(chip string, offset int, options ...gpiocdev.LineReqOption) (line, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	m := &mockLine{nopts: len(options)}
	c.requested[offset] = append(c.requested[offset], m)
	return m, nil
}

func newMocked(opts ...Option) (*Lines, *mockChip) {
	mc := &mockChip{requested: make(map[int][]*mockLine)}
	l := New("gpiochip0", opts...)
	l.request = mc.request
	return l, mc
}

func TestLines(t *testing.T) {
	l, mc := newMocked()

	require.NoError(t, l.ConfigureOutput(8, ads1256.High))
	require.NoError(t, l.ConfigureOutput(27, ads1256.High))
	require.NoError(t, l.ConfigureInput(22))
	require.Len(t, mc.requested, 3)
	// AsOutput + consumer, AsInput + falling edge + handler + consumer.
	assert.Equal(t, 2, mc.requested[8][0].nopts)
	assert.Equal(t, 4, mc.requested[22][0].nopts)

	require.NoError(t, l.SetLevel(8, ads1256.Low))
	assert.Equal(t, 0, mc.requested[8][0].value)
	require.NoError(t, l.SetLevel(8, ads1256.High))
	assert.Equal(t, 1, mc.requested[8][0].value)

	mc.requested[22][0].value = 0
	lvl, err := l.Level(22)
	require.NoError(t, err)
	assert.Equal(t, ads1256.Low, lvl)
	mc.requested[22][0].value = 1
	lvl, err = l.Level(22)
	require.NoError(t, err)
	assert.Equal(t, ads1256.High, lvl)

	_, err = l.Level(5)
	assert.ErrorIs(t, err, ads1256.ErrInvalidArgument)
	assert.ErrorIs(t, l.SetLevel(5, ads1256.Low), ads1256.ErrInvalidArgument)

	// Configuring a pin again releases the earlier request.
	require.NoError(t, l.ConfigureInput(8))
	require.Len(t, mc.requested[8], 2)
	assert.True(t, mc.requested[8][0].closed)

	require.NoError(t, l.Close())
	for _, lines := range mc.requested {
		for _, m := range lines {
			assert.True(t, m.closed)
		}
	}
	assert.ErrorIs(t, l.SetLevel(27, ads1256.Low), ErrClosed)
	assert.ErrorIs(t, l.ConfigureInput(22), ErrClosed)
	_, err = l.WaitFalling(22, time.Millisecond)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, l.Close())
}

func TestRequestFailure(t *testing.T) {
	l, mc := newMocked()
	mc.fail = errors.New("device or resource busy")
	err := l.ConfigureOutput(8, ads1256.High)
	assert.ErrorContains(t, err, "gpiochip0:8")
	assert.ErrorIs(t, err, mc.fail)
}

func TestWaitFalling(t *testing.T) {
	l, _ := newMocked()
	require.NoError(t, l.ConfigureInput(22))

	ok, err := l.WaitFalling(22, 5*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	go func() {
		time.Sleep(5 * time.Millisecond)
		l.mu.Lock()
		ch := l.falling[22]
		l.mu.Unlock()
		ch <- struct{}{}
	}()
	ok, err = l.WaitFalling(22, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("WithoutEdges", func(t *testing.T) {
		l, mc := newMocked(WithoutEdges(), WithConsumer("adc"))
		require.NoError(t, l.ConfigureInput(22))
		assert.Equal(t, 2, mc.requested[22][0].nopts)

		start := time.Now()
		ok, err := l.WaitFalling(22, 5*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	})
}

// TestGPIOChip requests real lines, e.g. on a gpio-sim or gpio-mockup chip:
// TEST_GPIOCHIP=gpiochip1. Offsets 0 and 1 are used.
func TestGPIOChip(t *testing.T) {
	chip := os.Getenv("TEST_GPIOCHIP")
	if chip == "" {
		t.Skip("set 'TEST_GPIOCHIP' in environment to run this test")
	}
	l := New(chip)
	defer func() { assert.NoError(t, l.Close()) }()

	require.NoError(t, l.ConfigureOutput(0, ads1256.High))
	require.NoError(t, l.SetLevel(0, ads1256.Low))
	require.NoError(t, l.ConfigureInput(1))
	_, err := l.Level(1)
	require.NoError(t, err)
}
