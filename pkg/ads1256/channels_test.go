package ads1256_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunginnanet/ads1256/internal/fake"
	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

func TestChannelPair(t *testing.T) {
	assert.Equal(t, byte(0x08), ads1256.SingleEnded(ads1256.CH_AIN0).Mux())
	assert.Equal(t, byte(0x78), ads1256.SingleEnded(ads1256.CH_AIN7).Mux())
	assert.Equal(t, byte(0x01), ads1256.Differential(ads1256.CH_AIN0, ads1256.CH_AIN1).Mux())
	assert.Equal(t, byte(0x80), ads1256.Differential(ads1256.CH_AINCOM, ads1256.CH_AIN0).Mux())
	assert.Equal(t, "AIN3-AINCOM", ads1256.SingleEnded(ads1256.CH_AIN3).String())
	assert.Equal(t, ads1256.PosAIN5|ads1256.NegAIN4, int(ads1256.Differential(ads1256.CH_AIN5, ads1256.CH_AIN4).Mux()))
}

type sample struct {
	pair  ads1256.ChannelPair
	code  int32
	volts float64
}

func TestScanChannels(t *testing.T) {
	adc, chip := newTestADC(t)
	chip.QueueSamples(100, 200, 300, 400)

	var (
		mu  sync.Mutex
		got []sample
	)
	pairs := []ads1256.ChannelPair{
		ads1256.SingleEnded(ads1256.CH_AIN0),
		ads1256.Differential(ads1256.CH_AIN2, ads1256.CH_AIN3),
	}
	scan, err := adc.ScanChannels(context.Background(), time.Millisecond, func(p ads1256.ChannelPair, code int32, volts float64) {
		mu.Lock()
		got = append(got, sample{p, code, volts})
		mu.Unlock()
	}, pairs...)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 4
	}, time.Second, time.Millisecond)

	scan.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, scan.Wait(ctx))
	assert.True(t, scan.IsDone())

	mu.Lock()
	defer mu.Unlock()
	for i, s := range got[:4] {
		assert.Equal(t, pairs[i%2], s.pair)
		assert.Equal(t, int32(100*(i+1)), s.code)
		assert.Equal(t, float64(s.code)*adc.VoltsPerCount(), s.volts)
	}
	assert.False(t, chip.CSAsserted())
}

func TestScanChannelsErrors(t *testing.T) {
	adc, chip := newTestADC(t)
	chip.ReadFault = func(int) error { return fake.ErrInjected }

	scan, err := adc.ScanChannels(context.Background(), 0, func(ads1256.ChannelPair, int32, float64) {
		t.Error("callback called on a failed read")
	}, ads1256.SingleEnded(ads1256.CH_AIN1))
	require.NoError(t, err)

	// The scan gives up on its own after repeated failures.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = scan.Wait(ctx)
	assert.ErrorIs(t, err, fake.ErrInjected)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, scan.IsDone())
}

func TestScanChannelsInvalid(t *testing.T) {
	adc, chip := newTestADC(t)
	cb := func(ads1256.ChannelPair, int32, float64) {}

	_, err := adc.ScanChannels(context.Background(), time.Millisecond, cb)
	assert.ErrorIs(t, err, ads1256.ErrInvalidArgument)

	_, err = adc.ScanChannels(context.Background(), time.Millisecond, nil, ads1256.SingleEnded(ads1256.CH_AIN0))
	assert.ErrorIs(t, err, ads1256.ErrInvalidArgument)

	_, err = adc.ScanChannels(context.Background(), time.Millisecond, cb, ads1256.ChannelPair{Pos: -1, Neg: ads1256.CH_AINCOM})
	assert.ErrorIs(t, err, ads1256.ErrInvalidArgument)

	assert.Empty(t, chip.Events())
}

func TestScanChannelsContext(t *testing.T) {
	adc, chip := newTestADC(t)
	chip.SetDRDY(ads1256.High)
	adc.SetTimeout(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	scan, err := adc.ScanChannels(ctx, 0, func(ads1256.ChannelPair, int32, float64) {}, ads1256.SingleEnded(ads1256.CH_AIN4))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	cancel()

	wctx, wcancel := context.WithTimeout(context.Background(), time.Second)
	defer wcancel()
	// A wait cut short by cancellation is not a scan error.
	assert.NoError(t, scan.Wait(wctx))
}
