package ads1256_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunginnanet/ads1256/internal/fake"
	"github.com/yunginnanet/ads1256/pkg/ads1256"
)

func TestRegisterFrames(t *testing.T) {
	adc, chip := newTestADC(t)

	for reg := ads1256.Register(0); reg < ads1256.NumRegisters; reg++ {
		chip.ResetLog()
		require.NoError(t, adc.WriteRegister(reg, 0xA5))
		assert.Equal(t, [][]byte{{0x50 | byte(reg), 0x00, 0xA5}}, chip.Written(), "WREG %s", reg)
		assert.Equal(t, byte(0xA5), adc.LastWrittenRegister(reg))

		chip.ResetLog()
		chip.SetRegister(reg, byte(reg)+0x40)
		v, err := adc.ReadRegister(reg)
		require.NoError(t, err)
		assert.Equal(t, byte(reg)+0x40, v)
		assert.Equal(t, [][]byte{{0x10 | byte(reg), 0x00}}, chip.Written(), "RREG %s", reg)
		assert.Equal(t, v, adc.LastReadRegister(reg))
		requireFramedByCS(t, chip)
	}
}

func TestRegisterOutOfRange(t *testing.T) {
	adc, chip := newTestADC(t)

	for _, reg := range []ads1256.Register{0x0B, 0x0C, 0x0F, 0x10, 0x80, 0xFF} {
		err := adc.WriteRegister(reg, 0x01)
		assert.ErrorIs(t, err, ads1256.ErrInvalidArgument)
		_, err = adc.ReadRegister(reg)
		assert.ErrorIs(t, err, ads1256.ErrInvalidArgument)
		assert.Zero(t, adc.LastReadRegister(reg))
	}
	assert.Empty(t, chip.Events())
}

func TestWriteFaultReleasesCS(t *testing.T) {
	adc, chip := newTestADC(t)
	chip.WriteFault = func(p []byte) (int, error) {
		if len(p) == 3 {
			return 1, fake.ErrInjected
		}
		return len(p), nil
	}

	err := adc.WriteRegister(ads1256.RegDRATE, 0x82)
	assert.ErrorIs(t, err, fake.ErrInjected)
	assert.False(t, chip.CSAsserted())
	assert.Equal(t, byte(0xF0), chip.Register(ads1256.RegDRATE))
	assert.Zero(t, adc.LastWrittenRegister(ads1256.RegDRATE))

	// The aborted frame does not leak into the next command.
	chip.WriteFault = nil
	require.NoError(t, adc.WriteRegister(ads1256.RegDRATE, 0x82))
	assert.Equal(t, byte(0x82), chip.Register(ads1256.RegDRATE))
}

func TestReadFaultReleasesCS(t *testing.T) {
	adc, chip := newTestADC(t)
	chip.ReadFault = func(int) error { return fake.ErrInjected }

	_, err := adc.ReadRawSample()
	var te *ads1256.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "read", te.Op)
	assert.False(t, chip.CSAsserted())
}

func TestReadRawSample(t *testing.T) {
	adc, chip := newTestADC(t)
	chip.QueueSamples(0x7FFFFF, -0x800000, 0, -1, 0x123456)

	for _, want := range []int32{8388607, -8388608, 0, -1, 0x123456, 0x123456} {
		got, err := adc.ReadRawSample()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// RDATA, then three bytes read back.
	bus := chip.BusEvents()
	require.Len(t, bus, 12)
	assert.Equal(t, []byte{ads1256.CMDRDATA}, bus[0].Data)
	assert.Equal(t, []byte{0x7F, 0xFF, 0xFF}, bus[1].Data)
	requireFramedByCS(t, chip)
}

func TestReadRawSampleWaitsForDRDY(t *testing.T) {
	adc, chip := newTestADC(t)
	chip.QueueSamples(42)
	chip.HoldDRDY(10)

	got, err := adc.ReadRawSample()
	require.NoError(t, err)
	assert.Equal(t, int32(42), got)
	assert.GreaterOrEqual(t, chip.DRDYPolls(), 11)

	chip.SetDRDY(ads1256.High)
	chip.ResetLog()
	_, err = adc.ReadRawSample()
	assert.ErrorIs(t, err, ads1256.ErrTimeout)
	assert.Empty(t, chip.BusEvents())
}

func TestReadVoltage(t *testing.T) {
	for _, g := range ads1256.Gains {
		adc, chip := newTestADC(t)
		require.NoError(t, adc.SetGain(g))

		for _, code := range []int32{0x7FFFFF, -0x800000, 0x400000, 1, 0} {
			chip.QueueSamples(code)
			v, err := adc.ReadVoltage()
			require.NoError(t, err)
			assert.Equal(t, float64(code)*adc.VoltsPerCount(), v)
			assert.Equal(t, ads1256.CodeToVolts(code, 2.5, g), v)
		}
	}
}

func TestReadVoltageFullScale(t *testing.T) {
	adc, chip := newTestADC(t)
	chip.QueueSamples(0x7FFFFF)
	v, err := adc.ReadVoltage()
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v, 1e-12)

	require.NoError(t, adc.SetGain(ads1256.Gain64))
	chip.QueueSamples(0x7FFFFF)
	v, err = adc.ReadVoltage()
	require.NoError(t, err)
	assert.InDelta(t, 5.0/64, v, 1e-12)
}

func TestReadChannel(t *testing.T) {
	adc, chip := newTestADC(t)
	chip.QueueSamples(0x400000)

	v, err := adc.ReadChannel(ads1256.SingleEnded(ads1256.CH_AIN2))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, v, 1e-6)
	assert.Equal(t, byte(0x28), chip.Register(ads1256.RegMUX))

	// MUX write, SYNC pulse, then RDATA.
	var order []string
	for _, e := range chip.Events() {
		switch {
		case e.Op == fake.OpWrite:
			order = append(order, e.String())
		case e.Op == fake.OpSet && e.Pin == testPins.Sync:
			order = append(order, "sync "+e.Level.String())
		}
	}
	assert.Equal(t, []string{"write 51 00 28", "sync low", "sync high", "write 01"}, order)
}

func TestWaitUntilReady(t *testing.T) {
	t.Run("AlreadyLow", func(t *testing.T) {
		adc, chip := newTestADC(t)
		require.NoError(t, adc.WaitUntilReady())
		assert.Equal(t, 1, chip.DRDYPolls())
	})

	t.Run("Transition", func(t *testing.T) {
		adc, chip := newTestADC(t)
		adc.SetTimeout(time.Second)
		chip.SetDRDY(ads1256.High)
		go func() {
			time.Sleep(20 * time.Millisecond)
			chip.SetDRDY(ads1256.Low)
		}()
		start := time.Now()
		require.NoError(t, adc.WaitUntilReady())
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("Timeout", func(t *testing.T) {
		adc, chip := newTestADC(t)
		adc.SetTimeout(30 * time.Millisecond)
		adc.SetPollInterval(time.Millisecond)
		chip.SetDRDY(ads1256.High)

		start := time.Now()
		err := adc.WaitUntilReady()
		assert.ErrorIs(t, err, ads1256.ErrTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
		assert.Greater(t, chip.DRDYPolls(), 1)
	})

	t.Run("Context", func(t *testing.T) {
		adc, chip := newTestADC(t)
		adc.SetTimeout(time.Minute)
		chip.SetDRDY(ads1256.High)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := adc.WaitUntilReadyContext(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("LevelFault", func(t *testing.T) {
		adc, chip := newTestADC(t)
		chip.LevelFault = func(ads1256.Pin) error { return fake.ErrInjected }
		err := adc.WaitUntilReady()
		var te *ads1256.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "read DRDY", te.Op)
	})
}

func TestWaitUntilReadyEdge(t *testing.T) {
	chip := fake.NewEdge(testPins)
	cfg := testConfig()
	cfg.Timeout = time.Second
	adc, err := ads1256.NewADS1256(chip, chip, cfg)
	require.NoError(t, err)

	chip.SetDRDY(ads1256.High)
	go func() {
		time.Sleep(30 * time.Millisecond)
		chip.SetDRDY(ads1256.Low)
	}()
	require.NoError(t, adc.WaitUntilReady())
	assert.GreaterOrEqual(t, chip.Waits(), 1)
	// Edge waits replace busy polling.
	assert.Less(t, chip.DRDYPolls(), 20)

	t.Run("Timeout", func(t *testing.T) {
		adc.SetTimeout(25 * time.Millisecond)
		chip.SetDRDY(ads1256.High)
		start := time.Now()
		assert.ErrorIs(t, adc.WaitUntilReady(), ads1256.ErrTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
	})
}
