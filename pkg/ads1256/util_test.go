package ads1256

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert24To32(t *testing.T) {
	t.Run("PositiveValue", func(t *testing.T) {
		assert.Equal(t, int32(8388607), Convert24To32([]byte{0x7F, 0xFF, 0xFF}))
	})

	t.Run("NegativeValue", func(t *testing.T) {
		assert.Equal(t, int32(-8388608), Convert24To32([]byte{0x80, 0x00, 0x00}))
	})

	t.Run("MinusOne", func(t *testing.T) {
		assert.Equal(t, int32(-1), Convert24To32([]byte{0xFF, 0xFF, 0xFF}))
	})

	t.Run("ZeroValue", func(t *testing.T) {
		assert.Equal(t, int32(0), Convert24To32([]byte{0x00, 0x00, 0x00}))
	})

	t.Run("MidScale", func(t *testing.T) {
		assert.Equal(t, int32(0x123456), Convert24To32([]byte{0x12, 0x34, 0x56}))
	})
}

func TestCodeToVolts(t *testing.T) {
	t.Run("MaxPositiveCode", func(t *testing.T) {
		assert.InDelta(t, 5.0, CodeToVolts(MaxCode, 2.5, Gain1), 1e-12)
	})

	t.Run("MaxNegativeCode", func(t *testing.T) {
		assert.InDelta(t, -5.0, CodeToVolts(-8388608, 2.5, Gain1), 0.000001)
	})

	t.Run("ZeroCode", func(t *testing.T) {
		assert.Equal(t, 0.0, CodeToVolts(0, 2.5, Gain1))
	})

	t.Run("NonZeroCode", func(t *testing.T) {
		assert.InDelta(t, 2.5, CodeToVolts(4194304, 2.5, Gain1), 0.000001)
	})

	t.Run("Gain", func(t *testing.T) {
		for _, g := range Gains {
			assert.InDelta(t, 5.0/float64(g), CodeToVolts(MaxCode, 2.5, g), 1e-12, "gain %s", g)
		}
	})
}

func TestGainCode(t *testing.T) {
	for i, g := range Gains {
		code, err := g.Code()
		require.NoError(t, err)
		assert.Equal(t, byte(i), code)
		assert.Equal(t, g, GainFromCode(code))
	}
	assert.Equal(t, Gain64, GainFromCode(7))

	for _, g := range []Gain{0, 3, 6, 7, 100, 128} {
		_, err := g.Code()
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.False(t, g.Valid())
	}
	assert.Equal(t, "x16", Gain16.String())
}

func TestRegisterValidate(t *testing.T) {
	for r := Register(0); r < NumRegisters; r++ {
		assert.NoError(t, r.validate(), "register %s", r)
	}
	for _, r := range []Register{0x0B, 0x0F, 0x10, 0xFF} {
		assert.ErrorIs(t, r.validate(), ErrInvalidArgument)
	}
}

func TestFrames(t *testing.T) {
	f, b := getFrame(2)
	assert.Len(t, b, 2)
	b[0], b[1] = 0xAA, 0xBB
	putFrame(f)

	f, b = getFrame(3)
	defer putFrame(f)
	assert.Equal(t, []byte{0, 0, 0}, b)
}

func TestParseDataRate(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want DataRate
	}{
		{"1000", DataRate1000SPS},
		{"1000SPS", DataRate1000SPS},
		{"30000SPS", DataRate30000SPS},
		{"2.5", DataRate2p5SPS},
		{"2.5SPS", DataRate2p5SPS},
	} {
		got, err := ParseDataRate(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseDataRate("1234")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "500SPS", DataRate500SPS.String())
}
