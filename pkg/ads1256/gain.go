package ads1256

import (
	"fmt"
	"math/bits"
	"strconv"
)

// Gain is the programmable gain amplifier setting.
type Gain uint8

const (
	Gain1  Gain = 1
	Gain2  Gain = 2
	Gain4  Gain = 4
	Gain8  Gain = 8
	Gain16 Gain = 16
	Gain32 Gain = 32
	Gain64 Gain = 64
)

// Gains lists every supported gain in ascending order.
var Gains = []Gain{Gain1, Gain2, Gain4, Gain8, Gain16, Gain32, Gain64}

// Valid reports whether g is a power of two between 1 and 64.
func (g Gain) Valid() bool {
	return g != 0 && g <= Gain64 && g&(g-1) == 0
}

// Code returns the ADCON PGA bits for g, which is log2(g).
func (g Gain) Code() (byte, error) {
	if !g.Valid() {
		return 0, fmt.Errorf("%w: gain must be one of 1, 2, 4, 8, 16, 32, 64, got %d", ErrInvalidArgument, g)
	}
	return byte(bits.Len8(uint8(g)) - 1), nil
}

func (g Gain) String() string {
	return "x" + strconv.Itoa(int(g))
}

// GainFromCode is the inverse of [Gain.Code]. Codes 6 and 7 both select 64.
func GainFromCode(code byte) Gain {
	code &= adconPGAMask
	if code > 6 {
		code = 6
	}
	return Gain(1 << code)
}
