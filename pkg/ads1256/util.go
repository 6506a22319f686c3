package ads1256

// MaxCode is the largest positive 24-bit sample, 2^23 - 1.
const MaxCode = 0x7FFFFF

// Convert24To32 interprets a 3-byte, 24-bit signed value
// in two's complement form, MSB first, as a 32-bit int.
func Convert24To32(data []byte) int32 {
	var u32 uint32
	u32 |= uint32(data[0]) << 16
	u32 |= uint32(data[1]) << 8
	u32 |= uint32(data[2])

	// sign extension
	if (u32 & 0x800000) != 0 {
		u32 |= 0xFF000000
	}
	return int32(u32)
}

// ScaleFactor returns volts per count for the given reference and gain.
// The full-scale input range is ±2*vRef/gain, mapped onto ±(2^23 - 1).
func ScaleFactor(vRef float64, gain Gain) float64 {
	return vRef * 2.0 / (float64(gain) * MaxCode)
}

// CodeToVolts converts the signed 24-bit code to a voltage.
func CodeToVolts(code int32, vRef float64, gain Gain) float64 {
	return float64(code) * ScaleFactor(vRef, gain)
}
