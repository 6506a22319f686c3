package ads1256

import (
	"context"
	"fmt"
)

// ReadRawSample waits for DRDY and reads one conversion with RDATA.
//
// In the default free running mode the sample may have been converted
// before the last multiplexer change; see [ADS1256.SetInputChannels].
func (adc *ADS1256) ReadRawSample() (int32, error) {
	if err := adc.WaitUntilReady(); err != nil {
		return 0, err
	}
	return adc.readDataByCommand()
}

// ReadVoltage reads one conversion and scales it with the gain in effect at
// the time of the call.
func (adc *ADS1256) ReadVoltage() (float64, error) {
	code, err := adc.ReadRawSample()
	if err != nil {
		return 0, err
	}
	return float64(code) * adc.scale, nil
}

// ReadChannel selects pair, restarts the conversion cycle with a SYNC pulse
// so the result belongs to pair, then reads it in volts.
func (adc *ADS1256) ReadChannel(pair ChannelPair) (float64, error) {
	code, err := adc.ReadChannelRaw(pair)
	if err != nil {
		return 0, err
	}
	return float64(code) * adc.scale, nil
}

// ReadChannelRaw is ReadChannel without the scaling.
func (adc *ADS1256) ReadChannelRaw(pair ChannelPair) (int32, error) {
	return adc.readChannelRawContext(context.Background(), pair)
}

// readDataByCommand performs the RDATA command to get a single 24-bit result from the device.
func (adc *ADS1256) readDataByCommand() (int32, error) {
	f, buf := getFrame(3)
	defer putFrame(f)

	err := adc.transact(func() error {
		cmd := buf[:1]
		cmd[0] = CMDRDATA
		if err := adc.write(cmd); err != nil {
			return err
		}
		adc.t6()
		cmd[0] = 0
		return adc.read(buf)
	})
	if err != nil {
		return 0, fmt.Errorf("RDATA: %w", err)
	}

	return Convert24To32(buf), nil
}
