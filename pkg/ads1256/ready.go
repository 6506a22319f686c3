package ads1256

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds every wait for DRDY.
	DefaultTimeout = 2 * time.Second
	// DefaultPollInterval is the delay between two DRDY samples.
	DefaultPollInterval = time.Microsecond
)

// SetTimeout changes the DRDY deadline. Self calibration at low data rates
// can take longer than the default; raise it before [ADS1256.SelfCalibrate].
func (adc *ADS1256) SetTimeout(d time.Duration) {
	adc.timeout = d
}

// Timeout returns the DRDY deadline.
func (adc *ADS1256) Timeout() time.Duration {
	return adc.timeout
}

// SetPollInterval changes the delay between DRDY samples.
func (adc *ADS1256) SetPollInterval(d time.Duration) {
	adc.pollInterval = d
}

// WaitUntilReady blocks until DRDY reads low or the timeout elapses, in
// which case it returns [ErrTimeout].
//
// Every operation that depends on a finished conversion goes through here.
func (adc *ADS1256) WaitUntilReady() error {
	return adc.WaitUntilReadyContext(context.Background())
}

// WaitUntilReadyContext is [ADS1256.WaitUntilReady] that also gives up when
// ctx is done.
func (adc *ADS1256) WaitUntilReadyContext(ctx context.Context) error {
	deadline := time.Now().Add(adc.timeout)
	edges, _ := adc.dio.(EdgeWaiter)

	for {
		lvl, err := adc.dio.Level(adc.pins.DRDY)
		if err != nil {
			return transportErr("read DRDY", err)
		}
		if lvl == Low {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrTimeout
		}
		if err = ctx.Err(); err != nil {
			return err
		}

		if edges != nil {
			// DRDY is sampled again after every wait, so an edge missed
			// between the sample and the wait costs at most one slice.
			wait := remaining
			if adc.edgeSlice > 0 && wait > adc.edgeSlice {
				wait = adc.edgeSlice
			}
			if _, err = edges.WaitFalling(adc.pins.DRDY, wait); err != nil {
				return transportErr("wait DRDY edge", err)
			}
			continue
		}

		time.Sleep(adc.pollInterval)
	}
}
