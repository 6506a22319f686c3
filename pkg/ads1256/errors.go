package ads1256

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned before any bus activity when a register
	// address or gain is out of range.
	ErrInvalidArgument = errors.New("ads1256: invalid argument")

	// ErrTimeout is returned when DRDY did not go low before the deadline.
	ErrTimeout = errors.New("ads1256: DRDY timeout")

	// ErrUnexpectedDevice is matched by [*UnexpectedDeviceError].
	ErrUnexpectedDevice = errors.New("ads1256: unexpected device")
)

// TransportError wraps a failure reported by the [Bus] or [DigitalIO].
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ads1256: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// UnexpectedDeviceError reports a chip ID other than [ChipID]. It means
// wrong wiring or the wrong chip and is never retried by the driver.
type UnexpectedDeviceError struct {
	Expected int
	Actual   int
}

func (e *UnexpectedDeviceError) Error() string {
	return fmt.Sprintf("ads1256: wrong chip ID: expected %d, got %d", e.Expected, e.Actual)
}

func (e *UnexpectedDeviceError) Is(target error) bool {
	return target == ErrUnexpectedDevice
}
