package ads1256

import "fmt"

// Register is an ADS1256 register address, 0x00 through 0x0A.
type Register byte

func (r Register) validate() error {
	if r >= NumRegisters {
		return fmt.Errorf("%w: register address must be between 0x00 and 0x0A, got 0x%02X", ErrInvalidArgument, byte(r))
	}
	return nil
}

// LastReadRegister returns the value seen by the most recent read of reg.
func (adc *ADS1256) LastReadRegister(reg Register) byte {
	if reg.validate() != nil {
		return 0
	}
	return adc.regLR[reg]
}

// LastWrittenRegister returns the value of the most recent successful write
// to reg.
func (adc *ADS1256) LastWrittenRegister(reg Register) byte {
	if reg.validate() != nil {
		return 0
	}
	return adc.regLW[reg]
}

// Registers returns the last read value of every register.
func (adc *ADS1256) Registers() map[Register]byte {
	r := make(map[Register]byte, NumRegisters)
	for reg, val := range adc.regLR {
		r[Register(reg)] = val
	}
	return r
}

// WriteRegister writes a single register. Nothing is read back.
func (adc *ADS1256) WriteRegister(reg Register, value byte) error {
	if err := reg.validate(); err != nil {
		return err
	}

	f, out := getFrame(3)
	defer putFrame(f)

	// WREG: 0x50 | reg, then the number of registers minus one.
	out[0] = CMDWREG | byte(reg)
	out[1] = 0x00
	out[2] = value

	if err := adc.transact(func() error { return adc.write(out) }); err != nil {
		return fmt.Errorf("write %s: %w", reg, err)
	}
	adc.regLW[reg] = value
	return nil
}

// ReadRegister reads a single register.
func (adc *ADS1256) ReadRegister(reg Register) (byte, error) {
	if err := reg.validate(); err != nil {
		return 0, err
	}

	f, buf := getFrame(2)
	defer putFrame(f)

	err := adc.transact(func() error {
		// RREG: 0x10 | reg, then the number of registers minus one.
		buf[0] = CMDRREG | byte(reg)
		buf[1] = 0x00
		if err := adc.write(buf); err != nil {
			return err
		}
		adc.t6()
		buf = buf[:1]
		buf[0] = 0
		return adc.read(buf)
	})
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", reg, err)
	}

	adc.regLR[reg] = buf[0]
	return buf[0], nil
}

// ReadAllRegisters reads every register in address order, for debugging.
func (adc *ADS1256) ReadAllRegisters() (map[Register]byte, error) {
	for reg := Register(0); reg < NumRegisters; reg++ {
		if _, err := adc.ReadRegister(reg); err != nil {
			return nil, err
		}
	}
	return adc.Registers(), nil
}

// updateRegister does a read-modify-write of the bits in mask.
func (adc *ADS1256) updateRegister(reg Register, mask, bits byte) error {
	v, err := adc.ReadRegister(reg)
	if err != nil {
		return err
	}
	return adc.WriteRegister(reg, (v&^mask)|(bits&mask))
}
