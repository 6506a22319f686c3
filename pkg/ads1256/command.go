package ads1256

import "fmt"

var commandNames = map[byte]string{
	CMDWakeUp:   "WAKEUP",
	CMDRDATA:    "RDATA",
	CMDRDATAC:   "RDATAC",
	CMDSDATAC:   "SDATAC",
	CMDSELFCAL:  "SELFCAL",
	CMDSELFOCAL: "SELFOCAL",
	CMDSELFGCAL: "SELFGCAL",
	CMDSYSOCAL:  "SYSOCAL",
	CMDSYSGCAL:  "SYSGCAL",
	CMDSYNC:     "SYNC",
	CMDSTANDBY:  "STANDBY",
	CMDRESET:    "RESET",
}

func commandName(cmd byte) string {
	if s, ok := commandNames[cmd]; ok {
		return s
	}
	return fmt.Sprintf("command 0x%02X", cmd)
}

// sendCommand writes a single opcode inside its own chip-select window.
//
// Commands that end in a conversion or calibration cycle wait for DRDY after
// chip-select has been released.
func (adc *ADS1256) sendCommand(cmd byte) error {
	f, out := getFrame(1)
	out[0] = cmd
	err := adc.transact(func() error { return adc.write(out) })
	putFrame(f)
	if err != nil {
		return fmt.Errorf("%s: %w", commandName(cmd), err)
	}

	switch cmd {
	case CMDRESET, CMDSELFCAL, CMDSELFOCAL, CMDSELFGCAL, CMDSYSOCAL, CMDSYSGCAL:
		if err = adc.WaitUntilReady(); err != nil {
			return fmt.Errorf("%s: %w", commandName(cmd), err)
		}
	}
	return nil
}
