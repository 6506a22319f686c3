package ads1256

import "fmt"

// Constants from the datasheet

// Register addresses
const (
	// RegSTATUS is the STATUS register. Bits 7:4 hold the chip ID.
	RegSTATUS Register = 0x00
	// RegMUX is the input multiplexer control register.
	RegMUX Register = 0x01
	// RegADCON is the A/D control register. Bits 2:0 hold the PGA setting.
	RegADCON Register = 0x02
	// RegDRATE is the data rate register.
	RegDRATE Register = 0x03
	// RegIO is the GPIO control register.
	RegIO   Register = 0x04
	RegOFC0 Register = 0x05
	RegOFC1 Register = 0x06
	RegOFC2 Register = 0x07
	RegFSC0 Register = 0x08
	RegFSC1 Register = 0x09
	RegFSC2 Register = 0x0A

	// NumRegisters is the total number of registers (0x00 through 0x0A).
	NumRegisters = 0x0B
)

func (r Register) String() string {
	switch r {
	case RegSTATUS:
		return "STATUS"
	case RegMUX:
		return "MUX"
	case RegADCON:
		return "ADCON"
	case RegDRATE:
		return "DRATE"
	case RegIO:
		return "IO"
	case RegOFC0:
		return "OFC0"
	case RegOFC1:
		return "OFC1"
	case RegOFC2:
		return "OFC2"
	case RegFSC0:
		return "FSC0"
	case RegFSC1:
		return "FSC1"
	case RegFSC2:
		return "FSC2"
	default:
		return fmt.Sprintf("Register(0x%02X)", byte(r))
	}
}

// Command opcodes
const (
	CMDWakeUp   = 0x00 // also 0xFF
	CMDRDATA    = 0x01
	CMDRDATAC   = 0x03
	CMDSDATAC   = 0x0F
	CMDRREG     = 0x10 // 0x10 | (reg & 0x0F)
	CMDWREG     = 0x50 // 0x50 | (reg & 0x0F)
	CMDSELFCAL  = 0xF0
	CMDSELFOCAL = 0xF1
	CMDSELFGCAL = 0xF2
	CMDSYSOCAL  = 0xF3
	CMDSYSGCAL  = 0xF4
	CMDSYNC     = 0xFC
	CMDSTANDBY  = 0xFD
	CMDRESET    = 0xFE
)

// ChipID is the value of STATUS[7:4] on a genuine ADS1256.
const ChipID = 3

// DataRate is a DRATE register code. fCLKIN is assumed to be 7.68 MHz.
type DataRate byte

const (
	DataRate30000SPS DataRate = 0xF0
	DataRate15000SPS DataRate = 0xE0
	DataRate7500SPS  DataRate = 0xD0
	DataRate3750SPS  DataRate = 0xC0
	DataRate2000SPS  DataRate = 0xB0
	DataRate1000SPS  DataRate = 0xA1
	DataRate500SPS   DataRate = 0x92
	DataRate100SPS   DataRate = 0x82
	DataRate60SPS    DataRate = 0x72
	DataRate50SPS    DataRate = 0x63
	DataRate30SPS    DataRate = 0x53
	DataRate25SPS    DataRate = 0x43
	DataRate15SPS    DataRate = 0x33
	DataRate10SPS    DataRate = 0x23
	DataRate5SPS     DataRate = 0x13
	DataRate2p5SPS   DataRate = 0x03
)

var dataRateNames = map[DataRate]string{
	DataRate30000SPS: "30000SPS",
	DataRate15000SPS: "15000SPS",
	DataRate7500SPS:  "7500SPS",
	DataRate3750SPS:  "3750SPS",
	DataRate2000SPS:  "2000SPS",
	DataRate1000SPS:  "1000SPS",
	DataRate500SPS:   "500SPS",
	DataRate100SPS:   "100SPS",
	DataRate60SPS:    "60SPS",
	DataRate50SPS:    "50SPS",
	DataRate30SPS:    "30SPS",
	DataRate25SPS:    "25SPS",
	DataRate15SPS:    "15SPS",
	DataRate10SPS:    "10SPS",
	DataRate5SPS:     "5SPS",
	DataRate2p5SPS:   "2.5SPS",
}

func (r DataRate) String() string {
	if s, ok := dataRateNames[r]; ok {
		return s
	}
	return fmt.Sprintf("DataRate(0x%02X)", byte(r))
}

// ParseDataRate accepts the names printed by [DataRate.String], with or
// without the "SPS" suffix.
func ParseDataRate(s string) (DataRate, error) {
	for r, name := range dataRateNames {
		if s == name || s+"SPS" == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown data rate %q", ErrInvalidArgument, s)
}

// Bits for the STATUS register
const (
	StatusORDERbit = 0x08 // (bit3)
	StatusACALbit  = 0x04 // (bit2)
	StatusBUFENbit = 0x02 // (bit1)
	StatusDRDYbit  = 0x01 // (bit0, read-only)
)

// Bits for the ADCON register
const (
	// AdconCLKOff disables the CLKOUT pin.
	AdconCLKOff  = 0x00
	AdconCLKDiv1 = 0x20
	AdconCLKDiv2 = 0x40
	AdconCLKDiv4 = 0x60

	// AdconSDCSOff disables the sensor detect current sources.
	AdconSDCSOff   = 0x00
	AdconSDCS0p5uA = 0x08
	AdconSDCS2uA   = 0x10
	AdconSDCS10uA  = 0x18

	adconPGAMask = 0x07
)

// Multiplexer codes. A MUX register value is one positive code OR one
// negative code.
const (
	PosAIN0   = 0x00
	PosAIN1   = 0x10
	PosAIN2   = 0x20
	PosAIN3   = 0x30
	PosAIN4   = 0x40
	PosAIN5   = 0x50
	PosAIN6   = 0x60
	PosAIN7   = 0x70
	PosAINCOM = 0x80

	NegAIN0   = 0x00
	NegAIN1   = 0x01
	NegAIN2   = 0x02
	NegAIN3   = 0x03
	NegAIN4   = 0x04
	NegAIN5   = 0x05
	NegAIN6   = 0x06
	NegAIN7   = 0x07
	NegAINCOM = 0x08
)
