package keyboard

import "fmt"

// TCA8418 register map (subset used by the driver).
const (
	RegCfg       byte = 0x01
	RegIntStat   byte = 0x02
	RegKeyLckEC  byte = 0x03
	RegKeyEventA byte = 0x04
	RegKPGPIO1   byte = 0x1D
	RegKPGPIO2   byte = 0x1E
	RegKPGPIO3   byte = 0x1F
)

// Configuration register bits.
const (
	CfgKeyEventIntEnable byte = 0x01
	CfgGPIIntEnable      byte = 0x02
	CfgKeyLockIntEnable  byte = 0x04
	CfgOverflowIntEnable byte = 0x08
	CfgIntConfig         byte = 0x10
	CfgOverflowMode      byte = 0x20
	CfgGPIEventMode      byte = 0x40
	CfgAutoIncrement     byte = 0x80
)

// Interrupt status bits.
const (
	IntStatKey      byte = 0x01
	IntStatGPI      byte = 0x02
	IntStatKeyLock  byte = 0x04
	IntStatOverflow byte = 0x08
	IntStatCAD      byte = 0x10

	intStatAll byte = 0x1F
)

// Matrix selection written at init: R0-R3 as rows, C0-C7 and C8-C9 plus
// R4-R7 as columns (the last four form columns 10-13).
const (
	kpRows        byte = 0x0F
	kpColsLow     byte = 0xFF
	kpColsHighExt byte = 0xFF

	// flushLimit bounds the boot-time drain of stale events
	flushLimit = 10
)

// Bus is byte-oriented register access to the keypad controller.
type Bus interface {
	ReadReg(reg byte) (byte, error)
	WriteReg(reg byte, value byte) error
}

// InterruptLine is the controller's active-low interrupt output, configured
// for falling-edge triggering with pull-up. The handler runs in interrupt
// context and must not block.
type InterruptLine interface {
	Attach(handler func()) error
	Detach()
}

// RegisterName returns the datasheet name of a register.
func RegisterName(reg byte) string {
	switch reg {
	case RegCfg:
		return "CFG"
	case RegIntStat:
		return "INT_STAT"
	case RegKeyLckEC:
		return "KEY_LCK_EC"
	case RegKeyEventA:
		return "KEY_EVENT_A"
	case RegKPGPIO1:
		return "KP_GPIO1"
	case RegKPGPIO2:
		return "KP_GPIO2"
	case RegKPGPIO3:
		return "KP_GPIO3"
	default:
		return fmt.Sprintf("REG_0x%02X", reg)
	}
}

// configureMatrix selects which pins form the key matrix.
func configureMatrix(bus Bus) error {
	writes := []struct {
		reg byte
		val byte
	}{
		{RegKPGPIO1, kpRows},
		{RegKPGPIO2, kpColsLow},
		{RegKPGPIO3, kpColsHighExt},
	}
	for _, w := range writes {
		if err := bus.WriteReg(w.reg, w.val); err != nil {
			return &InitError{Step: "configure matrix", Reg: w.reg, Err: err}
		}
	}
	return nil
}

// flushEvents discards events queued before the driver started.
func flushEvents(bus Bus) error {
	for i := 0; i < flushLimit; i++ {
		raw, err := bus.ReadReg(RegKeyEventA)
		if err != nil {
			return &InitError{Step: "flush events", Reg: RegKeyEventA, Err: err}
		}
		if raw == 0 {
			break
		}
	}
	if err := bus.WriteReg(RegIntStat, intStatAll); err != nil {
		return &InitError{Step: "flush events", Reg: RegIntStat, Err: err}
	}
	return nil
}

// enableInterrupts turns on key event interrupts.
func enableInterrupts(bus Bus) error {
	cfg := CfgKeyEventIntEnable | CfgOverflowMode | CfgIntConfig
	if err := bus.WriteReg(RegCfg, cfg); err != nil {
		return &InitError{Step: "enable interrupts", Reg: RegCfg, Err: err}
	}
	return nil
}
