package lights

// Command bytes for the tower light lamps and buzzer
const (
	cmdRedOn  byte = 0x11
	cmdRedOff byte = 0x21

	cmdYellowOn  byte = 0x12
	cmdYellowOff byte = 0x22

	cmdGreenOn  byte = 0x14
	cmdGreenOff byte = 0x24

	cmdBuzzerOn  byte = 0x18
	cmdBuzzerOff byte = 0x28
)

// towerCommand returns the byte that switches pin on or off.
func towerCommand(pin Pin, on bool) (byte, bool) {
	switch pin {
	case PinRed:
		return pick(on, cmdRedOn, cmdRedOff), true
	case PinYellow:
		return pick(on, cmdYellowOn, cmdYellowOff), true
	case PinGreen:
		return pick(on, cmdGreenOn, cmdGreenOff), true
	case PinBuzzer:
		return pick(on, cmdBuzzerOn, cmdBuzzerOff), true
	default:
		return 0, false
	}
}

func pick(on bool, onCmd, offCmd byte) byte {
	if on {
		return onCmd
	}
	return offCmd
}

// clearCommands turns everything off, buzzer first.
var clearCommands = []byte{
	cmdBuzzerOff,
	cmdRedOff,
	cmdYellowOff,
	cmdGreenOff,
}
