package irq

import "github.com/lightap/Microkernel-OS-sub001/kernel/cpu"

const (
	picMasterCommand = 0x20
	picMasterData    = 0x21
	picSlaveCommand  = 0xA0
	picSlaveData     = 0xA1

	picInit       = 0x11
	pic8086Mode   = 0x01
	picEOI        = 0x20

	// IRQBase is the vector the first external interrupt line (IRQ0, the
	// PIT) is remapped to.
	IRQBase = 32
)

var (
	outBFn = cpu.OutB
	inBFn  = cpu.InB
)

// RemapPIC reprograms the master/slave 8259A pair so that IRQ0-7 arrive on
// vectors 32-39 and IRQ8-15 on 40-47, instead of the BIOS default of 8-15
// and 0x70-0x77 which collide with CPU exception vectors.
func RemapPIC() {
	masterMask := inBFn(picMasterData)
	slaveMask := inBFn(picSlaveData)

	outBFn(picMasterCommand, picInit)
	outBFn(picSlaveCommand, picInit)
	outBFn(picMasterData, IRQBase)
	outBFn(picSlaveData, IRQBase+8)
	outBFn(picMasterData, 4) // slave attached to IRQ2
	outBFn(picSlaveData, 2)
	outBFn(picMasterData, pic8086Mode)
	outBFn(picSlaveData, pic8086Mode)

	outBFn(picMasterData, masterMask)
	outBFn(picSlaveData, slaveMask)
}

// SetIRQMask updates the masked state of a single IRQ line (0-15).
func SetIRQMask(irq uint8, masked bool) {
	port := uint16(picMasterData)
	line := irq
	if irq >= 8 {
		port = picSlaveData
		line -= 8
	}
	cur := inBFn(port)
	if masked {
		cur |= 1 << line
	} else {
		cur &^= 1 << line
	}
	outBFn(port, cur)
}

// acknowledge sends the end-of-interrupt command for the given IRQ line,
// hitting the slave PIC first when the line is >= 8 since both controllers
// must be acknowledged for a cascaded interrupt.
func acknowledge(irq uint8) {
	if irq >= 8 {
		outBFn(picSlaveCommand, picEOI)
	}
	outBFn(picMasterCommand, picEOI)
}
