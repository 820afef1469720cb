// Package peripherals emulates the ATmega32u4 hardware peripherals needed to
// run Arduboy and Gamebuino games: the 8/16/10-bit timers, the SPI
// controller, ADC, PLL, EEPROM controller, and the W25Q128 external flash
// used by ArduboyFX. Each peripheral exposes Reset/Read/Write/Update/
// CheckInterrupt, dispatched by arduboy/system.System's bus router.
package peripherals

// Interrupt vector addresses, as word addresses into flash (NOT byte
// addresses — do not divide by 2 before jumping).
const (
	IntTimer1COMPA uint16 = 0x0022
	IntTimer1COMPB uint16 = 0x0024
	IntTimer1COMPC uint16 = 0x0026
	IntTimer1OVF   uint16 = 0x0028
	IntTimer0COMPA uint16 = 0x002A
	IntTimer0COMPB uint16 = 0x002C
	IntTimer0OVF   uint16 = 0x002E
	IntSPI         uint16 = 0x0030
	IntADC         uint16 = 0x003A
	IntTimer3COMPA uint16 = 0x0040
	IntTimer3COMPB uint16 = 0x0042
	IntTimer3COMPC uint16 = 0x0044
	IntTimer3OVF   uint16 = 0x0046
	IntTimer4COMPA uint16 = 0x0038
	IntTimer4COMPB uint16 = 0x003C
	IntTimer4COMPD uint16 = 0x003E
	IntTimer4OVF   uint16 = 0x0048
)

// ATmega328P interrupt vector addresses. Like the 32u4's table above, its
// vectors are two words apart, but the 328P numbers its interrupt sources
// differently, so these are a distinct set of addresses rather than a
// relabeling.
const (
	Int328pTimer2COMPA uint16 = 0x000E
	Int328pTimer2COMPB uint16 = 0x0010
	Int328pTimer2OVF   uint16 = 0x0012
	Int328pTimer1CAPT  uint16 = 0x0014
	Int328pTimer1COMPA uint16 = 0x0016
	Int328pTimer1COMPB uint16 = 0x0018
	Int328pTimer1OVF   uint16 = 0x001A
	Int328pTimer0COMPA uint16 = 0x001C
	Int328pTimer0COMPB uint16 = 0x001E
	Int328pTimer0OVF   uint16 = 0x0020
	Int328pSPI         uint16 = 0x0022
	Int328pUSARTRX     uint16 = 0x0024
	Int328pUSARTUDRE   uint16 = 0x0026
	Int328pUSARTTX     uint16 = 0x0028
	Int328pADC         uint16 = 0x002A
)
