package peripherals

// Timer8Addrs names the data-space addresses of one 8-bit timer's register
// set (TCCRnA/TCCRnB/OCRnA/OCRnB/TIMSKn/TIFRn/TCNTn). Timer/Counter0 is the
// only 8-bit timer on the 32u4; it's what the Arduino core's millis()/
// micros()/delay() are built on.
type Timer8Addrs struct {
	TIFR, TCCRA, TCCRB, OCRA, OCRB, TIMSK, TCNT uint16
}

// Timer8 emulates an 8-bit Timer/Counter in Normal, CTC, and Fast-PWM modes
// with the standard 1/8/64/256/1024 prescaler set. Updates are lazy: ticks
// accumulate and TCNT is only recomputed when read or explicitly updated,
// per the same lazy-timer pattern used by Timer16/Timer4.
type Timer8 struct {
	Addrs Timer8Addrs

	tick     uint64
	prescale uint32
	cs       uint8
	mode     uint8

	wgm0, wgm1, wgm2 bool
	ocrA, ocrB       uint8
	tcnt             uint8

	tov, ocfA, ocfB          uint32
	toie, ocieA, ocieB       bool

	intOV, intCompA, intCompB uint16

	DebugOverflowCount  uint32
	DebugInterruptCount uint32
}

// NewTimer8 constructs a Timer8 bound to the given register addresses and
// interrupt vectors, reset to power-on defaults. Timer8 backs both
// Timer/Counter0 (both chips) and Timer/Counter2 (328P only), so the
// vectors are parameterized rather than hardcoded like Timer0's own.
func NewTimer8(addrs Timer8Addrs, ov, compA, compB uint16) *Timer8 {
	return &Timer8{Addrs: addrs, intOV: ov, intCompA: compA, intCompB: compB}
}

// Reset returns the timer to power-on state without losing its address or
// vector binding.
func (t *Timer8) Reset() {
	addrs, ov, ca, cb := t.Addrs, t.intOV, t.intCompA, t.intCompB
	*t = Timer8{Addrs: addrs, intOV: ov, intCompA: ca, intCompB: cb}
}

func (t *Timer8) updatePrescale() {
	switch t.cs {
	case 0:
		t.prescale = 0
	case 1:
		t.prescale = 1
	case 2:
		t.prescale = 8
	case 3:
		t.prescale = 64
	case 4:
		t.prescale = 256
	case 5:
		t.prescale = 1024
	default:
		t.prescale = 1
	}
	t.mode = b2u8(t.wgm2)<<2 | b2u8(t.wgm1)<<1 | b2u8(t.wgm0)
}

// Write handles a write to one of this timer's registers. Returns true if
// addr belonged to this timer.
func (t *Timer8) Write(addr uint16, value uint8, data []byte) bool {
	switch addr {
	case t.Addrs.TIFR:
		if value&0x1 != 0 {
			t.tov = 0
		}
		if value&0x2 != 0 {
			t.ocfA = 0
		}
		if value&0x4 != 0 {
			t.ocfB = 0
		}
		return true
	case t.Addrs.TCCRA:
		t.wgm0 = value&0x1 != 0
		t.wgm1 = value&0x2 != 0
		t.updatePrescale()
		data[addr] = value
		return true
	case t.Addrs.TCCRB:
		t.wgm2 = value&0x8 != 0
		t.cs = value & 0x7
		t.updatePrescale()
		data[addr] = value
		return true
	case t.Addrs.OCRA:
		t.ocrA = value
		data[addr] = value
		return true
	case t.Addrs.OCRB:
		t.ocrB = value
		data[addr] = value
		return true
	case t.Addrs.TIMSK:
		t.toie = value&0x1 != 0
		t.ocieA = value&0x2 != 0
		t.ocieB = value&0x4 != 0
		data[addr] = value
		return true
	case t.Addrs.TCNT:
		data[addr] = value
		t.tcnt = value
		return true
	}
	return false
}

// Read handles a read from one of this timer's registers, bringing TCNT
// up to date first. ok is false if addr isn't one of this timer's registers.
func (t *Timer8) Read(addr uint16, tick uint64, data []byte) (value uint8, ok bool) {
	switch addr {
	case t.Addrs.TIFR:
		return minB(t.tov) | minB(t.ocfA)<<1 | minB(t.ocfB)<<2, true
	case t.Addrs.TCNT:
		t.Update(tick, data)
		return t.tcnt, true
	}
	return 0, false
}

// Update advances TCNT by however many prescaled ticks have elapsed since
// the last update, accumulating overflow/compare-match events as integer
// counts (not booleans) so bursty catch-up updates don't lose events.
func (t *Timer8) Update(tick uint64, data []byte) {
	if t.prescale == 0 {
		return
	}
	elapsed := tick - t.tick
	interval := uint32(elapsed / uint64(t.prescale))
	if interval == 0 {
		return
	}

	top := uint32(0xFF)
	ctc := t.mode == 2 || t.mode == 7
	if ctc && t.ocrA > 0 {
		top = uint32(t.ocrA)
	}

	oldCnt := uint32(t.tcnt)
	newCnt := oldCnt + interval

	if top > 0 {
		total := newCnt
		overflows := total / (top + 1)
		remainder := total % (top + 1)

		if overflows > 0 {
			t.DebugOverflowCount += overflows
			if ctc {
				t.ocfA = satAdd(t.ocfA, overflows)
			}
			if t.mode != 2 {
				t.tov = satAdd(t.tov, overflows)
			}
			if t.ocrB > 0 && remainder >= uint32(t.ocrB) && oldCnt < uint32(t.ocrB) {
				t.ocfB = satAdd(t.ocfB, 1)
			}
		} else {
			if t.ocrA > 0 && oldCnt < uint32(t.ocrA) && newCnt >= uint32(t.ocrA) {
				t.ocfA = satAdd(t.ocfA, 1)
			}
			if t.ocrB > 0 && oldCnt < uint32(t.ocrB) && newCnt >= uint32(t.ocrB) {
				t.ocfB = satAdd(t.ocfB, 1)
			}
		}
		t.tcnt = uint8(remainder)
	} else {
		t.tcnt = uint8(newCnt)
	}

	data[t.Addrs.TCNT] = t.tcnt
	t.tick += uint64(interval) * uint64(t.prescale)
}

// CheckInterrupt returns the vector address of the highest-priority pending
// interrupt (OVF, then COMPA, then COMPB) and consumes one pending event, or
// false if nothing is pending/enabled.
func (t *Timer8) CheckInterrupt() (vector uint16, ok bool) {
	if t.tov > 0 && t.toie {
		t.tov--
		t.DebugInterruptCount++
		return t.intOV, true
	}
	if t.ocfA > 0 && t.ocieA {
		t.ocfA--
		return t.intCompA, true
	}
	if t.ocfB > 0 && t.ocieB {
		t.ocfB--
		return t.intCompB, true
	}
	return 0, false
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func minB(v uint32) uint8 {
	if v > 1 {
		return 1
	}
	return uint8(v)
}

func satAdd(a uint32, b uint32) uint32 {
	sum := a + b
	if sum < a { // overflow
		return ^uint32(0)
	}
	return sum
}
