package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfilerBasic(t *testing.T) {
	p := NewProfiler()
	p.Start(0)

	p.Record(0x100)
	p.Record(0x100)
	p.Record(0x102)

	p.Stop(30)

	assert.Equal(t, uint64(3), p.TotalInstr)
	assert.Equal(t, uint64(30), p.TotalCycles)
	assert.Equal(t, 2, p.UniqueAddresses())
	assert.Equal(t, uint64(2), p.PcHits[0x100])

	top := p.TopHits(1)
	assert.Len(t, top, 1)
	assert.Equal(t, uint16(0x100), top[0].pc)
}

func TestProfilerDisabledIsNoop(t *testing.T) {
	p := NewProfiler()
	p.Record(0x200)
	p.RecordCall(0x10, 0x20)
	p.RecordRet()

	assert.Equal(t, uint64(0), p.TotalInstr)
	assert.Equal(t, 0, p.UniqueAddresses())
}

func TestProfilerCallGraph(t *testing.T) {
	p := NewProfiler()
	p.Start(0)

	p.RecordCall(0x10, 0x100)
	p.RecordCall(0x10, 0x100)
	p.RecordCall(0x12, 0x200)
	p.RecordRet()

	calls := p.TopCalls(2)
	assert.Len(t, calls, 2)
	assert.Equal(t, uint16(0x10), calls[0].from)
	assert.Equal(t, uint16(0x100), calls[0].to)
	assert.Equal(t, uint64(2), calls[0].count)
}

func TestFlatProfileMergesNearbyHits(t *testing.T) {
	p := NewProfiler()
	p.Start(0)

	p.Record(0x10)
	p.Record(0x11)
	p.Record(0x13) // within the 2-word gap tolerance of 0x11
	p.Record(0x50) // far away: starts a new block

	blocks := p.FlatProfile()
	assert.Len(t, blocks, 2)
	assert.Equal(t, uint16(0x10), blocks[0].Start)
	assert.Equal(t, uint16(0x13), blocks[0].End)
	assert.Equal(t, uint16(0x50), blocks[1].Start)
}
