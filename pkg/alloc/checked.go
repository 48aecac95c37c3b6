package alloc

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/xerrors"

	"github.com/rawbytedev/inplace"
	"github.com/rawbytedev/inplace/internal/common"
)

// CheckedAllocator wraps an allocator and records every live block with the
// caller that requested it. It counts calls so tests can assert exactly how
// often a storage reached for memory.
type CheckedAllocator struct {
	mem inplace.Allocator
	sz  int64

	allocs   atomic.Int64
	deallocs atomic.Int64
	failures atomic.Int64
	last     atomic.Uintptr

	live sync.Map // uintptr -> *dalloc
}

// NewCheckedAllocator wraps mem. A nil mem wraps a GoAllocator.
func NewCheckedAllocator(mem inplace.Allocator) *CheckedAllocator {
	if mem == nil {
		mem = inplace.NewGoAllocator()
	}
	return &CheckedAllocator{mem: mem}
}

func (a *CheckedAllocator) Allocate(size, align int) ([]byte, error) {
	out, err := a.mem.Allocate(size, align)
	if err != nil {
		a.failures.Add(1)
		return nil, err
	}
	a.allocs.Add(1)
	atomic.AddInt64(&a.sz, int64(size))
	if size == 0 {
		return out, nil
	}

	ptr := common.AddressOf(out)
	a.last.Store(ptr)
	info := &dalloc{sz: size}
	if pc, _, l, ok := runtime.Caller(allocFrames); ok {
		info.pc, info.line = pc, l
	}
	a.live.Store(ptr, info)
	return out, nil
}

// Deallocate panics if b was not handed out by a, or was already released.
func (a *CheckedAllocator) Deallocate(b []byte) {
	a.deallocs.Add(1)
	if len(b) == 0 {
		a.mem.Deallocate(b)
		return
	}

	ptr := common.AddressOf(b)
	v, ok := a.live.LoadAndDelete(ptr)
	if !ok {
		panic(xerrors.Errorf("alloc: block %#x: %w", ptr, ErrUnknownBlock))
	}
	atomic.AddInt64(&a.sz, -int64(v.(*dalloc).sz))
	a.mem.Deallocate(b)
}

// CurrentAlloc returns the number of bytes in live blocks.
func (a *CheckedAllocator) CurrentAlloc() int { return int(atomic.LoadInt64(&a.sz)) }

// Allocs returns the number of successful Allocate calls.
func (a *CheckedAllocator) Allocs() int { return int(a.allocs.Load()) }

// Deallocs returns the number of Deallocate calls.
func (a *CheckedAllocator) Deallocs() int { return int(a.deallocs.Load()) }

// Failures returns the number of Allocate calls that returned an error.
func (a *CheckedAllocator) Failures() int { return int(a.failures.Load()) }

// LastAddress returns the address of the most recent non-empty block.
func (a *CheckedAllocator) LastAddress() uintptr { return a.last.Load() }

// Live returns the number of blocks not yet deallocated.
func (a *CheckedAllocator) Live() int {
	n := 0
	a.live.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Stats is a snapshot of a CheckedAllocator's counters.
type Stats struct {
	Allocs   int `json:"allocs" yaml:"allocs"`
	Deallocs int `json:"deallocs" yaml:"deallocs"`
	Failures int `json:"failures" yaml:"failures"`
	Live     int `json:"live" yaml:"live"`
	Bytes    int `json:"bytes" yaml:"bytes"`
}

func (a *CheckedAllocator) Stats() Stats {
	return Stats{
		Allocs:   a.Allocs(),
		Deallocs: a.Deallocs(),
		Failures: a.Failures(),
		Live:     a.Live(),
		Bytes:    a.CurrentAlloc(),
	}
}

// allocations usually come from a storage's Reserve, called by Create. Skip
// those frames to report the code that asked for the value.
const defAllocFrames = 4

// INPLACE_CHECKED_ALLOC_FRAMES overrides how many frames up the caller of an
// allocation is recorded.
var allocFrames = defAllocFrames

func init() {
	if val, ok := os.LookupEnv("INPLACE_CHECKED_ALLOC_FRAMES"); ok {
		if f, err := strconv.Atoi(val); err == nil {
			allocFrames = f
		}
	}
}

type dalloc struct {
	pc   uintptr
	line int
	sz   int
}

type TestingT interface {
	Errorf(format string, args ...interface{})
	Helper()
}

// AssertSize checks that the live byte count equals sz. With sz == 0 every
// live block is reported as a leak along with the code that allocated it.
func (a *CheckedAllocator) AssertSize(t TestingT, sz int) {
	t.Helper()
	if sz != 0 {
		if got := a.CurrentAlloc(); got != sz {
			t.Errorf("invalid memory size exp=%d, got=%d", sz, got)
		}
		return
	}
	a.live.Range(func(_, value interface{}) bool {
		info := value.(*dalloc)
		name := "unknown"
		if f := runtime.FuncForPC(info.pc); f != nil {
			name = f.Name()
		}
		t.Errorf("LEAK of %d bytes FROM %s line %d\n", info.sz, name, info.line)
		return true
	})

	if got := a.CurrentAlloc(); got != 0 {
		t.Errorf("invalid memory size exp=0, got=%d", got)
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("allocs=%d deallocs=%d failures=%d live=%d bytes=%d",
		s.Allocs, s.Deallocs, s.Failures, s.Live, s.Bytes)
}

var _ inplace.Allocator = (*CheckedAllocator)(nil)
