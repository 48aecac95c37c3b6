package main

import (
	"bytes"
	"errors"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/inplace"
	"github.com/rawbytedev/inplace/internal/common"
	"github.com/rawbytedev/inplace/pkg/alloc"
)

var errWorkload = errors.New("invalid workload")

// Workload describes a sequence of placements into one Dynamic storage.
//
//	threshold: 16
//	allocator: go
//	steps:
//	  - size: 8
//	  - size: 40
//	    align: 8
type Workload struct {
	Threshold int    `yaml:"threshold"` // inline bytes: 8, 16, 32, 64, 128 or 256
	Allocator string `yaml:"allocator"` // go, arrow or mmap
	Limit     int    `yaml:"limit"`     // allocator budget in bytes, 0 for none
	Align     int    `yaml:"align"`     // heap block alignment, 0 for the default
	Steps     []Step `yaml:"steps"`
}

type Step struct {
	Size  int `yaml:"size"`
	Align int `yaml:"align"`
}

type StepResult struct {
	Size     int  `json:"size"`
	Align    int  `json:"align"`
	Offset   int  `json:"offset"`
	Capacity int  `json:"capacity"`
	Spilled  bool `json:"spilled"`
	Allocs   int  `json:"allocs"`
}

type Report struct {
	Threshold int          `json:"threshold"`
	Allocator string       `json:"allocator"`
	Steps     []StepResult `json:"steps"`
	Final     alloc.Stats  `json:"final"`
}

// ParseWorkload decodes and validates a YAML workload, filling defaults.
func ParseWorkload(data []byte) (*Workload, error) {
	var w Workload
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&w); err != nil {
		return nil, xerrors.Errorf("workload: %w", err)
	}

	if w.Threshold == 0 {
		w.Threshold = 16
	}
	if w.Allocator == "" {
		w.Allocator = "go"
	}
	switch w.Threshold {
	case 8, 16, 32, 64, 128, 256:
	default:
		return nil, xerrors.Errorf("threshold %d: %w", w.Threshold, errWorkload)
	}
	switch w.Allocator {
	case "go", "arrow", "mmap":
	default:
		return nil, xerrors.Errorf("allocator %q: %w", w.Allocator, errWorkload)
	}
	if w.Limit < 0 {
		return nil, xerrors.Errorf("limit %d: %w", w.Limit, errWorkload)
	}
	if w.Align != 0 && !common.IsPowerOfTwo(w.Align) {
		return nil, xerrors.Errorf("align %d: %w", w.Align, errWorkload)
	}
	for i := range w.Steps {
		st := &w.Steps[i]
		if st.Align == 0 {
			st.Align = 1
		}
		if st.Size < 0 || !common.IsPowerOfTwo(st.Align) {
			return nil, xerrors.Errorf("step %d (size %d, align %d): %w", i, st.Size, st.Align, errWorkload)
		}
	}
	return &w, nil
}

func newAllocator(name string) inplace.Allocator {
	switch name {
	case "arrow":
		return alloc.NewArrowAllocator(nil)
	case "mmap":
		return alloc.NewMmapAllocator()
	default:
		return inplace.NewGoAllocator()
	}
}

// Run executes w against a fresh storage and releases it afterwards.
func Run(w *Workload) (*Report, error) {
	mem := newAllocator(w.Allocator)
	if w.Limit > 0 {
		mem = alloc.NewLimitedAllocator(mem, w.Limit)
	}
	checked := alloc.NewCheckedAllocator(mem)

	switch w.Threshold {
	case 8:
		return run[inplace.Block8](w, checked)
	case 16:
		return run[inplace.Block16](w, checked)
	case 32:
		return run[inplace.Block32](w, checked)
	case 64:
		return run[inplace.Block64](w, checked)
	case 128:
		return run[inplace.Block128](w, checked)
	default:
		return run[inplace.Block256](w, checked)
	}
}

func run[B any](w *Workload, checked *alloc.CheckedAllocator) (*Report, error) {
	store := inplace.NewDynamicWithOptions[B](inplace.Options{Allocator: checked, Align: w.Align})
	defer store.Release()

	rep := &Report{Threshold: store.Threshold(), Allocator: w.Allocator}
	for i, st := range w.Steps {
		before := checked.Allocs()
		b, err := inplace.Place(store, st.Size, st.Align)
		if err != nil {
			return nil, xerrors.Errorf("step %d: %w", i, err)
		}
		for j := range b {
			b[j] = byte(j)
		}
		rep.Steps = append(rep.Steps, StepResult{
			Size:     st.Size,
			Align:    st.Align,
			Offset:   int(common.AddressOf(b) - common.AddressOf(store.Bytes())),
			Capacity: store.Size(),
			Spilled:  store.Spilled(),
			Allocs:   checked.Allocs() - before,
		})
		clear(b)
	}
	store.Release()
	rep.Final = checked.Stats()
	return rep, nil
}
