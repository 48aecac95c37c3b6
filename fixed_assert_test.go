//go:build assert

package inplace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rawbytedev/inplace"
)

func TestFixedReserveContract(t *testing.T) {
	f := &inplace.Fixed[inplace.Block16]{}
	assert.NotPanics(t, func() { _, _ = f.Reserve(f.Size()) })
	assert.PanicsWithValue(t, "inplace: fixed reserve exceeds capacity", func() {
		_, _ = f.Reserve(f.Size() + 1)
	})
	assert.PanicsWithValue(t, "inplace: fixed reserve of negative size", func() {
		_, _ = f.Reserve(-1)
	})
}
