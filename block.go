package inplace

// Ready-made inline blocks. Each is pointer-free and 8-byte aligned.
type (
	Block8   = [1]uint64
	Block16  = [2]uint64
	Block32  = [4]uint64
	Block64  = [8]uint64
	Block128 = [16]uint64
	Block256 = [32]uint64
)
