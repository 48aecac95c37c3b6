package alloc

import "github.com/rawbytedev/inplace/internal/common"

func addressOf(b []byte) uintptr { return common.AddressOf(b) }
