package rbtree

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

const (
	blockRaw byte = iota
	blockLZ4
)

// CompressUInt32Slice compresses a slice of uint32-s with LZ4.
// Incompressible input is stored as is behind the same one byte header.
func CompressUInt32Slice(data []uint32) []byte {
	src := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(src[i*4:], v)
	}
	dst := make([]byte, 1+lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlockHC(src, dst[1:], lz4.Level9, nil, nil)
	if err != nil || n == 0 || n >= len(src) {
		finalDst := make([]byte, 1+len(src))
		finalDst[0] = blockRaw
		copy(finalDst[1:], src)
		return finalDst
	}
	dst[0] = blockLZ4
	finalDst := make([]byte, 1+n)
	copy(finalDst, dst[:1+n])
	return finalDst
}

// DecompressUInt32Slice decompresses a slice of uint32-s previously compressed with LZ4.
// `result` must be preallocated.
func DecompressUInt32Slice(data []byte, result []uint32) error {
	if len(data) == 0 {
		return errors.New("empty block")
	}
	raw := make([]byte, len(result)*4)
	switch data[0] {
	case blockRaw:
		if len(data)-1 != len(raw) {
			return errors.Errorf("raw block size mismatch: %d instead of %d", len(data)-1, len(raw))
		}
		copy(raw, data[1:])
	case blockLZ4:
		n, err := lz4.UncompressBlock(data[1:], raw)
		if err != nil {
			return errors.Wrap(err, "corrupted LZ4 block")
		}
		if n != len(raw) {
			return errors.Errorf("incomplete block: %d instead of %d", n, len(raw))
		}
	default:
		return errors.Errorf("unknown block type %d", data[0])
	}
	for i := range result {
		result[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return nil
}
