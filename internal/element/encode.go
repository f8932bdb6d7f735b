package element

import "math/rand/v2"

// AppendUint appends v to dst as exactly n big-endian bytes.
// Bits above the n-byte window are dropped, so 0x1FF in one byte becomes 0xFF.
// Widths beyond eight bytes are padded with leading zeros.
func AppendUint(dst []byte, v uint64, n int) []byte {
	for i := n - 1; i >= 0; i-- {
		if i >= 8 {
			dst = append(dst, 0)
			continue
		}
		dst = append(dst, byte(v>>(8*uint(i))))
	}
	return dst
}

// AppendFiller appends n pseudo-random placeholder bytes to dst.
func AppendFiller(dst []byte, n int, r *rand.Rand) []byte {
	for range n {
		dst = append(dst, byte(r.UintN(256)))
	}
	return dst
}
