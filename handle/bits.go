package handle

// Bit packing: up to eight boolean handles share one byte, each owning the
// bit selected by mask = 1 << bit, bit in [0, 7]. Writes are read-modify-write
// on the shared byte and leave the other seven bits untouched.

func bitMask(bit int) byte {
	return 1 << (uint(bit) & 7)
}

// bitGet extracts (b >> bit) & 1.
func bitGet(b byte, bit int) bool {
	return b&bitMask(bit) != 0
}

// bitSet sets or clears one bit of *b.
func bitSet(b *byte, bit int, v bool) {
	if v {
		*b |= bitMask(bit)
	} else {
		*b &^= bitMask(bit)
	}
}
