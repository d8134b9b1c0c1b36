// Package conv provides width and layout arithmetic shared by the slot
// allocator and the value converters.
package conv
