// Package mmap provides anonymous, off-heap memory mappings.
//
// Slot chunks backed by a Mapping live outside the Go heap, so millions of
// packed annotation slots add nothing to garbage collector scan work.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE
//   - Windows: VirtualAlloc with MEM_RESERVE|MEM_COMMIT
//
// # Thread Safety
//
// Close is idempotent and protected by an atomic flag. Callers must ensure no
// goroutine touches Bytes() after Close returns.
package mmap
