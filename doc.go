// Package annopack stores typed annotations for large numbers of objects in
// packed, fixed-width byte slots.
//
// A Manager binds each registered owner to one slot and each annotation key
// to a region of every slot. Numeric keys hold their value directly, boolean
// keys take a byte or, with bit packing, a single bit, and text or reference
// keys hold a small surrogate id assigned by a substitution dictionary.
//
// # Quick Start
//
//	type Token struct{ Text string }
//
//	s := schema.Schema{
//	    {Key: "score", Type: schema.TypeInteger, NoEntry: -1},
//	    {Key: "pos", Type: schema.TypeText, Width: 1},
//	    {Key: "stop", Type: schema.TypeBoolean},
//	}
//	m, _ := annopack.New[Token](s, annopack.WithBitPacking(true))
//	defer m.Close()
//
//	tok := &Token{Text: "the"}
//	_ = m.Register(tok)
//	score, _ := m.GetInt(tok, "score") // -1
//	_ = m.SetText(tok, "pos", "DET")
//
// # No-entry values
//
// Every key declares a no-entry value, returned for owners that never wrote
// the key. Slots store each value relative to its key's no-entry value, so a
// zeroed region always reads as no-entry: new owners, newly added keys and
// cleared regions need no initialization. A cleared value cannot be told
// apart from one never written.
//
// Reading an unregistered owner is not an error; it yields the no-entry
// value of the key.
//
// # Owners
//
// Owners are compared by pointer. With WithWeakOwners the manager does not
// keep owners alive: once an owner is garbage collected its slot is recycled
// by the next writer call or by Expunge. Owner types should not be
// zero-sized, since distinct zero-sized values may share an address.
//
// # Dynamic schemas
//
// With WithDynamicSchema, RegisterHandles and UnregisterHandles change the
// key set of a live manager. New keys reuse released regions and spare bits
// first and widen every slot otherwise.
//
// # Concurrency
//
// Without WithLocking a Manager allows one writer at a time and concurrent
// readers only while no writer runs. WithLocking makes every method safe for
// concurrent use. Substitution dictionaries are always safe for concurrent
// use.
package annopack
