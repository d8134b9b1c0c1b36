// Package dict provides a substitution dictionary: a bidirectional mapping
// between comparable values and dense, non-negative integer ids.
//
// The first Encode of a value assigns the next id; every later Encode of an
// equal value returns the same id, and Decode of that id returns a value equal
// to the original. Entries are never evicted while the dictionary is alive.
//
// A Dictionary is safe for concurrent use. Concurrent first encounters of the
// same value agree on a single id.
//
// Release frees the backing structures; With scopes a dictionary to a
// function and releases it on return:
//
//	err := dict.With(func(d *dict.Dictionary[string]) error {
//	    id, err := d.Encode("NOUN")
//	    ...
//	})
package dict
