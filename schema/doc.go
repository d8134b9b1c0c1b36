// Package schema describes the annotation keys a store is built from.
//
// A Declaration names one key, its logical value Type, an optional no-entry
// value returned for owners that never wrote the key, and an optional
// surrogate width for dictionary-substituted types. A Schema is an ordered
// list of declarations; it is plain input data and carries no behavior
// beyond validation.
//
// Schemas can be built in code or parsed from YAML:
//
//	annotations:
//	  - key: score
//	    type: integer
//	    no_entry: -1
//	  - key: lemma
//	    type: text
//	    width: 2
package schema
