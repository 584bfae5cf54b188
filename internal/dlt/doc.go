// Package dlt owns the diagnostic-log wire contract and header primitives.
//
// Ownership boundary:
// - standard/extended header codec
// - identifier and level types shared by all codecs
// - log-message framing entry point
package dlt
