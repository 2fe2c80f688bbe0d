// Package canon derives stable content identities for operation inputs.
//
// Inputs are serialised with RFC 8785 canonical JSON (sorted keys by UTF-16
// code units, no HTML escaping, NFC-normalised strings, integers only) and
// hashed with SHA-256 under a domain prefix. Two argument tuples that differ
// only in key order or Unicode normal form map to the same identity.
package canon
