// Package model holds the types shared by every layer of the ledger adapter.
//
// This package imports nothing internal. Storage, ledger, executor and
// adapter packages all build on it, so it stays free of behaviour beyond
// parsing and validation of its own values.
package model
