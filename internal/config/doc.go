// Package config loads the ledgerd process configuration.
//
// A configuration comes from a YAML file layered over Default and is then
// overridden by LEDGERD_* environment variables. The merged result is
// checked against an embedded CUE schema before anything is opened, so a
// bad value fails at startup with an *Error instead of mid-request.
package config
