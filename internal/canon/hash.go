package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainOperation prefixes operation identities. The version suffix leaves
// room for migrating the hashing scheme without colliding with old rows.
const DomainOperation = "ledgerd/operation/v1"

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OperationInputs returns the canonical inputs document for a method call:
// {"args": <args>, "method": <method>}. args must be a JSON-taggable value.
func OperationInputs(method string, args any) (string, error) {
	raw, err := FromStruct(args)
	if err != nil {
		return "", fmt.Errorf("operation inputs: %w", err)
	}
	generic, err := FromJSON(raw)
	if err != nil {
		return "", fmt.Errorf("operation inputs: %w", err)
	}
	doc, err := Marshal(map[string]any{
		"args":   generic,
		"method": method,
	})
	if err != nil {
		return "", fmt.Errorf("operation inputs: %w", err)
	}
	return string(doc), nil
}

// OperationIdentity hashes a canonical inputs document into the identity the
// operation store enforces uniqueness on.
func OperationIdentity(inputs string) string {
	return hashWithDomain(DomainOperation, []byte(inputs))
}
