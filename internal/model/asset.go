package model

import "fmt"

// AssetType discriminates the kinds of asset the ledger can hold.
type AssetType string

const (
	AssetTypeFinP2P         AssetType = "finp2p"
	AssetTypeFiat           AssetType = "fiat"
	AssetTypeCryptocurrency AssetType = "cryptocurrency"
)

// ParseAssetType converts a wire discriminator into an AssetType.
func ParseAssetType(s string) (AssetType, error) {
	switch AssetType(s) {
	case AssetTypeFinP2P, AssetTypeFiat, AssetTypeCryptocurrency:
		return AssetType(s), nil
	default:
		return "", &ValidationError{Field: "asset.type", Message: fmt.Sprintf("unknown asset type %q", s)}
	}
}

// Asset is the immutable identity of an asset on the ledger.
type Asset struct {
	ID   string    `json:"id"`
	Type AssetType `json:"type"`
}

// Validate checks the asset carries an id and a known type.
func (a Asset) Validate() error {
	if a.ID == "" {
		return &ValidationError{Field: "asset.id", Message: "required"}
	}
	_, err := ParseAssetType(string(a.Type))
	return err
}

func (a Asset) String() string {
	return fmt.Sprintf("%s:%s", a.Type, a.ID)
}
