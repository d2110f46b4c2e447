package wireguard

import (
	"fmt"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// GenerateKeyPair returns a fresh private/public key pair in base64 form.
func GenerateKeyPair() (privateKey, publicKey string, err error) {
	key, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		return "", "", fmt.Errorf("generate private key: %w", err)
	}
	return key.String(), key.PublicKey().String(), nil
}

// ValidateKey reports whether s is a well-formed WireGuard key.
func ValidateKey(s string) error {
	_, err := wgtypes.ParseKey(s)
	return err
}
