// Package auth implements the LOGIN-phase identity verification of
// spec.md §4.4: the proxy's RSA keypair, the Mojang session-service
// lookup, and the four player-info forwarding strategies.
package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

// KeyPair is the proxy's RSA keypair used to encrypt EncryptionRequest's
// shared-secret exchange (spec.md §4.4). Mojang's protocol has used a
// 1024-bit key since 1.7.2; the proxy generates a fresh one at startup.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  []byte // ASN.1 DER, as sent in EncryptionRequest.PublicKey
}

// GenerateKeyPair creates a fresh 1024-bit RSA keypair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		return nil, fmt.Errorf("auth: generating keypair: %w", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("auth: marshaling public key: %w", err)
	}
	return &KeyPair{Private: priv, Public: pub}, nil
}

// Decrypt undoes an EncryptionResponse's RSA-PKCS1v15 encryption of the
// client's chosen shared secret or verify token.
func (k *KeyPair) Decrypt(data []byte) ([]byte, error) {
	return rsa.DecryptPKCS1v15(rand.Reader, k.Private, data)
}
