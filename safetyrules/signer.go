package safetyrules

import (
	"crypto/ed25519"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-safetyrules/inter"
	"github.com/rony4d/go-safetyrules/inter/validatorpk"
)

// ValidatorSigner is the signing capability installed by Initialize. It
// comes in two flavors behind one interface shape: an exporting signer that
// holds the private key in process memory, and a handle signer that
// delegates every signature to the secure store so the key never leaves it.
type ValidatorSigner struct {
	author idx.ValidatorID
	pubKey validatorpk.PubKey

	// privKey is set in exported-key mode only.
	privKey ed25519.PrivateKey
	// storage is set in handle mode only.
	storage *PersistentSafetyStorage
}

// NewSigner creates an exporting signer around an in-memory private key.
func NewSigner(author idx.ValidatorID, key ed25519.PrivateKey) *ValidatorSigner {
	return &ValidatorSigner{
		author:  author,
		pubKey:  validatorpk.FromEd25519(key.Public().(ed25519.PublicKey)),
		privKey: key,
	}
}

// NewHandleSigner creates a handle signer: signing is delegated to the
// secure store under the given public key.
func NewHandleSigner(author idx.ValidatorID, pubKey validatorpk.PubKey, storage *PersistentSafetyStorage) *ValidatorSigner {
	return &ValidatorSigner{
		author:  author,
		pubKey:  pubKey,
		storage: storage,
	}
}

// Author returns the validator identity the signer signs for.
func (s *ValidatorSigner) Author() idx.ValidatorID {
	return s.author
}

// PublicKey returns the public half of the signing key.
func (s *ValidatorSigner) PublicKey() validatorpk.PubKey {
	return s.pubKey
}

// Sign produces a signature over the digest with whichever flavor the
// signer was built with.
func (s *ValidatorSigner) Sign(digest hash.Hash) (inter.Signature, error) {
	if s.privKey != nil {
		return ed25519.Sign(s.privKey, digest.Bytes()), nil
	}
	return s.storage.Sign(s.pubKey, digest.Bytes())
}
