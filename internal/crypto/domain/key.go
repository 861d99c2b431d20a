package domain

// Key is a 256-bit symmetric file encryption key.
//
// A Key is generated per file, handed to the key custodian and never persisted next to
// the ciphertext it protects. Call Zero once the key is no longer needed.
type Key struct {
	material []byte
}

// NewKey wraps raw key material. The slice is copied.
func NewKey(material []byte) (*Key, error) {
	if len(material) != KeySize {
		return nil, ErrInvalidKeySize
	}
	k := &Key{material: make([]byte, KeySize)}
	copy(k.material, material)
	return k, nil
}

// Bytes returns the raw key material. The returned slice aliases the key.
func (k *Key) Bytes() []byte {
	return k.material
}

// Zero wipes the key material.
func (k *Key) Zero() {
	if k == nil {
		return
	}
	Zero(k.material)
}

// Zero overwrites b with zeros. Used for key material and decrypted buffers.
func Zero(b []byte) {
	clear(b)
}

// Sealed is the output of one encryption: the ciphertext with its tag appended and the
// IV it was produced with. The IV is not secret and travels as file metadata.
type Sealed struct {
	Ciphertext []byte
	IV         []byte
}
