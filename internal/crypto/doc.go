// Package crypto encrypts and decrypts secret key material at rest with keys
// cryptographically bound to a principal ID.
//
// Key derivation is PBKDF2-SHA256 over the configured master secret with a
// stored, random, per-principal salt (a fixed global salt would collapse
// per-tenant isolation if the master secret ever partially leaked). The
// cipher is AES-256-GCM; ciphertexts are opaque "v1:" base64 envelopes
// carrying the nonce.
//
// Decryption failure is always the generic ErrDecryptionFailed, never
// distinguishing wrong key from corrupted data, so the error surface cannot
// be used as an oracle for probing which principal owns which ciphertext.
package crypto
