// Package keys provides secp256k1 key handling for record authors: BIP340
// Schnorr verification, key generation from an injected randomness source,
// signing, and a local key store.
//
// API stability:
//
// Stable:
//   - Verify, GenerateKeypair, SecretKey and its methods, DeriveRoleSecret.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore and related functions).
//     These are local-first utilities and are not part of the wire protocol.
package keys
