// Package chain provides pluggable, chain-specific keypair handling behind a
// shared Adapter interface: generation, import/export of chain-native secret
// encodings, and syntactic address validation.
//
// Adapters are pure functions over key bytes, which keeps them trivially
// testable and swappable. The Registry is an explicit mapping constructed
// once at startup; there is no ambient global adapter state.
package chain
