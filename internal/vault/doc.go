// ABOUTME: Package doc for vault, the account lifecycle and authorization core
// ABOUTME: Explains the ownership model and where decryption keys come from

// Package vault implements the account manager that sits between callers and
// stored key material.
//
// Every operation on an existing account goes through a single ownership
// check: the account's owner principal must be in the caller's authority set,
// which holds at most two principals (the agent's own identity plus the end
// user the request acts for). The check runs before any cryptographic work,
// so an unauthorized caller never causes a decrypt attempt.
//
// Decryption is always keyed to the account's stored owner, not to whoever is
// asking. Authorization decides whether the secret may be used; the owner
// column decides which derived key unwraps it. Conflating the two would make
// delegated access produce authentication failures rather than signatures.
//
// Failures surface as the sentinel errors in errors.go. Internal detail goes
// to the structured log, never to the caller.
package vault
