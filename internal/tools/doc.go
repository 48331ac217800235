// ABOUTME: Package doc for tools, the model-facing wrapper around the vault
// ABOUTME: Documents the closure-bound authority pattern

// Package tools exposes vault operations as LLM-callable tools.
//
// A tool pack is constructed per request with the session's authority context
// baked into the handler closures. The input schemas deliberately have no
// principal or user field: a model cannot ask for another user's accounts
// because there is nowhere in the call to say so.
package tools
