// Package authority defines the request-scoped delegated-authority context.
//
// A Context names the set of principal IDs one request may act on behalf of:
// always the autonomous agent (AgentPrincipalID) plus the currently
// authenticated human, or the anonymous sentinel. It is constructed exactly
// once per request by trusted backend code via NewContext and discarded when
// the request ends.
//
// The type is opaque: its fields are unexported, there is no setter, and
// nothing in the tool-facing surface accepts a principal ID. A value holding
// authority is itself the authorization, rather than a name typed into a
// prompt.
package authority
