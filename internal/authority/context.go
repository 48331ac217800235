// ABOUTME: Delegated-authority context naming which principals a request may act as
// ABOUTME: Built once per request by trusted backend code, never from tool input

package authority

const (
	// AgentPrincipalID is the reserved, fixed identity of the autonomous agent.
	// It is distinct from every user ID and owns the agent's operating accounts.
	AgentPrincipalID = "system_agent"

	// AnonymousPrincipalID is the sentinel identity for unauthenticated sessions.
	AnonymousPrincipalID = "anonymous"
)

// Owner tags classify which side of the dual authority owns an account.
const (
	OwnerTagAgent = "agent"
	OwnerTagUser  = "user"
)

// Context is the request-scoped statement of delegated authority: the agent's
// own identity plus the currently authenticated human (or anonymous). The
// fields are unexported so a Context holding any authority can only come from
// NewContext; the zero value authorizes nothing.
type Context struct {
	agentPrincipalID   string
	primaryPrincipalID string
}

// NewContext builds the dual-authority context for one request. The primary
// principal is the authenticated human's ID; empty is treated as anonymous.
func NewContext(primaryPrincipalID string) Context {
	if primaryPrincipalID == "" {
		primaryPrincipalID = AnonymousPrincipalID
	}
	return Context{
		agentPrincipalID:   AgentPrincipalID,
		primaryPrincipalID: primaryPrincipalID,
	}
}

// PrimaryPrincipalID returns the authenticated human's ID, or the anonymous
// sentinel. Empty on the zero value.
func (c Context) PrimaryPrincipalID() string {
	return c.primaryPrincipalID
}

// AuthorizedPrincipalIDs returns the deduplicated set of principal IDs this
// request may act on behalf of: the agent and the primary principal.
func (c Context) AuthorizedPrincipalIDs() []string {
	ids := make([]string, 0, 2)
	if c.agentPrincipalID != "" {
		ids = append(ids, c.agentPrincipalID)
	}
	if c.primaryPrincipalID != "" && c.primaryPrincipalID != c.agentPrincipalID {
		ids = append(ids, c.primaryPrincipalID)
	}
	return ids
}

// Allows reports whether this request may act on accounts owned by
// ownerPrincipalID. Fails closed: an empty owner or an empty authority set
// denies everything.
func (c Context) Allows(ownerPrincipalID string) bool {
	if ownerPrincipalID == "" {
		return false
	}
	for _, id := range c.AuthorizedPrincipalIDs() {
		if id == ownerPrincipalID {
			return true
		}
	}
	return false
}

// OwnerTag classifies an owner within this context so callers can distinguish
// the agent's own accounts from the user's.
func (c Context) OwnerTag(ownerPrincipalID string) string {
	if ownerPrincipalID == c.agentPrincipalID && ownerPrincipalID != "" {
		return OwnerTagAgent
	}
	return OwnerTagUser
}
