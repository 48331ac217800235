// ABOUTME: AccountManager combining chain adapters, encryption, and the store
// ABOUTME: Every operation takes an authority context and enforces ownership before decrypt

package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yusefmosiah/tuxedo-vault/internal/authority"
	"github.com/yusefmosiah/tuxedo-vault/internal/chain"
	"github.com/yusefmosiah/tuxedo-vault/internal/crypto"
	"github.com/yusefmosiah/tuxedo-vault/internal/store"
)

// Encryptor is the slice of the encryption manager the vault needs.
type Encryptor interface {
	Encrypt(ctx context.Context, plaintext, principalID string) (string, error)
	Decrypt(ctx context.Context, ciphertext, principalID string) (string, error)
}

// Store is the persistence surface the vault needs.
type Store interface {
	store.AccountStore
	store.AuditStore
}

// Account is the public view of a stored account: no secret material, tagged
// with which side of the dual authority owns it.
type Account struct {
	ID          string
	Chain       string
	PublicKey   string
	DisplayName string
	Source      string
	OwnerTag    string // "agent" | "user"
	CreatedAt   time.Time
	LastUsedAt  *time.Time
}

// ExportedAccount carries raw secret material across the trust boundary to
// the caller. Producing one is always audit-logged.
type ExportedAccount struct {
	Chain     string
	Address   string
	SecretKey string
}

// Options tunes store access behavior.
type Options struct {
	// StoreTimeout bounds every store call. Zero selects 5s.
	StoreTimeout time.Duration
	// ReadRetries is the number of retries after a transient failure on
	// read-only operations. Zero selects 2; negative disables retries.
	ReadRetries int
}

const (
	defaultStoreTimeout = 5 * time.Second
	defaultReadRetries  = 2
	retryBaseBackoff    = 50 * time.Millisecond
)

// AccountManager is the security boundary in front of stored key material.
// It resolves an account's true owner, checks it against the request's
// authority set, and only then lets the encryption manager near the
// ciphertext.
type AccountManager struct {
	store       Store
	enc         Encryptor
	chains      *chain.Registry
	logger      *slog.Logger
	timeout     time.Duration
	readRetries int
}

// NewAccountManager creates the account manager facade. The registry is
// passed by reference and shared; it must be fully populated before use.
func NewAccountManager(s Store, enc Encryptor, chains *chain.Registry, opts Options) *AccountManager {
	timeout := opts.StoreTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	retries := opts.ReadRetries
	if retries == 0 {
		retries = defaultReadRetries
	}
	if retries < 0 {
		retries = 0
	}
	return &AccountManager{
		store:       s,
		enc:         enc,
		chains:      chains,
		logger:      slog.Default().With("component", "vault"),
		timeout:     timeout,
		readRetries: retries,
	}
}

// Generate creates a new keypair on the given chain, owned by the authority
// context's primary principal. End-user requests can never produce an
// agent-owned account; agent accounts come from ProvisionAgentAccount only.
func (m *AccountManager) Generate(ctx context.Context, actx authority.Context, chainName, displayName string) (*Account, error) {
	owner := actx.PrimaryPrincipalID()
	if owner == "" || owner == authority.AgentPrincipalID {
		return nil, ErrPermissionDenied
	}
	return m.createAccount(ctx, actx, owner, chainName, displayName, store.AuditGenerateAccount)
}

// ProvisionAgentAccount creates a keypair owned by the agent principal. This
// is a backend-only path: it takes no authority context and is never exposed
// through the tool surface.
func (m *AccountManager) ProvisionAgentAccount(ctx context.Context, chainName, displayName string) (*Account, error) {
	actx := authority.NewContext(authority.AgentPrincipalID)
	return m.createAccount(ctx, actx, authority.AgentPrincipalID, chainName, displayName, store.AuditProvisionAgentAccount)
}

// createAccount generates, encrypts, and persists a keypair for owner.
func (m *AccountManager) createAccount(ctx context.Context, actx authority.Context, owner, chainName, displayName string, action store.AuditAction) (*Account, error) {
	adapter, err := m.chains.Get(chainName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, chainName)
	}

	kp, err := adapter.Generate()
	if err != nil {
		m.logger.Error("keypair generation failed", "chain", chainName, "error", err)
		return nil, ErrInternal
	}

	return m.persistKeypair(ctx, actx, owner, kp, displayName, store.SourceGenerated, action)
}

// ImportAccount registers an existing keypair from its chain-native secret
// representation, owned by the authority context's primary principal.
func (m *AccountManager) ImportAccount(ctx context.Context, actx authority.Context, chainName, secretKey, displayName string) (*Account, error) {
	owner := actx.PrimaryPrincipalID()
	if owner == "" || owner == authority.AgentPrincipalID {
		return nil, ErrPermissionDenied
	}

	adapter, err := m.chains.Get(chainName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, chainName)
	}

	kp, err := adapter.Import(secretKey)
	if err != nil {
		if errors.Is(err, chain.ErrInvalidKeyFormat) {
			return nil, fmt.Errorf("%w for chain %s", ErrInvalidKeyFormat, chainName)
		}
		m.logger.Error("keypair import failed", "chain", chainName, "error", err)
		return nil, ErrInternal
	}

	return m.persistKeypair(ctx, actx, owner, kp, displayName, store.SourceImported, store.AuditImportAccount)
}

// persistKeypair encrypts the secret keyed to owner and inserts the row.
func (m *AccountManager) persistKeypair(ctx context.Context, actx authority.Context, owner string, kp *chain.Keypair, displayName, source string, action store.AuditAction) (*Account, error) {
	encrypted, err := m.enc.Encrypt(ctx, kp.SecretKey, owner)
	if err != nil {
		m.logger.Error("encrypting secret failed", "chain", kp.Chain, "error", err)
		return nil, normalizeStoreErr(err)
	}

	account := &store.Account{
		ID:               newAccountID(),
		OwnerPrincipalID: owner,
		Chain:            kp.Chain,
		PublicKey:        kp.PublicKey,
		EncryptedSecret:  encrypted,
		DisplayName:      displayName,
		Source:           source,
		CreatedAt:        time.Now().UTC(),
	}

	if err := m.withTimeout(ctx, func(c context.Context) error {
		return m.store.CreateAccount(c, account)
	}); err != nil {
		return nil, normalizeStoreErr(err)
	}

	m.audit(ctx, &store.AuditEntry{
		ActorPrincipalID: actx.PrimaryPrincipalID(),
		Action:           action,
		AccountID:        account.ID,
		Chain:            account.Chain,
		PublicKey:        account.PublicKey,
		Detail:           map[string]any{"source": source},
	})

	return m.publicView(account, actx), nil
}

// ListAccounts returns the accounts owned by any authorized principal, public
// fields only, each tagged "agent" or "user". An empty chainName matches all
// chains.
func (m *AccountManager) ListAccounts(ctx context.Context, actx authority.Context, chainName string) ([]*Account, error) {
	owners := actx.AuthorizedPrincipalIDs()
	if len(owners) == 0 {
		return nil, nil
	}

	var rows []*store.Account
	err := m.withReadRetry(ctx, func(c context.Context) error {
		var err error
		rows, err = m.store.ListAccountsByOwners(c, owners, chainName)
		return err
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]*Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, m.publicView(row, actx))
	}
	return accounts, nil
}

// GetKeypairForSigning looks up the account, enforces ownership, decrypts the
// secret keyed to the account's actual owner, and materializes a usable
// keypair. The caller uses it immediately and lets it go out of scope.
func (m *AccountManager) GetKeypairForSigning(ctx context.Context, actx authority.Context, accountID string) (*chain.Keypair, error) {
	account, err := m.resolveOwned(ctx, actx, accountID)
	if err != nil {
		return nil, err
	}

	kp, err := m.materialize(ctx, account)
	if err != nil {
		return nil, err
	}

	// Best-effort usage stamp; failure must not block signing.
	if err := m.withTimeout(ctx, func(c context.Context) error {
		return m.store.TouchAccountLastUsed(c, account.ID)
	}); err != nil {
		m.logger.Warn("updating last_used_at failed", "account_id", account.ID, "error", err)
	}

	return kp, nil
}

// ExportAccount decrypts and hands back raw secret material. Same ownership
// check as signing, and always audit-logged before the secret leaves.
func (m *AccountManager) ExportAccount(ctx context.Context, actx authority.Context, accountID string) (*ExportedAccount, error) {
	account, err := m.resolveOwned(ctx, actx, accountID)
	if err != nil {
		return nil, err
	}

	kp, err := m.materialize(ctx, account)
	if err != nil {
		return nil, err
	}

	adapter, err := m.chains.Get(account.Chain)
	if err != nil {
		m.logger.Error("no adapter for stored account", "account_id", account.ID, "chain", account.Chain)
		return nil, ErrInternal
	}
	secret, err := adapter.Export(kp)
	if err != nil {
		m.logger.Error("exporting keypair failed", "account_id", account.ID, "error", err)
		return nil, ErrInternal
	}

	// The export audit is mandatory: if it cannot be recorded, the secret
	// does not leave.
	entry := &store.AuditEntry{
		ActorPrincipalID: actx.PrimaryPrincipalID(),
		Action:           store.AuditExportAccount,
		AccountID:        account.ID,
		Chain:            account.Chain,
		PublicKey:        account.PublicKey,
	}
	if err := m.withTimeout(ctx, func(c context.Context) error {
		return m.store.AppendAuditLog(c, entry)
	}); err != nil {
		m.logger.Error("recording export audit failed", "account_id", account.ID, "error", err)
		return nil, normalizeStoreErr(err)
	}

	m.logger.Warn("secret key exported",
		"actor", actx.PrimaryPrincipalID(),
		"account_id", account.ID,
		"chain", account.Chain,
		"public_key", account.PublicKey,
	)

	return &ExportedAccount{
		Chain:     account.Chain,
		Address:   account.PublicKey,
		SecretKey: secret,
	}, nil
}

// DeleteAccount hard-deletes an account after the ownership check.
func (m *AccountManager) DeleteAccount(ctx context.Context, actx authority.Context, accountID string) error {
	account, err := m.resolveOwned(ctx, actx, accountID)
	if err != nil {
		return err
	}

	if err := m.withTimeout(ctx, func(c context.Context) error {
		return m.store.DeleteAccount(c, account.ID)
	}); err != nil {
		return normalizeStoreErr(err)
	}

	m.audit(ctx, &store.AuditEntry{
		ActorPrincipalID: actx.PrimaryPrincipalID(),
		Action:           store.AuditDeleteAccount,
		AccountID:        account.ID,
		Chain:            account.Chain,
		PublicKey:        account.PublicKey,
	})

	return nil
}

// UserOwnsAccount is the side-effect-free authorization pre-check. It shares
// resolveOwned with every mutating operation, so there is exactly one copy of
// the ownership logic.
func (m *AccountManager) UserOwnsAccount(ctx context.Context, actx authority.Context, accountID string) (bool, error) {
	_, err := m.resolveOwned(ctx, actx, accountID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrPermissionDenied):
		return false, nil
	default:
		return false, err
	}
}

// resolveOwned looks up an account and enforces the ownership check shared by
// every operation that touches an existing account. Fail-closed: an empty
// authority set denies everything, and denial happens before any decrypt.
func (m *AccountManager) resolveOwned(ctx context.Context, actx authority.Context, accountID string) (*store.Account, error) {
	var account *store.Account
	err := m.withReadRetry(ctx, func(c context.Context) error {
		var err error
		account, err = m.store.GetAccount(c, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !actx.Allows(account.OwnerPrincipalID) {
		return nil, ErrPermissionDenied
	}
	return account, nil
}

// materialize decrypts the stored secret keyed to the account's actual owner
// and imports it through the chain adapter. The derivation is bound to
// OwnerPrincipalID, never the requesting principal: when the agent acts for a
// user, decrypting under the caller's identity would silently yield garbage
// key material instead of a clean error.
func (m *AccountManager) materialize(ctx context.Context, account *store.Account) (*chain.Keypair, error) {
	secret, err := m.enc.Decrypt(ctx, account.EncryptedSecret, account.OwnerPrincipalID)
	if err != nil {
		m.logger.Error("stored ciphertext failed to authenticate",
			"account_id", account.ID,
			"chain", account.Chain,
		)
		return nil, ErrDecryptionFailed
	}

	adapter, err := m.chains.Get(account.Chain)
	if err != nil {
		m.logger.Error("no adapter for stored account", "account_id", account.ID, "chain", account.Chain)
		return nil, ErrInternal
	}

	kp, err := adapter.Import(secret)
	if err != nil {
		m.logger.Error("decrypted secret failed chain import", "account_id", account.ID, "chain", account.Chain)
		return nil, ErrInternal
	}
	return kp, nil
}

// publicView strips secret material and tags the owner side.
func (m *AccountManager) publicView(account *store.Account, actx authority.Context) *Account {
	return &Account{
		ID:          account.ID,
		Chain:       account.Chain,
		PublicKey:   account.PublicKey,
		DisplayName: account.DisplayName,
		Source:      account.Source,
		OwnerTag:    actx.OwnerTag(account.OwnerPrincipalID),
		CreatedAt:   account.CreatedAt,
		LastUsedAt:  account.LastUsedAt,
	}
}

// audit records a lifecycle entry best-effort: a failed write is logged but
// does not fail the operation. Export has its own mandatory path.
func (m *AccountManager) audit(ctx context.Context, entry *store.AuditEntry) {
	if err := m.withTimeout(ctx, func(c context.Context) error {
		return m.store.AppendAuditLog(c, entry)
	}); err != nil {
		m.logger.Warn("recording audit entry failed", "action", entry.Action, "account_id", entry.AccountID, "error", err)
	}
}

// withTimeout runs one store call under the configured bound and normalizes
// the result.
func (m *AccountManager) withTimeout(ctx context.Context, op func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return normalizeStoreErr(op(cctx))
}

// withReadRetry runs a read-only store call with bounded retries and backoff
// on transient failures. Writes are never retried.
func (m *AccountManager) withReadRetry(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = m.withTimeout(ctx, op)
		if !errors.Is(err, ErrStoreUnavailable) || attempt >= m.readRetries {
			return err
		}

		backoff := retryBaseBackoff << attempt
		m.logger.Debug("retrying store read", "attempt", attempt+1, "backoff", backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ErrStoreUnavailable
		}
	}
}

// normalizeStoreErr maps store and crypto failures into the vault taxonomy.
// Nothing internal leaks past this boundary as a raw error.
func normalizeStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, store.ErrDuplicateAccount):
		return ErrDuplicateAccount
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return ErrDecryptionFailed
	case errors.Is(err, context.DeadlineExceeded), isBusy(err):
		return ErrStoreUnavailable
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrInternal):
		return err
	default:
		slog.Default().Error("unclassified store error", "error", err)
		return ErrStoreUnavailable
	}
}

// isBusy matches SQLite's transient lock/busy conditions.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// newAccountID mints an opaque account identifier.
func newAccountID() string {
	return "account_" + uuid.New().String()
}
