// ABOUTME: LLM-facing tool surface for the account vault
// ABOUTME: Authority is bound at construction; no tool schema carries an identity field

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yusefmosiah/tuxedo-vault/internal/authority"
	"github.com/yusefmosiah/tuxedo-vault/internal/vault"
)

// Handler executes one tool call. Input and output are raw JSON.
type Handler func(ctx context.Context, input json.RawMessage) (json.RawMessage, error)

// Tool pairs a definition with its handler.
type Tool struct {
	Definition *Definition
	Handler    Handler
}

// Definition is the model-visible description of a tool.
type Definition struct {
	Name            string
	Description     string
	InputSchemaJSON string
}

// Manager is the slice of the account manager the tools need.
type Manager interface {
	Generate(ctx context.Context, actx authority.Context, chainName, displayName string) (*vault.Account, error)
	ImportAccount(ctx context.Context, actx authority.Context, chainName, secretKey, displayName string) (*vault.Account, error)
	ListAccounts(ctx context.Context, actx authority.Context, chainName string) ([]*vault.Account, error)
	ExportAccount(ctx context.Context, actx authority.Context, accountID string) (*vault.ExportedAccount, error)
	DeleteAccount(ctx context.Context, actx authority.Context, accountID string) error
	UserOwnsAccount(ctx context.Context, actx authority.Context, accountID string) (bool, error)
}

// AccountPack builds the vault tool set for one request's authority context.
// The context is captured in the handler closures, so the model can name
// accounts but never principals. A new pack is built per request.
func AccountPack(actx authority.Context, mgr Manager) []*Tool {
	h := &accountHandlers{actx: actx, mgr: mgr}
	return []*Tool{
		{
			Definition: &Definition{
				Name:            "account_generate",
				Description:     "Generate a new blockchain keypair owned by the current user",
				InputSchemaJSON: `{"type":"object","properties":{"chain":{"type":"string"},"display_name":{"type":"string"}},"required":["chain"]}`,
			},
			Handler: h.Generate,
		},
		{
			Definition: &Definition{
				Name:            "account_import",
				Description:     "Import an existing keypair from its secret key",
				InputSchemaJSON: `{"type":"object","properties":{"chain":{"type":"string"},"secret_key":{"type":"string"},"display_name":{"type":"string"}},"required":["chain","secret_key"]}`,
			},
			Handler: h.Import,
		},
		{
			Definition: &Definition{
				Name:            "account_list",
				Description:     "List accounts available in this session, public fields only",
				InputSchemaJSON: `{"type":"object","properties":{"chain":{"type":"string"}}}`,
			},
			Handler: h.List,
		},
		{
			Definition: &Definition{
				Name:            "account_export",
				Description:     "Export an account's secret key. This action is recorded in the audit log.",
				InputSchemaJSON: `{"type":"object","properties":{"account_id":{"type":"string"}},"required":["account_id"]}`,
			},
			Handler: h.Export,
		},
		{
			Definition: &Definition{
				Name:            "account_delete",
				Description:     "Permanently delete an account and its stored key material",
				InputSchemaJSON: `{"type":"object","properties":{"account_id":{"type":"string"}},"required":["account_id"]}`,
			},
			Handler: h.Delete,
		},
		{
			Definition: &Definition{
				Name:            "account_owned",
				Description:     "Check whether an account is usable in this session",
				InputSchemaJSON: `{"type":"object","properties":{"account_id":{"type":"string"}},"required":["account_id"]}`,
			},
			Handler: h.Owned,
		},
	}
}

type accountHandlers struct {
	actx authority.Context
	mgr  Manager
}

// accountView is the JSON shape returned for accounts. No secret fields.
type accountView struct {
	ID          string `json:"id"`
	Chain       string `json:"chain"`
	PublicKey   string `json:"public_key"`
	DisplayName string `json:"display_name,omitempty"`
	Source      string `json:"source"`
	Owner       string `json:"owner"`
	CreatedAt   string `json:"created_at"`
	LastUsedAt  string `json:"last_used_at,omitempty"`
}

func toView(a *vault.Account) accountView {
	v := accountView{
		ID:          a.ID,
		Chain:       a.Chain,
		PublicKey:   a.PublicKey,
		DisplayName: a.DisplayName,
		Source:      a.Source,
		Owner:       a.OwnerTag,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
	if a.LastUsedAt != nil {
		v.LastUsedAt = a.LastUsedAt.Format(time.RFC3339)
	}
	return v
}

type generateInput struct {
	Chain       string `json:"chain"`
	DisplayName string `json:"display_name"`
}

func (h *accountHandlers) Generate(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in generateInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	account, err := h.mgr.Generate(ctx, h.actx, in.Chain, in.DisplayName)
	if err != nil {
		return nil, renderError(err)
	}
	return json.Marshal(toView(account))
}

type importInput struct {
	Chain       string `json:"chain"`
	SecretKey   string `json:"secret_key"`
	DisplayName string `json:"display_name"`
}

func (h *accountHandlers) Import(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in importInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	account, err := h.mgr.ImportAccount(ctx, h.actx, in.Chain, in.SecretKey, in.DisplayName)
	if err != nil {
		return nil, renderError(err)
	}
	return json.Marshal(toView(account))
}

type listInput struct {
	Chain string `json:"chain"`
}

func (h *accountHandlers) List(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in listInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &in); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
	}

	accounts, err := h.mgr.ListAccounts(ctx, h.actx, in.Chain)
	if err != nil {
		return nil, renderError(err)
	}

	views := make([]accountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, toView(account))
	}
	return json.Marshal(map[string]any{"accounts": views, "count": len(views)})
}

type accountIDInput struct {
	AccountID string `json:"account_id"`
}

func (h *accountHandlers) Export(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in accountIDInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	exported, err := h.mgr.ExportAccount(ctx, h.actx, in.AccountID)
	if err != nil {
		return nil, renderError(err)
	}
	return json.Marshal(map[string]string{
		"chain":      exported.Chain,
		"address":    exported.Address,
		"secret_key": exported.SecretKey,
	})
}

func (h *accountHandlers) Delete(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in accountIDInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if err := h.mgr.DeleteAccount(ctx, h.actx, in.AccountID); err != nil {
		return nil, renderError(err)
	}
	return json.Marshal(map[string]string{"status": "deleted"})
}

func (h *accountHandlers) Owned(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in accountIDInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	owns, err := h.mgr.UserOwnsAccount(ctx, h.actx, in.AccountID)
	if err != nil {
		return nil, renderError(err)
	}
	return json.Marshal(map[string]bool{"owned": owns})
}

// renderError maps vault errors to messages safe to show a model. Not found
// and permission denied collapse to the same message so the tool surface does
// not reveal which accounts exist.
func renderError(err error) error {
	switch {
	case errors.Is(err, vault.ErrAccountNotFound), errors.Is(err, vault.ErrPermissionDenied):
		return errors.New("account not found")
	case errors.Is(err, vault.ErrInvalidKeyFormat):
		return errors.New("secret key is not valid for that chain")
	case errors.Is(err, vault.ErrUnsupportedChain):
		return errors.New("unsupported chain")
	case errors.Is(err, vault.ErrDuplicateAccount):
		return errors.New("an account with that key already exists")
	case errors.Is(err, vault.ErrDecryptionFailed):
		return errors.New("stored key material could not be read")
	case errors.Is(err, vault.ErrStoreUnavailable):
		return errors.New("account store is temporarily unavailable, try again")
	default:
		return errors.New("internal error")
	}
}
