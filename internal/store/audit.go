// ABOUTME: Audit log entity and store methods for account lifecycle actions
// ABOUTME: Records who did what to which account, with export as the loud mandatory case

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents an auditable account action.
type AuditAction string

const (
	AuditGenerateAccount       AuditAction = "generate_account"
	AuditImportAccount         AuditAction = "import_account"
	AuditExportAccount         AuditAction = "export_account"
	AuditDeleteAccount         AuditAction = "delete_account"
	AuditProvisionAgentAccount AuditAction = "provision_agent_account"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID               string
	ActorPrincipalID string // who requested the action
	Action           AuditAction
	AccountID        string
	Chain            string
	PublicKey        string
	Timestamp        time.Time
	Detail           map[string]any // additional context; never secret material
}

// AuditFilter specifies filtering options for listing audit entries.
type AuditFilter struct {
	ActorPrincipalID string       // filter by actor, empty for all
	Action           *AuditAction // filter by action type
	AccountID        string       // filter by account, empty for all
	Limit            int          // max results (default 100, max 1000)
}

// AuditStore defines methods for the append-only audit log.
type AuditStore interface {
	AppendAuditLog(ctx context.Context, e *AuditEntry) error
	ListAuditEntries(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error)
}

// AppendAuditLog appends a new entry to the audit log.
// Generates ID and Timestamp if not set.
func (s *SQLiteStore) AppendAuditLog(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	var detailJSON any
	if e.Detail != nil {
		data, err := json.Marshal(e.Detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
		detailJSON = string(data)
	}

	query := `
		INSERT INTO audit_log (audit_id, actor_principal_id, action, account_id, chain, public_key, ts, detail_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.ActorPrincipalID,
		string(e.Action),
		e.AccountID,
		nullString(e.Chain),
		nullString(e.PublicKey),
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		detailJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	s.logger.Debug("appended audit entry", "action", e.Action, "actor", e.ActorPrincipalID, "account_id", e.AccountID)
	return nil
}

// ListAuditEntries returns audit entries matching the filter, newest first.
func (s *SQLiteStore) ListAuditEntries(ctx context.Context, filter AuditFilter) ([]*AuditEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `
		SELECT audit_id, actor_principal_id, action, account_id, chain, public_key, ts, detail_json
		FROM audit_log
		WHERE 1=1
	`
	var args []any

	if filter.ActorPrincipalID != "" {
		query += " AND actor_principal_id = ?"
		args = append(args, filter.ActorPrincipalID)
	}
	if filter.Action != nil {
		query += " AND action = ?"
		args = append(args, string(*filter.Action))
	}
	if filter.AccountID != "" {
		query += " AND account_id = ?"
		args = append(args, filter.AccountID)
	}

	query += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		var action, ts string
		var chain, publicKey, detailJSON sql.NullString

		if err := rows.Scan(&e.ID, &e.ActorPrincipalID, &action, &e.AccountID, &chain, &publicKey, &ts, &detailJSON); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}

		e.Action = AuditAction(action)
		e.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing audit timestamp: %w", err)
		}
		if chain.Valid {
			e.Chain = chain.String
		}
		if publicKey.Valid {
			e.PublicKey = publicKey.String
		}
		if detailJSON.Valid {
			if err := json.Unmarshal([]byte(detailJSON.String), &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshaling audit detail: %w", err)
			}
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return entries, nil
}

// Ensure SQLiteStore implements AuditStore.
var _ AuditStore = (*SQLiteStore)(nil)
