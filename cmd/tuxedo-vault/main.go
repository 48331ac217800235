// ABOUTME: Entry point for the tuxedo-vault CLI
// ABOUTME: Account lifecycle, agent provisioning, and audit log inspection

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/yusefmosiah/tuxedo-vault/internal/authority"
	"github.com/yusefmosiah/tuxedo-vault/internal/chain"
	"github.com/yusefmosiah/tuxedo-vault/internal/config"
	"github.com/yusefmosiah/tuxedo-vault/internal/crypto"
	"github.com/yusefmosiah/tuxedo-vault/internal/store"
	"github.com/yusefmosiah/tuxedo-vault/internal/vault"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                      _                            _ _
| |_ _   ___  _____  __| | ___        __   ____ _ _  _| | |_
| __| | | \ \/ / _ \/ _' |/ _ \ _____ \ \ / / _' | | | | | __|
| |_| |_| |>  <  __/ (_| | (_) |_____| \ V / (_| | |_| | | |_
 \__|\__,_/_/\_\___|\__,_|\___/         \_/ \__,_|\__,_|_|\__|
`

// getConfigPath returns the path to the vault config file.
// Priority: VAULT_CONFIG env var > XDG_CONFIG_HOME/tuxedo-vault/config.yaml > ~/.config/tuxedo-vault/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("VAULT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "tuxedo-vault", "config.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: tuxedo-vault <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  list            List accounts visible to a principal")
		fmt.Println("  generate        Generate a new account for a principal")
		fmt.Println("  import          Import an existing secret key")
		fmt.Println("  export          Export an account's secret key (audited)")
		fmt.Println("  delete          Delete an account")
		fmt.Println("  provision-agent Create an agent-owned account")
		fmt.Println("  audit           Show the audit log")
		fmt.Println("  status          Show store counts")
		fmt.Println("  version         Print version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "list":
		err = runList(ctx)
	case "generate":
		err = runGenerate(ctx)
	case "import":
		err = runImport(ctx)
	case "export":
		err = runExport(ctx)
	case "delete":
		err = runDelete(ctx)
	case "provision-agent":
		err = runProvisionAgent(ctx)
	case "audit":
		err = runAudit(ctx)
	case "status":
		err = runStatus(ctx)
	case "version":
		fmt.Printf("tuxedo-vault %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired components shared by every command.
type app struct {
	cfg   *config.Config
	store *store.SQLiteStore
	vault *vault.AccountManager
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("closing store failed", "error", err)
	}
}

// setup loads config, opens the store, and wires the account manager.
func setup(printBanner bool) (*app, error) {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	if printBanner {
		cyan := color.New(color.FgCyan)
		gray := color.New(color.FgHiBlack)
		cyan.Print(banner)
		gray.Printf("    version: %s\n\n", version)

		green := color.New(color.FgGreen)
		green.Print("    ▶ ")
		fmt.Printf("Config:   %s\n", configPath)
		green.Print("    ▶ ")
		fmt.Printf("Database: %s\n", cfg.Database.Path)
		fmt.Println()
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	enc, err := crypto.NewManager([]byte(cfg.Encryption.MasterKey), cfg.Encryption.KDFIterations, s)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	registry := chain.NewRegistry()
	if cfg.Chains.Stellar.Enabled {
		network := cfg.Chains.Stellar.Network
		if network == "" {
			network = chain.StellarTestnet
		}
		if err := registry.Register(chain.NewStellarAdapter(network)); err != nil {
			s.Close()
			return nil, fmt.Errorf("registering stellar adapter: %w", err)
		}
	}

	mgr := vault.NewAccountManager(s, enc, registry, vault.Options{
		StoreTimeout: cfg.Store.Timeout,
		ReadRetries:  cfg.Store.ReadRetries,
	})

	return &app{cfg: cfg, store: s, vault: mgr}, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func runList(ctx context.Context) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	principal := fs.String("principal", "", "Principal ID to act as (empty for anonymous)")
	chainName := fs.String("chain", "", "Filter by chain")
	fs.Parse(os.Args[2:])

	a, err := setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	accounts, err := a.vault.ListAccounts(ctx, authority.NewContext(*principal), *chainName)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		fmt.Println("(no accounts)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCHAIN\tADDRESS\tOWNER\tNAME\tSOURCE\tCREATED")
	fmt.Fprintln(w, "--\t-----\t-------\t-----\t----\t------\t-------")
	for _, account := range accounts {
		address := account.PublicKey
		if len(address) > 12 {
			address = address[:6] + "…" + address[len(address)-4:]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			account.ID, account.Chain, address, account.OwnerTag,
			account.DisplayName, account.Source,
			account.CreatedAt.Format("Jan 02 15:04"))
	}
	return w.Flush()
}

func runGenerate(ctx context.Context) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	principal := fs.String("principal", "", "Owning principal ID (required)")
	chainName := fs.String("chain", chain.ChainStellar, "Chain to generate on")
	name := fs.String("name", "", "Display name")
	fs.Parse(os.Args[2:])

	if *principal == "" {
		return fmt.Errorf("--principal is required")
	}

	a, err := setup(true)
	if err != nil {
		return err
	}
	defer a.Close()

	account, err := a.vault.Generate(ctx, authority.NewContext(*principal), *chainName, *name)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Println("Account created")
	fmt.Printf("  ID:      %s\n", account.ID)
	fmt.Printf("  Chain:   %s\n", account.Chain)
	fmt.Printf("  Address: %s\n", account.PublicKey)
	return nil
}

func runImport(ctx context.Context) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	principal := fs.String("principal", "", "Owning principal ID (required)")
	chainName := fs.String("chain", chain.ChainStellar, "Chain of the key")
	name := fs.String("name", "", "Display name")
	fs.Parse(os.Args[2:])

	if *principal == "" {
		return fmt.Errorf("--principal is required")
	}

	// The secret comes from the environment so it never lands in shell history.
	secret := os.Getenv("VAULT_IMPORT_SECRET")
	if secret == "" {
		return fmt.Errorf("set VAULT_IMPORT_SECRET to the secret key to import")
	}

	a, err := setup(true)
	if err != nil {
		return err
	}
	defer a.Close()

	account, err := a.vault.ImportAccount(ctx, authority.NewContext(*principal), *chainName, secret, *name)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Println("Account imported")
	fmt.Printf("  ID:      %s\n", account.ID)
	fmt.Printf("  Address: %s\n", account.PublicKey)
	return nil
}

func runExport(ctx context.Context) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	principal := fs.String("principal", "", "Principal ID to act as (required)")
	accountID := fs.String("account", "", "Account ID to export (required)")
	fs.Parse(os.Args[2:])

	if *principal == "" || *accountID == "" {
		return fmt.Errorf("--principal and --account are required")
	}

	a, err := setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	exported, err := a.vault.ExportAccount(ctx, authority.NewContext(*principal), *accountID)
	if err != nil {
		return err
	}

	yellow := color.New(color.FgYellow)
	yellow.Println("This export has been recorded in the audit log.")
	fmt.Printf("  Chain:   %s\n", exported.Chain)
	fmt.Printf("  Address: %s\n", exported.Address)
	fmt.Printf("  Secret:  %s\n", exported.SecretKey)
	return nil
}

func runDelete(ctx context.Context) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	principal := fs.String("principal", "", "Principal ID to act as (required)")
	accountID := fs.String("account", "", "Account ID to delete (required)")
	fs.Parse(os.Args[2:])

	if *principal == "" || *accountID == "" {
		return fmt.Errorf("--principal and --account are required")
	}

	a, err := setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.vault.DeleteAccount(ctx, authority.NewContext(*principal), *accountID); err != nil {
		return err
	}

	fmt.Printf("Deleted %s\n", *accountID)
	return nil
}

func runProvisionAgent(ctx context.Context) error {
	fs := flag.NewFlagSet("provision-agent", flag.ExitOnError)
	chainName := fs.String("chain", chain.ChainStellar, "Chain to generate on")
	name := fs.String("name", "", "Display name")
	fs.Parse(os.Args[2:])

	a, err := setup(true)
	if err != nil {
		return err
	}
	defer a.Close()

	account, err := a.vault.ProvisionAgentAccount(ctx, *chainName, *name)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Println("Agent account provisioned")
	fmt.Printf("  ID:      %s\n", account.ID)
	fmt.Printf("  Chain:   %s\n", account.Chain)
	fmt.Printf("  Address: %s\n", account.PublicKey)
	return nil
}

func runStatus(ctx context.Context) error {
	a, err := setup(true)
	if err != nil {
		return err
	}
	defer a.Close()

	accounts, err := a.store.CountAccounts(ctx)
	if err != nil {
		return err
	}
	salts, err := a.store.CountSalts(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Accounts:   %d\n", accounts)
	fmt.Printf("Principals: %d\n", salts)
	return nil
}

func runAudit(ctx context.Context) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	actor := fs.String("actor", "", "Filter by actor principal")
	action := fs.String("action", "", "Filter by action")
	limit := fs.Int("limit", 50, "Maximum entries")
	asJSON := fs.Bool("json", false, "Output as JSON")
	fs.Parse(os.Args[2:])

	a, err := setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	filter := store.AuditFilter{
		ActorPrincipalID: *actor,
		Limit:            *limit,
	}
	if *action != "" {
		act := store.AuditAction(*action)
		filter.Action = &act
	}

	entries, err := a.store.ListAuditEntries(ctx, filter)
	if err != nil {
		return err
	}

	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("(no audit entries)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTOR\tACTION\tACCOUNT\tCHAIN")
	fmt.Fprintln(w, "----\t-----\t------\t-------\t-----")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format(time.RFC3339), e.ActorPrincipalID, e.Action, e.AccountID, e.Chain)
	}
	return w.Flush()
}
