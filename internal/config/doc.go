// Package config handles configuration loading for tuxedo-vault.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	encryption:
//	  master_key: "${VAULT_MASTER_KEY}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string, which
// validation then rejects for required fields.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	store:
//	  timeout: "5s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Database:
//
//	database:
//	  path: "/var/lib/tuxedo-vault/vault.db"
//
// Encryption:
//
//	encryption:
//	  master_key: "${VAULT_MASTER_KEY}"  # Required
//	  kdf_iterations: 100000             # Optional, 0 uses the default
//
// Store access:
//
//	store:
//	  timeout: "5s"
//	  read_retries: 2
//
// Chains:
//
//	chains:
//	  stellar:
//	    enabled: true
//	    network: "testnet"  # pubnet or testnet
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - Database path presence
//   - Master key presence
//   - KDF iteration floor
//   - Duration format validity
//   - Stellar network values
//
// # Usage
//
//	cfg, err := config.Load("/etc/tuxedo-vault/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
