// Package config provides configuration management for Pursuit.
//
// This package handles loading, validating, and defaulting configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("pursuit.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("pursuit.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention PURSUIT_SECTION_FIELD.
// For example:
//
//   - PURSUIT_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - PURSUIT_COMPILER_OPTIMIZE overrides compiler.optimize
//   - PURSUIT_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// A malformed override value is an error rather than being ignored.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example
//
//	compiler:
//	  optimize: true
//	  negation_key: "!not"
//	catalog:
//	  path: ./queries
//	  watch: true
//	schedules:
//	  - name: nightly-adults
//	    schedule: "0 3 * * *"
//	    query: adults
//	    source: {type: sqlite, path: people.db, table: people}
//	    output: out/adults.jsonl
//	history:
//	  enabled: true
//	  path: ./pursuit-history.db
//	  retention: 720h
//	server:
//	  listen_address: 127.0.0.1:8080
//	  cache_size: 256
//	  auth:
//	    enabled: true
//	    keys:
//	      - id: ops
//	        key_env: PURSUIT_OPS_KEY
//	  rate_limit:
//	    enabled: true
//	    requests_per_second: 10
package config
