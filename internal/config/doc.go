// Package config handles configuration loading for otango.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. The format follows the file extension (.yaml, .yml or .toml).
// The result is built once at startup and passed explicitly; there is no
// global configuration.
//
// # Configuration File
//
// Location (first match wins):
//
//  1. The --config flag
//  2. Path from OTANGO_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/otango/otango.yaml (~/.config when unset)
//
// `otango init` writes Default() to that location.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	database:
//	  dsn: "${OTANGO_DATABASE_DSN}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to an empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  challenge_ttl: "5m"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//	  tls_cert: ""                 # with tls_key, serve HTTPS
//	  tls_key: ""
//	  root_redirect: ""            # GET / target; empty serves 404
//	  allowed_origins: []          # CORS; "*" allows any
//	  shutdown_timeout: "10s"
//
//	tailscale:
//	  enabled: false
//	  hostname: "otango"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: true
//	  funnel: false                # implies https
//
//	database:
//	  driver: "sqlite"             # sqlite, postgres, mysql
//	  path: "otango.db"            # sqlite only
//	  dsn: ""                      # postgres and mysql
//	  max_open_conns: 8
//
//	auth:
//	  challenge_ttl: "5m"
//	  workers: 0                   # 0 = 4 x GOMAXPROCS
//
//	logging:
//	  level: "info"                # debug, info, warn, error
//	  format: "text"               # text, json
package config
