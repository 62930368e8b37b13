// Package config loads application configuration.
//
// Runtime settings come from MEMBERGATE_* environment variables; identity
// provider definitions live in a YAML file whose path the environment
// supplies. The providers file can be watched for changes so operators can
// adjust mappings and credentials without restarting, with the caveat that
// a reload only affects login attempts started after it lands.
//
// LoadConfig validates the assembled configuration and fails fast on
// inconsistencies (missing backends, clashing ports) rather than letting
// the server come up partially wired.
package config
