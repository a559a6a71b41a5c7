// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation,
// so credentials (Serper API key, Discord webhook URL, database password) never
// need to live in the file itself.
package config
