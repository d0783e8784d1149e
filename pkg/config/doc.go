// Package config loads application configuration from environment
// variables, with optional .env files for local development.
//
// Structs are annotated with `env` tags and parsed by caarlos0/env; each
// struct type is parsed once per process and served from a cache after
// that, so components can load their own config independently without
// re-reading the environment.
package config
