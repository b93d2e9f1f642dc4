// Package config loads environment-tagged configuration structs, with
// optional .env file support for local development.
//
// Each configuration type is parsed once per process and cached, so
// independently constructed components that load the same config type see
// identical values.
package config
