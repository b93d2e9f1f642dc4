// Package logger is a thin factory around log/slog with posture presets
// (development text/debug, production JSON/info), static attributes and
// context-extracted attributes injected through a handler decorator.
package logger
