// Package logger builds the log/slog loggers used across DrawDoc.
//
// Every logger returned by New shares one slog.LevelVar, so SetLevel
// (driven by the edit shell's config watcher or its loglevel command)
// takes effect on loggers that engines and services already hold.
//
// Records pass through a ReplaceAttr hook that shortens inline data URIs
// to their media type and payload size and masks values under secret
// looking keys. Context helpers carry a logger and the open document id
// through command handlers.
package logger
