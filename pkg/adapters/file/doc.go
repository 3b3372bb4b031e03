// Package file reads model documents from disk and keeps model metadata as
// one JSON file per model, for runs without Redis.
package file
