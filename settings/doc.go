// Package settings provides persistent key-value stores for module levels.
//
// Every store satisfies logq.Store: values are grouped into sections, read
// and written in memory, and persisted by Sync.
//
// Backends:
//   - FileStore: a YAML or TOML file, chosen by extension
//   - SQLiteStore: rows of the settings table created by the migrations
//
// Watch reports changes to a settings file so a running logger can reload
// its levels without a restart.
package settings
