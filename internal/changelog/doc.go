// Package changelog reads, reconciles and writes the plain-text changelog.
//
// This package implements:
//   - Parsing of the changelog file into per-version records
//   - Reconciliation of those records with the current tag graph
//   - The line formatter (bullets, case-insensitive dedupe, categories)
//   - Rendering back to the fixed file layout, plus terminal, YAML/JSON and diff views
//
// A file looks like:
//
//	# THIS IS AN AUTOGENERATED FILE. DO NOT EDIT UNLESS YOU KNOW WHAT YOU ARE DOING.
//	# CHANGE LOG
//
//	[Next version (<40 hex commit>)]
//	- Fix bug
//
//
//	[v2]
//	- Added feature
//
// The file is rewritten whole on every run; blank lines and # comments are
// not preserved.
package changelog
