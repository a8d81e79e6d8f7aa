// Package storage provides the SQLite-backed repositories for students and
// their work titles, with embedded idempotent schema migrations.
package storage
