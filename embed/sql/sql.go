package sql

import _ "embed"

// Schema is the full database schema, applied on startup.
//
//go:embed schema.sql
var Schema string
