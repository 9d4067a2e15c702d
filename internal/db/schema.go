package db

import (
	_ "embed"
	"strings"
)

// Schema drops and recreates every table, running it destroys all data.
//
//go:embed schema.sql
var Schema string

// Statements splits a sql script into its individual statements, some
// drivers only accept a single statement per Exec.
func Statements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
