package db

import "database/sql"

type Gem struct {
	ID             int64
	Classification string
	Color          string
	Streak         string
	Luster         string
	Diaphaneity    string
	Cleavage       string
	Mohs           float64
	Gravity        string
	Properties     string
	Composition    string
	Crystal        string
	Uses           string
	Name           string
}

type Song struct {
	ID       int64
	SongName string
	Artist   string
	Year     int64
	Genre    string
	GemName  string
	GemID    sql.NullInt64
}
