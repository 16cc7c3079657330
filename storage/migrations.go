package storage

// Statements must run unchanged on both sqlite and postgres.
var migrations = []string{
	`CREATE TABLE credentials (
	  id INTEGER PRIMARY KEY,
	  server TEXT NOT NULL,
	  token TEXT NOT NULL
	)`,
	`CREATE TABLE category (
	  id INTEGER PRIMARY KEY,
	  title TEXT
	)`,
	`CREATE TABLE entry_status (
	  entry_id INTEGER PRIMARY KEY,
	  feed_id INTEGER,
	  category_id INTEGER,
	  title TEXT,
	  url TEXT,
	  status TEXT NOT NULL,
	  updated TIMESTAMP
	)`,
	`CREATE INDEX entry_status_category ON entry_status (category_id, status)`,
}
