package store

// Schema statements per driver. SQLite keeps UUIDs and timestamps as TEXT.

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		location TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'volunteer',
		join_date DATE NOT NULL DEFAULT CURRENT_DATE
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id UUID PRIMARY KEY,
		member_id UUID NOT NULL REFERENCES members(id),
		event_id UUID NOT NULL REFERENCES events(id),
		checked_in_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (member_id, event_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_event ON attendance(event_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		location TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'volunteer',
		join_date TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		event_id TEXT NOT NULL REFERENCES events(id),
		checked_in_at TEXT NOT NULL,
		UNIQUE (member_id, event_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_event ON attendance(event_id)`,
}
