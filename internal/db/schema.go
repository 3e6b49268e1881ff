package db

// schemaVersion is bumped whenever schemaSQL changes shape.
const schemaVersion = 1

// schemaSQL initializes the analyses table. Topics and keywords are stored as
// JSON-encoded text so the row stays self-contained and substring search can
// run over them with LIKE.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS analyses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    original_text TEXT NOT NULL,
    summary TEXT NOT NULL,
    title TEXT,
    topics TEXT NOT NULL DEFAULT '[]',
    sentiment TEXT NOT NULL DEFAULT 'neutral',
    keywords TEXT NOT NULL DEFAULT '[]',
    confidence_score REAL NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`
