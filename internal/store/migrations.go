package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS enrollments (
	id                    TEXT PRIMARY KEY,
	user_id               TEXT NOT NULL,
	event_id              TEXT NOT NULL,
	status                TEXT NOT NULL DEFAULT 'applied'
		CHECK(status IN ('applied', 'completed', 'no_show')),
	is_verified           INTEGER NOT NULL DEFAULT 0 CHECK(is_verified IN (0, 1)),
	cancellation_deadline DATETIME NOT NULL,
	verification_secret   TEXT NOT NULL,
	applied_at            DATETIME NOT NULL,
	verified_at           DATETIME,
	updated_at            DATETIME NOT NULL,
	UNIQUE(user_id, event_id),
	CHECK(status != 'completed' OR is_verified = 1)
);

CREATE TABLE IF NOT EXISTS notifications (
	id            TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	title         TEXT NOT NULL,
	body          TEXT NOT NULL DEFAULT '',
	enrollment_id TEXT NOT NULL DEFAULT '',
	nav_target    TEXT NOT NULL DEFAULT '',
	read          INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS fired_triggers (
	key      TEXT PRIMARY KEY,
	fired_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_enrollments_user_id ON enrollments(user_id);
CREATE INDEX IF NOT EXISTS idx_enrollments_status ON enrollments(status);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS point_entries (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	points     INTEGER NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_point_entries_user_id ON point_entries(user_id);
CREATE INDEX IF NOT EXISTS idx_notifications_kind ON notifications(kind);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
ALTER TABLE point_entries ADD COLUMN source_id TEXT;
CREATE UNIQUE INDEX IF NOT EXISTS idx_point_entries_source_id ON point_entries(source_id);

CREATE TABLE IF NOT EXISTS reward_credits (
	source_id     TEXT PRIMARY KEY,
	enrollment_id TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	points        INTEGER NOT NULL,
	reason        TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL,
	claimed_at    DATETIME,
	delivered_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_reward_credits_pending ON reward_credits(user_id, delivered_at);

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}
