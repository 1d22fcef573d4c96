package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:judging.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
		// cascades depend on it and the pragma is per connection
		if !strings.Contains(dsn, "foreign_keys") {
			dsn += sep(dsn) + "_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/judging?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory opens a private in-memory sqlite database with the full schema.
// A single connection keeps every caller on the same database.
func OpenMemory(ctx context.Context, name string) (*sql.DB, error) {
	dsn := "file:" + name + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := ensureSchema(ctx, db, DriverSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func sep(dsn string) string {
	if strings.Contains(dsn, "?") {
		return "&"
	}
	return "?"
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	// Some drivers reject multi-statement scripts; fall back to one at a time.
	if _, err := db.ExecContext(ctx, schema); err != nil {
		for _, stmt := range strings.Split(schema, ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, e := db.ExecContext(ctx, stmt); e != nil {
				return fmt.Errorf("schema: %w", e)
			}
		}
	}
	return nil
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS conferences (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
  id TEXT PRIMARY KEY,
  conference_id TEXT NOT NULL REFERENCES conferences(id) ON DELETE CASCADE,
  title_en TEXT NOT NULL,
  title_he TEXT NOT NULL,
  department TEXT NOT NULL DEFAULT '',
  room TEXT NOT NULL DEFAULT '',
  legacy_team_members TEXT NOT NULL DEFAULT '[]', -- JSON array of full names
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS project_members (
  project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  student_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  PRIMARY KEY (project_id, student_id)
);

CREATE TABLE IF NOT EXISTS judge_assignments (
  project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  judge_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  PRIMARY KEY (project_id, judge_id)
);

CREATE TABLE IF NOT EXISTS evaluation_criteria (
  id TEXT PRIMARY KEY,
  conference_id TEXT NOT NULL REFERENCES conferences(id) ON DELETE CASCADE,
  name_en TEXT NOT NULL,
  name_he TEXT NOT NULL,
  description_en TEXT NOT NULL DEFAULT '',
  description_he TEXT NOT NULL DEFAULT '',
  max_score INTEGER NOT NULL DEFAULT 10 CHECK (max_score >= 1),
  weight REAL NOT NULL DEFAULT 1.0 CHECK (weight > 0),
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS evaluations (
  id TEXT PRIMARY KEY,
  project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  judge_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  is_complete INTEGER NOT NULL DEFAULT 0,
  general_notes TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  submitted_at INTEGER,
  UNIQUE (project_id, judge_id)
);

CREATE TABLE IF NOT EXISTS evaluation_scores (
  evaluation_id TEXT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
  criterion_id TEXT NOT NULL REFERENCES evaluation_criteria(id) ON DELETE CASCADE,
  score INTEGER NOT NULL CHECK (score >= 0),
  note TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (evaluation_id, criterion_id)
);

CREATE TABLE IF NOT EXISTS expertise_areas (
  conference_id TEXT NOT NULL REFERENCES conferences(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  PRIMARY KEY (conference_id, name)
);

CREATE TABLE IF NOT EXISTS judge_expertise (
  judge_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  conference_id TEXT NOT NULL,
  name TEXT NOT NULL,
  PRIMARY KEY (judge_id, conference_id, name),
  FOREIGN KEY (conference_id, name) REFERENCES expertise_areas(conference_id, name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,                         -- e.g., EvaluationSubmitted
  key TEXT NOT NULL,                         -- natural key: evaluation id
  actor_id TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,                        -- JSON payload
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_conference ON projects(conference_id);
CREATE INDEX IF NOT EXISTS idx_criteria_conference ON evaluation_criteria(conference_id, sort_order);
CREATE INDEX IF NOT EXISTS idx_evaluations_judge ON evaluations(judge_id);
CREATE INDEX IF NOT EXISTS idx_event_log_key ON event_log(key);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS conferences (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
  id TEXT PRIMARY KEY,
  conference_id TEXT NOT NULL REFERENCES conferences(id) ON DELETE CASCADE,
  title_en TEXT NOT NULL,
  title_he TEXT NOT NULL,
  department TEXT NOT NULL DEFAULT '',
  room TEXT NOT NULL DEFAULT '',
  legacy_team_members TEXT NOT NULL DEFAULT '[]',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS project_members (
  project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  student_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  PRIMARY KEY (project_id, student_id)
);

CREATE TABLE IF NOT EXISTS judge_assignments (
  project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  judge_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  PRIMARY KEY (project_id, judge_id)
);

CREATE TABLE IF NOT EXISTS evaluation_criteria (
  id TEXT PRIMARY KEY,
  conference_id TEXT NOT NULL REFERENCES conferences(id) ON DELETE CASCADE,
  name_en TEXT NOT NULL,
  name_he TEXT NOT NULL,
  description_en TEXT NOT NULL DEFAULT '',
  description_he TEXT NOT NULL DEFAULT '',
  max_score INTEGER NOT NULL DEFAULT 10 CHECK (max_score >= 1),
  weight DOUBLE PRECISION NOT NULL DEFAULT 1.0 CHECK (weight > 0),
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS evaluations (
  id TEXT PRIMARY KEY,
  project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  judge_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  is_complete BOOLEAN NOT NULL DEFAULT FALSE,
  general_notes TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  submitted_at BIGINT,
  UNIQUE (project_id, judge_id)
);

CREATE TABLE IF NOT EXISTS evaluation_scores (
  evaluation_id TEXT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
  criterion_id TEXT NOT NULL REFERENCES evaluation_criteria(id) ON DELETE CASCADE,
  score INTEGER NOT NULL CHECK (score >= 0),
  note TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (evaluation_id, criterion_id)
);

CREATE TABLE IF NOT EXISTS expertise_areas (
  conference_id TEXT NOT NULL REFERENCES conferences(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  PRIMARY KEY (conference_id, name)
);

CREATE TABLE IF NOT EXISTS judge_expertise (
  judge_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  conference_id TEXT NOT NULL,
  name TEXT NOT NULL,
  PRIMARY KEY (judge_id, conference_id, name),
  FOREIGN KEY (conference_id, name) REFERENCES expertise_areas(conference_id, name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  actor_id TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_conference ON projects(conference_id);
CREATE INDEX IF NOT EXISTS idx_criteria_conference ON evaluation_criteria(conference_id, sort_order);
CREATE INDEX IF NOT EXISTS idx_evaluations_judge ON evaluations(judge_id);
CREATE INDEX IF NOT EXISTS idx_event_log_key ON event_log(key);
`
