package history

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id            TEXT PRIMARY KEY,
	log_path          TEXT NOT NULL,
	log_sha256        TEXT NOT NULL,
	payment_type      TEXT NOT NULL,
	recorded_at       TEXT NOT NULL,
	attempts          INTEGER NOT NULL,
	successful        INTEGER NOT NULL,
	total_size_kb     INTEGER NOT NULL,
	total_seconds     REAL NOT NULL,
	total_chunks      INTEGER NOT NULL,
	successful_chunks INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
	run_id            TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq               INTEGER NOT NULL,
	file_name         TEXT NOT NULL,
	size_kb           INTEGER NOT NULL,
	success           INTEGER NOT NULL,
	address           TEXT,
	duration_seconds  REAL NOT NULL,
	start_time        TEXT NOT NULL,
	total_chunks      INTEGER,
	successful_chunks INTEGER,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_recorded_at ON runs(recorded_at);
CREATE INDEX IF NOT EXISTS idx_attempts_file_name ON attempts(file_name);
`
