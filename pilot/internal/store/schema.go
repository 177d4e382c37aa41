package store

// Schema holds run reports. Payloads (account, secret, title and body
// text typed into fields) are never stored; outcomes keep candidate
// locators and error text only.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL DEFAULT '',
    state       TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    steps       INTEGER NOT NULL DEFAULT 0,
    started_at  INTEGER NOT NULL,
    elapsed_ms  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

CREATE TABLE IF NOT EXISTS outcomes (
    run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq           INTEGER NOT NULL,
    step          TEXT NOT NULL,
    action        TEXT NOT NULL,
    state         TEXT NOT NULL,
    success       INTEGER NOT NULL,
    matched_kind  TEXT NOT NULL DEFAULT '',
    matched_expr  TEXT NOT NULL DEFAULT '',
    matched_label TEXT NOT NULL DEFAULT '',
    trail_json    TEXT NOT NULL DEFAULT '[]',
    attempts_json TEXT NOT NULL DEFAULT '[]',
    warning       TEXT NOT NULL DEFAULT '',
    error         TEXT NOT NULL DEFAULT '',
    dismissed     INTEGER NOT NULL DEFAULT 0,
    typed         INTEGER NOT NULL DEFAULT 0,
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_outcomes_match ON outcomes(step, matched_expr);
`
