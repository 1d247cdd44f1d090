package history

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notifications (
    app_id     TEXT NOT NULL,
    grp        TEXT NOT NULL,
    tag        TEXT NOT NULL,
    server_id  INTEGER NOT NULL DEFAULT 0,
    title      TEXT NOT NULL DEFAULT '',
    body       TEXT NOT NULL DEFAULT '',
    outcome    TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (app_id, grp, tag)
);
CREATE INDEX IF NOT EXISTS idx_notifications_updated_at ON notifications(updated_at);
`
