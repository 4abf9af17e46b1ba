package credentials

// Schema is the DDL for the credential store.
const Schema = `
CREATE TABLE IF NOT EXISTS credentials (
    user_id        TEXT NOT NULL,
    service        TEXT NOT NULL,
    access_token   TEXT NOT NULL,
    refresh_token  TEXT NOT NULL DEFAULT '',
    expiry         TEXT NOT NULL DEFAULT '',
    account_email  TEXT NOT NULL DEFAULT '',
    scopes         TEXT NOT NULL DEFAULT '',
    created_at     TEXT NOT NULL,
    updated_at     TEXT NOT NULL,
    PRIMARY KEY (user_id, service)
);

CREATE INDEX IF NOT EXISTS idx_credentials_user ON credentials(user_id);
`
