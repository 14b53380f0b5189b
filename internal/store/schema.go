package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS readings (
    file_path            TEXT NOT NULL,
    seq                  INTEGER NOT NULL,
    tank_id              INTEGER NOT NULL,
    ts                   TEXT,
    consumption          REAL,
    fill_level           REAL,
    max_capacity         REAL,
    percent              REAL,
    temperature          REAL,
    plz                  TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (file_path, seq)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS oil_prices (
    plz                  TEXT NOT NULL,
    date                 TEXT NOT NULL,
    price                REAL NOT NULL,
    unit                 TEXT NOT NULL,
    fetched_at           TEXT NOT NULL,
    PRIMARY KEY (plz, date)
);

CREATE TABLE IF NOT EXISTS price_fetches (
    plz                  TEXT PRIMARY KEY,
    from_date            TEXT NOT NULL,
    to_date              TEXT NOT NULL,
    fetched_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_readings_tank ON readings(tank_id, ts);
`
