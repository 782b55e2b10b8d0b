package database

// ClientDataSchema creates one blob table per cached provider endpoint.
// Keys are request fingerprints; data is a msgpack-encoded payload.
const ClientDataSchema = `
CREATE TABLE IF NOT EXISTS tushare_daily (
	request_key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tushare_monthly (
	request_key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tushare_index_daily (
	request_key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tushare_index_weight (
	request_key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tushare_stock_basic (
	request_key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tushare_daily_expires ON tushare_daily(expires_at);
CREATE INDEX IF NOT EXISTS idx_tushare_monthly_expires ON tushare_monthly(expires_at);
CREATE INDEX IF NOT EXISTS idx_tushare_index_daily_expires ON tushare_index_daily(expires_at);
CREATE INDEX IF NOT EXISTS idx_tushare_index_weight_expires ON tushare_index_weight(expires_at);
CREATE INDEX IF NOT EXISTS idx_tushare_stock_basic_expires ON tushare_stock_basic(expires_at);
`

// schemas maps database names to their schema.
var schemas = map[string]string{
	"client_data": ClientDataSchema,
}
