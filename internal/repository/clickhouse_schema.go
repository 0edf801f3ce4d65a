package repository

// ClickHouseSchema creates the price and result tables. Every statement is
// idempotent.
var ClickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS commodity_prices (
        commodity LowCardinality(String),
        day       Date,
        price     Float64
    ) ENGINE = ReplacingMergeTree
    ORDER BY (commodity, day)`,
	`CREATE TABLE IF NOT EXISTS lag_r2 (
        run_id       String,
        generated_at DateTime,
        commodity    LowCardinality(String),
        lag          UInt16,
        r2           Float64
    ) ENGINE = MergeTree
    ORDER BY (run_id, commodity, lag)`,
	`CREATE TABLE IF NOT EXISTS forecasts (
        run_id       String,
        generated_at DateTime,
        rank         UInt16,
        commodity    LowCardinality(String),
        best_lag     UInt16,
        r2           Float64,
        price        Float64,
        growth       Float64
    ) ENGINE = MergeTree
    ORDER BY (run_id, rank)`,
}
