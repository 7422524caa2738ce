package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite journals into a database file. Records written through it are
// tagged with its run ID.
type SQLite struct {
	db    *sql.DB
	runID string
}

func NewSQLite(path, runID string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db, runID: runID}, nil
}

func (j *SQLite) RunID() string { return j.runID }

func (j *SQLite) RecordTrade(t TradeRecord) error {
	runID := t.RunID
	if runID == "" {
		runID = j.runID
	}
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, type, size, profit, entry_price, exit_price, cost, entry_time, exit_time, run_up, draw_down)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, runID, t.Type, t.Size, t.Profit, t.Entry, t.Exit, t.Cost,
		t.EntryTime.UTC(), t.ExitTime.UTC(), t.RunUp, t.DrawDown,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, equity, position, trades)
		VALUES (?, ?, ?, ?, ?)`,
		j.runID, e.Time.UTC(), e.Equity, e.Position, e.Trades,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
