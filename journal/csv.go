package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var TradeHeader = []string{"Type", "Size", "Profit", "Entry", "Exit", "Cost", "EntryTime", "ExitTime", "RunUp", "DrawDown"}

var EquityHeader = []string{"Time", "Equity", "Position", "Trades"}

// CSVJournal writes one flushed line per record. The equity file is optional.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

// NewCSV creates (truncating) the trade log at tradesPath and, when
// equityPath is not empty, the equity log.
func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	j := &CSVJournal{tf: tf, trades: csv.NewWriter(tf)}

	if err := writeRow(j.trades, TradeHeader); err != nil {
		tf.Close()
		return nil, err
	}

	if equityPath != "" {
		ef, err := os.Create(equityPath)
		if err != nil {
			tf.Close()
			return nil, err
		}
		j.ef = ef
		j.equity = csv.NewWriter(ef)
		if err := writeRow(j.equity, EquityHeader); err != nil {
			j.Close()
			return nil, err
		}
	}
	return j, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return writeRow(j.trades, []string{
		t.Type,
		strconv.Itoa(t.Size),
		f(t.Profit),
		f(t.Entry),
		f(t.Exit),
		f(t.Cost),
		t.EntryTime.Format(TimeLayout),
		t.ExitTime.Format(TimeLayout),
		f(t.RunUp),
		f(t.DrawDown),
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	if j.equity == nil {
		return nil
	}
	return writeRow(j.equity, []string{
		e.Time.Format(TimeLayout),
		f(e.Equity),
		strconv.Itoa(e.Position),
		strconv.Itoa(e.Trades),
	})
}

// Close flushes and closes both files, returning the first error.
func (j *CSVJournal) Close() error {
	err := closeWriter(j.trades, j.tf)
	if j.equity != nil {
		if eerr := closeWriter(j.equity, j.ef); err == nil {
			err = eerr
		}
	}
	return err
}

func closeWriter(w *csv.Writer, f *os.File) error {
	w.Flush()
	err := w.Error()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func writeRow(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// ReadTradesCSV loads a trade log written by CSVJournal.
func ReadTradesCSV(path string) ([]TradeRecord, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return readTrades(fh)
}

func readTrades(r io.Reader) ([]TradeRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var out []TradeRecord
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "type") {
			continue
		}
		rec, err := parseTradeRow(row)
		if err != nil {
			return nil, fmt.Errorf("trades line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func parseTradeRow(row []string) (TradeRecord, error) {
	if len(row) < len(TradeHeader) {
		return TradeRecord{}, fmt.Errorf("need %d columns, got %d", len(TradeHeader), len(row))
	}

	var (
		rec TradeRecord
		err error
	)
	rec.Type = strings.TrimSpace(row[0])
	if rec.Size, err = strconv.Atoi(strings.TrimSpace(row[1])); err != nil {
		return rec, fmt.Errorf("bad size %q: %w", row[1], err)
	}
	floats := []struct {
		dst *float64
		src string
	}{
		{&rec.Profit, row[2]},
		{&rec.Entry, row[3]},
		{&rec.Exit, row[4]},
		{&rec.Cost, row[5]},
		{&rec.RunUp, row[8]},
		{&rec.DrawDown, row[9]},
	}
	for _, fl := range floats {
		if *fl.dst, err = strconv.ParseFloat(strings.TrimSpace(fl.src), 64); err != nil {
			return rec, fmt.Errorf("bad number %q: %w", fl.src, err)
		}
	}
	if rec.EntryTime, err = time.Parse(TimeLayout, strings.TrimSpace(row[6])); err != nil {
		return rec, fmt.Errorf("bad entry time %q: %w", row[6], err)
	}
	if rec.ExitTime, err = time.Parse(TimeLayout, strings.TrimSpace(row[7])); err != nil {
		return rec, fmt.Errorf("bad exit time %q: %w", row[7], err)
	}
	return rec, nil
}
