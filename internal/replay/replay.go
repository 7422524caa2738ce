package replay

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"github.com/rustyeddy/slipstream/market"
)

// Row is one line of a replay file: a bar plus an optional scripted event.
type Row struct {
	Bar   market.Bar
	Event string
	Args  []string
}

// Feed reads replay rows from CSV:
//
//	time,high,low[,close][,event,arg1,arg2,...]
//
// time is RFC3339 with optional fractional seconds. A header row starting
// with "time" is skipped, as are empty rows. A fourth column that does not
// parse as a number is taken as the event.
//
// Feed implements market.BarSource.
type Feed struct {
	closers []io.Closer
	r       *csv.Reader
	line    int
}

// Open opens path for replay, decompressing *.xz and *.lzma files.
func Open(path string) (*Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var in io.Reader = f
	switch {
	case strings.HasSuffix(path, ".xz"):
		in, err = xz.NewReader(f)
	case strings.HasSuffix(path, ".lzma"):
		in, err = lzma.NewReader(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	feed := NewFeed(in)
	feed.closers = append(feed.closers, f)
	return feed, nil
}

// NewFeed reads rows from r. The caller owns r.
func NewFeed(r io.Reader) *Feed {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Feed{r: cr}
}

func (f *Feed) Close() error {
	var first error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	f.closers = nil
	return first
}

// NextRow returns the next row. ok is false at end of input.
func (f *Feed) NextRow() (Row, bool, error) {
	for {
		rec, err := f.r.Read()
		if err == io.EOF {
			return Row{}, false, nil
		}
		if err != nil {
			return Row{}, false, err
		}
		f.line++

		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if f.line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "time") {
			continue
		}

		row, err := parseRow(rec)
		if err != nil {
			return Row{}, false, fmt.Errorf("line %d: %w", f.line, err)
		}
		return row, true, nil
	}
}

// Next returns the next bar, dropping any event on its row.
func (f *Feed) Next() (market.Bar, bool, error) {
	row, ok, err := f.NextRow()
	return row.Bar, ok, err
}

func parseRow(rec []string) (Row, error) {
	if len(rec) < 3 {
		return Row{}, fmt.Errorf("need at least 3 columns time,high,low, got %d", len(rec))
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}

	t, err := time.Parse(time.RFC3339Nano, rec[0])
	if err != nil {
		return Row{}, fmt.Errorf("bad time %q: %w", rec[0], err)
	}
	high, err := strconv.ParseFloat(rec[1], 64)
	if err != nil {
		return Row{}, fmt.Errorf("bad high %q: %w", rec[1], err)
	}
	low, err := strconv.ParseFloat(rec[2], 64)
	if err != nil {
		return Row{}, fmt.Errorf("bad low %q: %w", rec[2], err)
	}

	row := Row{Bar: market.Bar{Time: t, High: high, Low: low}}
	rest := rec[3:]
	if len(rest) > 0 {
		if rest[0] == "" {
			rest = rest[1:]
		} else if c, err := strconv.ParseFloat(rest[0], 64); err == nil {
			row.Bar.Close = c
			rest = rest[1:]
		}
	}
	if len(rest) > 0 && rest[0] != "" {
		row.Event = strings.ToUpper(rest[0])
		row.Args = trimTrailing(rest[1:])
	}
	return row, nil
}

func trimTrailing(args []string) []string {
	n := len(args)
	for n > 0 && args[n-1] == "" {
		n--
	}
	if n == 0 {
		return nil
	}
	return args[:n]
}
