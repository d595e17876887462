package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pable/go-padel-metrics/internal/model"
)

// ErrNoHeader is returned for a feed without a header row.
var ErrNoHeader = errors.New("feed has no header row")

// CSVFile reads a local CSV export of the match sheet.
type CSVFile struct {
	Path string
}

func (f *CSVFile) ID() string {
	if abs, err := filepath.Abs(f.Path); err == nil {
		return "file:" + abs
	}
	return "file:" + f.Path
}

func (f *CSVFile) Rows(ctx context.Context) ([]model.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer fh.Close()
	return ParseCSV(fh)
}

// ParseCSV reads a header row followed by data rows. The delimiter is
// detected from the header line among comma, semicolon and tab. Blank lines
// are skipped; short rows leave their trailing columns absent.
func ParseCSV(r io.Reader) ([]model.RawRow, error) {
	br := bufio.NewReader(r)
	head, err := peekLine(br)
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	head = bytes.TrimPrefix(head, []byte("\ufeff"))
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, ErrNoHeader
	}

	cr := csv.NewReader(br)
	cr.Comma = detectDelimiter(string(head))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = model.CanonicalColumn(h)
	}

	var out []model.RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if blank(rec) {
			continue
		}
		values := make(map[string]string, len(cols))
		for i, c := range cols {
			if c == "" || i >= len(rec) {
				continue
			}
			values[c] = rec[i]
		}
		out = append(out, model.RawRow{Line: len(out) + 1, Values: values})
	}
	return out, nil
}

// peekLine returns the first line without consuming it.
func peekLine(br *bufio.Reader) ([]byte, error) {
	for n := 512; ; n *= 2 {
		buf, err := br.Peek(n)
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			return buf[:i], nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, bufio.ErrBufferFull) {
				return buf, nil
			}
			return nil, err
		}
	}
}

func detectDelimiter(header string) rune {
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
