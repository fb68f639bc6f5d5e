package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pbaille/ulasan/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes d as UTF-8 CSV with a byte-order mark and a header row
func WriteCSV(path string, d domain.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	if err := EncodeCSV(f, d); err != nil {
		return err
	}
	return f.Close()
}

// EncodeCSV writes the BOM, the header and one record per row
func EncodeCSV(w io.Writer, d domain.Dataset) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range d {
		record := []string{
			r.Username,
			strconv.Itoa(r.Rating),
			r.Review,
			r.Date,
			strconv.Itoa(r.ThumbsUp),
			string(r.Sentiment),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV loads a dataset written by WriteCSV
func ReadCSV(path string) (domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return DecodeCSV(f)
}

// DecodeCSV parses a dataset, locating columns by header name. The
// sentiment is derived from the rating; a sentiment column that
// disagrees is an error.
func DecodeCSV(r io.Reader) (domain.Dataset, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	header, err := cr.Read()
	if err == io.EOF {
		return domain.Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"review", "rating"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		if i, ok := idx[name]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}

	d := domain.Dataset{}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		rating, err := strconv.Atoi(strings.TrimSpace(field(record, "rating")))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid rating: %w", line, err)
		}

		thumbs := 0
		if v := strings.TrimSpace(field(record, "thumbs_up")); v != "" {
			if thumbs, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("line %d: invalid thumbs_up: %w", line, err)
			}
		}

		row := domain.LabeledReview{
			Username:  field(record, "username"),
			Rating:    rating,
			Review:    field(record, "review"),
			Date:      field(record, "date"),
			ThumbsUp:  thumbs,
			Sentiment: domain.Label(rating),
		}
		if s := strings.TrimSpace(field(record, "sentiment")); s != "" && domain.Sentiment(s) != row.Sentiment {
			return nil, fmt.Errorf("line %d: sentiment %q does not match rating %d", line, s, rating)
		}

		d = append(d, row)
	}

	return d, nil
}
