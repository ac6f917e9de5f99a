package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrEmptyInput is returned when the input holds no header row.
	ErrEmptyInput = errors.New("empty input")
	// ErrSeparator is returned when the header does not split on the delimiter.
	ErrSeparator = errors.New("separator mismatch")
	// ErrEncoding is returned when the bytes are not valid in the declared encoding.
	ErrEncoding = errors.New("invalid text encoding")
	// ErrBinary is returned for archives, which single-byte encodings would otherwise accept.
	ErrBinary = errors.New("binary input")
)

var zipMagic = []byte("PK\x03\x04")

type csvDecoder struct{}

func (csvDecoder) Format() Format { return FormatCSV }

func (csvDecoder) Decode(data []byte, opt Options) ([]string, [][]string, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return nil, nil, ErrBinary
	}
	text, err := decodeText(data, opt.Encoding)
	if err != nil {
		return nil, nil, err
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = ';'
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrEmptyInput
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	if ncol < 2 {
		return nil, nil, fmt.Errorf("%w: header has %d column using %q", ErrSeparator, ncol, delim)
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if len(rec) > ncol {
			return nil, nil, fmt.Errorf("row %d: expected %d fields, saw %d", len(rows)+1, ncol, len(rec))
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

// decodeText converts the upload to a UTF-8 string.
func decodeText(data []byte, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
		if !utf8.Valid(data) {
			return "", ErrEncoding
		}
		return string(data), nil
	case "latin1", "latin-1", "iso-8859-1":
		b, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return string(b), nil
	case "windows-1252", "cp1252":
		b, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
