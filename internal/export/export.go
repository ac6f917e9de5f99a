// Package export serializes tables into single-sheet XLSX workbooks.
package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the only sheet in every exported workbook.
const SheetName = "Sheet1"

// Table is anything with a header row and addressable cells.
type Table interface {
	Header() []string
	Len() int
	Cell(row, col int) any
}

// XLSX writes t to a workbook with one sheet, a header row and no index
// column. Either the whole blob is returned or a *SerializationError.
func XLSX(t Table) ([]byte, error) {
	header := t.Header()
	if err := validate(t, header); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, fmt.Errorf("stream writer: %w", err)
	}
	row := make([]any, len(header))
	for j, h := range header {
		row[j] = h
	}
	if err := sw.SetRow("A1", row); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.Len(); i++ {
		row := make([]any, len(header))
		for j := range header {
			row[j] = t.Cell(i, j)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, &SerializationError{Row: i, Reason: err.Error()}
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// validate rejects cells the workbook cannot represent before anything is written.
func validate(t Table, header []string) error {
	for i := 0; i < t.Len(); i++ {
		for j := range header {
			v := t.Cell(i, j)
			switch x := v.(type) {
			case nil, string, bool, time.Time,
				int, int8, int16, int32, int64,
				uint, uint8, uint16, uint32, uint64:
			case float64:
				if math.IsNaN(x) || math.IsInf(x, 0) {
					return &SerializationError{Column: header[j], Row: i, Value: v, Reason: "non-finite number"}
				}
			case float32:
				if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
					return &SerializationError{Column: header[j], Row: i, Value: v, Reason: "non-finite number"}
				}
			default:
				return &SerializationError{Column: header[j], Row: i, Value: v, Reason: fmt.Sprintf("unsupported type %T", v)}
			}
		}
	}
	return nil
}

// Digest hashes a table's header and cells. Blobs are a pure function of it.
func Digest(t Table) string {
	h := sha256.New()
	h.Write([]byte("telefilter/export/v1"))
	header := t.Header()
	for _, name := range header {
		fmt.Fprintf(h, "\x00h%q", name)
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(t.Len()))
	h.Write(b[:])
	for i := 0; i < t.Len(); i++ {
		for j := range header {
			switch x := t.Cell(i, j).(type) {
			case nil:
				h.Write([]byte{0, 'n'})
			case float64:
				binary.LittleEndian.PutUint64(b[:], math.Float64bits(x))
				h.Write([]byte{0, 'f'})
				h.Write(b[:])
			case string:
				fmt.Fprintf(h, "\x00s%q", x)
			default:
				fmt.Fprintf(h, "\x00%T%v", x, x)
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ReadXLSX reads back the first sheet of a workbook as a header and raw rows.
func ReadXLSX(blob []byte) (header []string, rows [][]string, err error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	all, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}
