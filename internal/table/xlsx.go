package table

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxDecoder struct{}

func (xlsxDecoder) Format() Format { return FormatXLSX }

// Decode reads the selected sheet. Cells are read raw so numbers keep their
// stored precision instead of the display format.
func (xlsxDecoder) Decode(data []byte, opt Options) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := resolveSheet(f.GetSheetList(), opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, nil, err
	}
	all, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(all) == 0 || len(all[0]) == 0 {
		return nil, nil, ErrEmptyInput
	}
	header := all[0]
	rows := make([][]string, 0, len(all)-1)
	for _, r := range all[1:] {
		// excelize reports blank rows between data rows as empty slices.
		if len(r) == 0 {
			continue
		}
		rows = append(rows, r)
	}
	return header, rows, nil
}

// resolveSheet picks a sheet by case-insensitive name, else by 1-based index,
// defaulting to the first sheet.
func resolveSheet(sheets []string, name string, index int) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found.\nAvailable sheets: %s", name, strings.Join(sheets, ", "))
	}
	if index <= 0 {
		index = 1
	}
	if index > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", index, len(sheets))
	}
	return sheets[index-1], nil
}
