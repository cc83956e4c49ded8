package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"dataset-service/internal/models"
	"dataset-service/utils"

	"github.com/xuri/excelize/v2"
)

// Parse converts uploaded bytes into the canonical record slice, dispatched
// by the file name suffix. An empty body is not an error and yields zero
// records. The returned format is what gets persisted on the dataset.
func Parse(data []byte, fileName string) (utils.JSONMapSlice, models.SourceFormat, error) {
	name := strings.ToLower(strings.TrimSpace(fileName))

	var format models.SourceFormat
	switch {
	case strings.HasSuffix(name, ".csv"):
		format = models.SourceFormatCSV
	case strings.HasSuffix(name, ".xlsx"), strings.HasSuffix(name, ".xls"):
		format = models.SourceFormatExcel
	case strings.HasSuffix(name, ".json"):
		format = models.SourceFormatJSON
	default:
		return nil, models.SourceFormatNone, models.ErrUnsupportedFormat
	}

	records, err := parseFormat(data, format)
	if err != nil {
		return nil, models.SourceFormatNone, err
	}
	return records, format, nil
}

// ParseInline handles the no-file path: an inline structured payload, given
// either as a JSON object or array (or their textual encoding). It follows
// the structured-document rules and is stored under the json format code.
func ParseInline(raw []byte) (utils.JSONMapSlice, models.SourceFormat, error) {
	records, err := parseJSON(raw)
	if err != nil {
		return nil, models.SourceFormatNone, err
	}
	return records, models.SourceFormatJSON, nil
}

func parseFormat(data []byte, format models.SourceFormat) (utils.JSONMapSlice, error) {
	switch format {
	case models.SourceFormatCSV:
		return parseCSV(data)
	case models.SourceFormatExcel:
		return parseExcel(data)
	case models.SourceFormatJSON:
		return parseJSON(data)
	default:
		return nil, models.ErrUnsupportedFormat
	}
}

// parseCSV treats the first row as the field-name header and keeps every
// value as text. Ragged rows are tolerated: extra cells are dropped and
// missing cells leave the field out of that record.
func parseCSV(data []byte) (utils.JSONMapSlice, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make(utils.JSONMapSlice, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := utils.JSONMap{}
		for i, field := range header {
			if i >= len(row) {
				break
			}
			record[field] = row[i]
		}
		records = append(records, record)
	}
	return records, nil
}

// parseExcel reads only the first sheet of the workbook, first row as
// header, same row-to-record mapping as CSV. An empty body never reaches
// the zip reader, which would reject it; it yields zero records like the
// other formats.
func parseExcel(data []byte) (utils.JSONMapSlice, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make(utils.JSONMapSlice, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := utils.JSONMap{}
		for i, field := range header {
			if i >= len(row) {
				break
			}
			record[field] = row[i]
		}
		records = append(records, record)
	}
	return records, nil
}

// parseJSON decodes the bytes as a single structured value: an array
// becomes the record slice as-is, a single object is wrapped as a
// one-element slice. Anything else is malformed.
func parseJSON(data []byte) (utils.JSONMapSlice, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var records utils.JSONMapSlice
	if err := json.Unmarshal(trimmed, &records); err == nil {
		return records, nil
	}

	var single utils.JSONMap
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}
	return utils.JSONMapSlice{single}, nil
}
