package rubric

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"
)

// Column names with fixed meaning in the auxiliary spreadsheet.
const (
	AuxKey         = "SID"
	AuxComments    = "Comments"
	AuxAdjustments = "Adjustments"
)

// identity columns duplicated from the roster; dropped on load.
var auxDropped = map[string]struct{}{
	"First Name": {},
	"Last Name":  {},
	"Email":      {},
}

// AuxTable is the per-course spreadsheet of extra fields keyed by student id.
type AuxTable struct {
	// Fields are the numeric columns in sheet order.
	Fields      []string
	HasComments bool
	Rows        []AuxRow
}

type AuxRow struct {
	SID      int64
	Values   map[string]null.Float64
	Comments null.String
}

// LoadAux reads the raw cell values of the first sheet of an .xlsx workbook,
// ignoring number formats. The header row must contain SID; rows whose SID is
// not a whole number are skipped. Blank or non-numeric cells are null.
func LoadAux(r io.Reader) (*AuxTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheets[0])
	}
	return parseAux(rows)
}

func parseAux(rows [][]string) (*AuxTable, error) {
	if len(rows) == 0 {
		return nil, errors.New("spreadsheet is empty")
	}
	header := make([]string, len(rows[0]))
	keyCol := -1
	t := &AuxTable{}
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		header[i] = h
		switch {
		case h == AuxKey:
			keyCol = i
		case h == AuxComments:
			t.HasComments = true
		case h == "":
		default:
			if _, drop := auxDropped[h]; !drop {
				t.Fields = append(t.Fields, h)
			}
		}
	}
	if keyCol < 0 {
		return nil, errors.Errorf("spreadsheet has no %s column", AuxKey)
	}

	for _, rec := range rows[1:] {
		if keyCol >= len(rec) {
			continue
		}
		sid, ok := parseSID(rec[keyCol])
		if !ok {
			continue
		}
		row := AuxRow{SID: sid, Values: make(map[string]null.Float64, len(t.Fields))}
		for i, h := range header {
			if i == keyCol || i >= len(rec) {
				continue
			}
			v := strings.TrimSpace(rec[i])
			switch {
			case h == AuxComments:
				if v != "" {
					row.Comments = null.StringFrom(v)
				}
			case h == "":
			default:
				if _, drop := auxDropped[h]; drop {
					continue
				}
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					row.Values[h] = null.Float64From(n)
				}
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// parseSID accepts integer ids stored as floats ("12345678.0").
func parseSID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	return int64(v), true
}
