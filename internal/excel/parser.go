package excel

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/identity"
	"github.com/meqenet/meqenet-back/internal/logger"
)

// Roster columns, matched case-insensitively against the header row.
const (
	colFirstName  = "first_name"
	colLastName   = "last_name"
	colDOB        = "date_of_birth"
	colGrade      = "grade_level"
	colIdentifier = "unique_identifier"
)

// Row is one learner read from a roster sheet. Line is 1-based.
type Row struct {
	Sheet    string
	SchoolID uint
	Line     int
	Input    identity.LearnerInput
}

type RowError struct {
	Sheet string `json:"sheet"`
	Line  int    `json:"line"`
	Cause string `json:"cause"`
}

type Result struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

// ParseRoster reads every sheet of the workbook. A sheet named by a number
// belongs to that school id; any other sheet belongs to defaultSchoolID, and
// is ignored when defaultSchoolID is 0.
func ParseRoster(f *excelize.File, defaultSchoolID uint) ([]Row, []RowError, error) {
	var rows []Row
	var bad []RowError

	for _, sheet := range f.GetSheetList() {
		schoolID := defaultSchoolID
		if id, err := strconv.ParseUint(strings.TrimSpace(sheet), 10, 32); err == nil {
			schoolID = uint(id)
		}
		if schoolID == 0 {
			continue
		}

		cells, err := f.GetRows(sheet)
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if len(cells) == 0 {
			continue
		}

		cols := headerIndex(cells[0])
		if _, ok := cols[colFirstName]; !ok {
			bad = append(bad, RowError{Sheet: sheet, Line: 1, Cause: "missing first_name column"})
			continue
		}

		for i, record := range cells[1:] {
			line := i + 2
			if blank(record) {
				continue
			}
			in := identity.LearnerInput{
				SchoolID:         schoolID,
				FirstName:        cell(record, cols, colFirstName),
				LastName:         cell(record, cols, colLastName),
				DateOfBirth:      cell(record, cols, colDOB),
				UniqueIdentifier: cell(record, cols, colIdentifier),
			}
			if raw := cell(record, cols, colGrade); raw != "" {
				grade, err := strconv.Atoi(raw)
				if err != nil {
					bad = append(bad, RowError{Sheet: sheet, Line: line, Cause: "grade_level is not a number"})
					continue
				}
				in.GradeLevel = grade
			}
			rows = append(rows, Row{Sheet: sheet, SchoolID: schoolID, Line: line, Input: in})
		}
	}
	return rows, bad, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
		if key != "" {
			cols[key] = i
		}
	}
	return cols
}

func cell(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Importer loads roster workbooks into the identity store. Learners already
// known by (school, unique_identifier) are skipped.
type Importer struct {
	learners *identity.Service
	log      *logger.Logger
}

func NewImporter(learners *identity.Service, log *logger.Logger) *Importer {
	return &Importer{learners: learners, log: log.With("service", "roster_import")}
}

// ImportFile loads a workbook from disk. Sheets named by a school id go to
// that school.
func (im *Importer) ImportFile(ctx context.Context, path string, defaultSchoolID uint) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open roster %s: %w", path, err)
	}
	defer f.Close()
	return im.importWorkbook(ctx, f, defaultSchoolID, 0)
}

// ImportReader loads an uploaded workbook into schoolID only. Sheets named
// after any other school are rejected row by row.
func (im *Importer) ImportReader(ctx context.Context, r io.Reader, schoolID uint) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierr.Validation("invalid_file", "File is not a readable .xlsx workbook.")
	}
	defer f.Close()
	return im.importWorkbook(ctx, f, schoolID, schoolID)
}

// importWorkbook imports every parsed row. A non-zero onlySchool restricts
// the import to that school.
func (im *Importer) importWorkbook(ctx context.Context, f *excelize.File, defaultSchoolID, onlySchool uint) (*Result, error) {
	rows, bad, err := ParseRoster(f, defaultSchoolID)
	if err != nil {
		return nil, err
	}
	res := &Result{Errors: bad, Skipped: len(bad)}

	rejected := make(map[string]bool)
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if onlySchool != 0 && row.SchoolID != onlySchool {
			res.Skipped++
			if !rejected[row.Sheet] {
				rejected[row.Sheet] = true
				res.Errors = append(res.Errors, RowError{Sheet: row.Sheet, Line: row.Line, Cause: fmt.Sprintf("sheet targets school %d; uploads may only add learners to school %d", row.SchoolID, onlySchool)})
				im.log.Warn("Roster sheet for another school rejected", "sheet", row.Sheet, "sheet_school", row.SchoolID, "school_id", onlySchool)
			}
			continue
		}
		_, created, err := im.learners.ImportLearner(ctx, row.Input)
		switch {
		case err != nil && apierr.KindOf(err) == apierr.KindInternal:
			return res, err
		case err != nil:
			res.Skipped++
			res.Errors = append(res.Errors, RowError{Sheet: row.Sheet, Line: row.Line, Cause: apierr.From(err).Message})
		case created:
			res.Imported++
		default:
			res.Skipped++
		}
	}

	im.log.Info("Roster imported", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}
