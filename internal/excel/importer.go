package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/frenchbot/internal/deckplan"
	"github.com/example/frenchbot/internal/logger"
	"github.com/example/frenchbot/pkg/models"
)

// WordStore persists imported words.
type WordStore interface {
	Upsert(ctx context.Context, word *models.Word) (bool, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FrenchColumn       string // Column with the French word
	EnglishColumn      string // Column with the English translation
	LevelColumn        string // Column with the CEFR level
	CategoryColumn     string
	SubcategoryColumn  string
	PartOfSpeechColumn string
	GenderColumn       string
	ExampleColumn      string
	NotesColumn        string
	SheetName          string // Empty means the first sheet
	StartRow           int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		FrenchColumn:       "A",
		EnglishColumn:      "B",
		LevelColumn:        "C",
		CategoryColumn:     "D",
		SubcategoryColumn:  "E",
		PartOfSpeechColumn: "F",
		GenderColumn:       "G",
		ExampleColumn:      "H",
		NotesColumn:        "I",
		StartRow:           2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// RowError describes a rejected row.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("Row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

var (
	ErrMissingFrench  = errors.New("french word cannot be empty")
	ErrMissingEnglish = errors.New("english translation cannot be empty")
	ErrUnknownLevel   = errors.New("unknown level")
	ErrUnsupported    = errors.New("unsupported file type")
)

type columns struct {
	french, english, level, category, subcategory, pos, gender, example, notes int
}

// Importer loads vocabulary spreadsheets into the word store.
type Importer struct {
	words  WordStore
	config ImportConfig
	cols   columns
	log    *logger.Logger
}

// NewImporter validates the column layout of config.
func NewImporter(words WordStore, config ImportConfig, log *logger.Logger) (*Importer, error) {
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	if log == nil {
		log = logger.NewNop()
	}

	var cols columns
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{config.FrenchColumn, &cols.french},
		{config.EnglishColumn, &cols.english},
		{config.LevelColumn, &cols.level},
		{config.CategoryColumn, &cols.category},
		{config.SubcategoryColumn, &cols.subcategory},
		{config.PartOfSpeechColumn, &cols.pos},
		{config.GenderColumn, &cols.gender},
		{config.ExampleColumn, &cols.example},
		{config.NotesColumn, &cols.notes},
	} {
		if c.name == "" {
			*c.dst = -1
			continue
		}
		n, err := excelize.ColumnNameToNumber(c.name)
		if err != nil {
			return nil, fmt.Errorf("invalid column %q: %w", c.name, err)
		}
		*c.dst = n - 1
	}
	if cols.french < 0 || cols.english < 0 || cols.level < 0 {
		return nil, errors.New("french, english and level columns are required")
	}

	return &Importer{words: words, config: config, cols: cols, log: log.With("component", "import")}, nil
}

// ImportFile imports words from an Excel or CSV file
func (im *Importer) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return im.Import(ctx, file, filepath.Base(path))
}

// Import reads a document whose type is taken from name's extension.
func (im *Importer) Import(ctx context.Context, r io.Reader, name string) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		rows, err = im.readExcel(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		// Skip header rows
		if i < im.config.StartRow-1 || blankRow(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.TotalProcessed++
		created, err := im.processRow(ctx, row)
		switch {
		case err != nil:
			result.Skipped++
			result.Errors = append(result.Errors, (&RowError{Row: i + 1, Err: err}).Error())
		case created:
			result.Created++
		default:
			result.Updated++
		}
	}

	im.log.Info("import finished", "file", name, "processed", result.TotalProcessed,
		"created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

func (im *Importer) readExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := im.config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

// processRow upserts one row and reports whether the word is new.
func (im *Importer) processRow(ctx context.Context, row []string) (bool, error) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	word := &models.Word{
		French:          cleanWord(cell(im.cols.french)),
		English:         cell(im.cols.english),
		Level:           strings.ToUpper(cell(im.cols.level)),
		Category:        strings.ToLower(cell(im.cols.category)),
		Subcategory:     strings.ToLower(cell(im.cols.subcategory)),
		PartOfSpeech:    strings.ToLower(cell(im.cols.pos)),
		Gender:          normalizeGender(cell(im.cols.gender)),
		ExampleSentence: cell(im.cols.example),
		Notes:           cell(im.cols.notes),
	}

	switch {
	case word.French == "":
		return false, ErrMissingFrench
	case word.English == "":
		return false, ErrMissingEnglish
	case !deckplan.IsLevel(word.Level):
		return false, fmt.Errorf("%w %q", ErrUnknownLevel, word.Level)
	}

	created, err := im.words.Upsert(ctx, word)
	if err != nil {
		return false, fmt.Errorf("failed to save word: %w", err)
	}
	return created, nil
}

// cleanWord drops trailing annotations in parentheses, "aller (irr.)" becomes "aller".
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

func normalizeGender(g string) string {
	switch strings.ToLower(strings.TrimSpace(g)) {
	case "m", "masc", "masculine", "masculin":
		return "m"
	case "f", "fem", "feminine", "féminin":
		return "f"
	default:
		return ""
	}
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
