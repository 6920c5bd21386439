package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/frenchbot/internal/database"
	"github.com/example/frenchbot/internal/logger"
)

var header = []interface{}{"French", "English", "Level", "Category", "Subcategory", "POS", "Gender", "Example", "Notes"}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range append([][]interface{}{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "words.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func newTestImporter(t *testing.T) (*Importer, *database.WordRepository) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	words := database.NewWordRepository(db)
	im, err := NewImporter(words, DefaultImportConfig(), logger.NewNop())
	require.NoError(t, err)
	return im, words
}

func TestImportExcel(t *testing.T) {
	im, words := newTestImporter(t)
	ctx := context.Background()

	path := writeWorkbook(t, [][]interface{}{
		{"la pomme", "apple", "a1", "Food", "fruit", "noun", "féminin", "Je mange une pomme.", ""},
		{"aller (irr.)", "to go", "A1", "verbs", "", "verb", "", "", "irregular"},
		{"", "empty", "A1"},
		{"le chat", "", "A1"},
		{"la loi", "law", "D1"},
		{},
		{"le chien", "dog", "A2", "animals"},
	})

	res, err := im.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalProcessed)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 3, res.Skipped)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], "Row 4")
	assert.Contains(t, res.Errors[1], "english translation")
	assert.Contains(t, res.Errors[2], `unknown level "D1"`)

	counts, err := words.CountByLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A1": 2, "A2": 1}, counts)

	w, err := words.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "la pomme", w.French)
	assert.Equal(t, "A1", w.Level)
	assert.Equal(t, "food", w.Category)
	assert.Equal(t, "f", w.Gender)

	w, err = words.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "aller", w.French)
	assert.Equal(t, "irregular", w.Notes)

	again, err := im.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 3, again.Updated)
}

func TestImportCSV(t *testing.T) {
	im, words := newTestImporter(t)
	ctx := context.Background()

	var b strings.Builder
	b.WriteString("french,english,level,category\n")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "mot %d,word %d,B1,general\n", i, i)
	}
	b.WriteString(`"le ""bon"" mot",the right word,b2,idioms` + "\n")

	res, err := im.Import(ctx, strings.NewReader(b.String()), "upload.CSV")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Created)
	assert.Empty(t, res.Errors)

	counts, err := words.CountByLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts["B1"])
	assert.Equal(t, 1, counts["B2"])
}

func TestImportRejectsUnknownType(t *testing.T) {
	im, _ := newTestImporter(t)
	_, err := im.Import(context.Background(), strings.NewReader("x"), "words.txt")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = im.ImportFile(context.Background(), filepath.Join(os.TempDir(), "does-not-exist.csv"))
	assert.Error(t, err)
}

func TestNewImporterValidatesColumns(t *testing.T) {
	cfg := DefaultImportConfig()
	cfg.LevelColumn = ""
	_, err := NewImporter(nil, cfg, nil)
	assert.Error(t, err)

	cfg = DefaultImportConfig()
	cfg.NotesColumn = "1A"
	_, err = NewImporter(nil, cfg, nil)
	assert.Error(t, err)
}

func TestNormalizeGender(t *testing.T) {
	assert.Equal(t, "m", normalizeGender("Masculin"))
	assert.Equal(t, "f", normalizeGender(" F "))
	assert.Equal(t, "", normalizeGender("n"))
}
