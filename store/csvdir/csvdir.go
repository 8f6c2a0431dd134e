/*
Package csvdir implements registry.TableStore over a directory of CSV files.

PURPOSE:
  A workbook exported from a spreadsheet tool is usually a folder of CSVs,
  one per sheet. This store reads and writes that layout so an operator can
  run a sync against an export and re-import the result.

LAYOUT:
  <dir>/<sheet>.csv, row 0 is the header.

ENCODING:
  Files are decoded on read: UTF-8 (with or without BOM), UTF-16 with BOM,
  and Latin-1 as a fallback for bytes that are not valid UTF-8. Files are
  always written back as UTF-8 without a BOM.

RAGGED ROWS:
  Short rows are padded with empty cells up to the header width; rows longer
  than the header are kept whole so no data is lost on rewrite.

SEE ALSO:
  - store/grid.go: cell-grid arithmetic shared with the other stores
*/
package csvdir

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/warp/reminder-engine/registry"
	"github.com/warp/reminder-engine/store"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Store keeps one CSV file per sheet under Dir.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New returns a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workbook dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the workbook directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(sheet string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(sheet)
	return filepath.Join(s.dir, name+".csv")
}

func (s *Store) ReadTable(_ context.Context, sheet string) (registry.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.load(sheet)
	if err != nil {
		return registry.Table{}, err
	}
	return g.Table(), nil
}

func (s *Store) WriteRange(_ context.Context, r registry.Range, cells [][]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.load(r.Sheet)
	if err != nil && !errors.Is(err, registry.ErrSheetNotFound) {
		return err
	}
	return s.save(r.Sheet, g.Write(r, cells))
}

func (s *Store) AppendRow(_ context.Context, sheet string, cells []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.load(sheet)
	if err != nil && !errors.Is(err, registry.ErrSheetNotFound) {
		return err
	}
	return s.save(sheet, g.Append(cells))
}

func (s *Store) EnsureSheet(_ context.Context, sheet string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path(sheet), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, f.Close()
}

// =============================================================================
// FILE I/O
// =============================================================================

func (s *Store) load(sheet string) (store.Grid, error) {
	data, err := os.ReadFile(s.path(sheet))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, registry.ErrSheetNotFound
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// save writes to a temp file then renames it over the sheet so a crash
// never leaves a half-written sheet behind.
func (s *Store) save(sheet string, g store.Grid) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range g {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = registry.CellText(v)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".sheet-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(sheet))
}

// =============================================================================
// PARSING
// =============================================================================

// Parse decodes CSV bytes in any supported encoding into a grid of string
// cells, padding short rows to the header width.
func Parse(data []byte) (store.Grid, error) {
	decoded, _, err := DetectAndDecode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var g store.Grid
	width := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(g)+1, err)
		}
		if len(g) == 0 {
			width = len(rec)
		}
		if len(rec) < width {
			padded := make([]string, width)
			copy(padded, rec)
			rec = padded
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		g = append(g, row)
	}
	return g, nil
}

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// DetectAndDecode strips a BOM and converts the data to UTF-8, returning
// the detected encoding name.
func DetectAndDecode(data []byte) ([]byte, string, error) {
	switch {
	case len(data) == 0:
		return data, "utf-8", nil
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], "utf-8-bom", nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		out, err := decode(data, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		return out, "utf-16le", err
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		out, err := decode(data, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
		return out, "utf-16be", err
	case utf8.Valid(data):
		return data, "utf-8", nil
	default:
		out, err := decode(data, charmap.ISO8859_1.NewDecoder())
		return out, "latin-1", err
	}
}

func decode(data []byte, t transform.Transformer) ([]byte, error) {
	out, _, err := transform.Bytes(t, data)
	return out, err
}

var _ registry.TableStore = (*Store)(nil)
