package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Source loads the raw rows of a dataset.
type Source interface {
	Load(ctx context.Context, id ID) (*Table, error)
}

// FolderSource reads every *.csv file under Dir/<dataset> and concatenates them.
type FolderSource struct {
	Dir string
	// Encoding is an optional WHATWG encoding label (e.g. "windows-1252").
	Encoding string
}

// NewFolderSource returns a FolderSource rooted at dir.
func NewFolderSource(dir, encoding string) *FolderSource {
	return &FolderSource{Dir: dir, Encoding: encoding}
}

// Load concatenates the dataset's CSV files in file-name order. A folder
// whose files hold no data rows is unavailable.
func (s *FolderSource) Load(ctx context.Context, id ID) (*Table, error) {
	folder := filepath.Join(s.Dir, string(id))
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: folder not found: %s", ErrSourceUnavailable, id)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			files = append(files, filepath.Join(folder, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no CSV files found in %s", ErrSourceUnavailable, id)
	}
	sort.Strings(files)

	combined := &Table{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := s.readFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, filepath.Base(path), err)
		}
		combined.Append(t)
	}
	if combined.Len() == 0 {
		return nil, fmt.Errorf("%w: no rows in %s", ErrSourceUnavailable, id)
	}
	return combined, nil
}

func (s *FolderSource) readFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	if enc := s.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		reader = transform.NewReader(f, e.NewDecoder())
	}
	return ReadCSV(reader)
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
