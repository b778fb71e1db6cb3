package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gdcmeta/internal/record"
)

const (
	errorsDir  = "errors"
	reportsDir = "reports"
)

// ErrorRecord is the persisted form of a per-record failure. It carries enough
// of the input to reprocess only the failed subset later.
type ErrorRecord struct {
	DID          string   `json:"did"`
	Supplemental any      `json:"supplemental,omitempty"`
	Error        []string `json:"error"`
}

// BadFile names a record file that could not be decoded.
type BadFile struct {
	Path string
	Err  error
}

// Writer lays out one output tree: {root}/{id}.json, {root}/errors/{id}.json
// and {root}/reports/{name}.
type Writer struct {
	root string
	dirs *DirCache
}

// NewWriter returns a writer rooted at root.
func NewWriter(root string, dirs *DirCache) *Writer {
	if dirs == nil {
		dirs = NewDirCache()
	}
	return &Writer{root: root, dirs: dirs}
}

// Root returns the tree root.
func (w *Writer) Root() string { return w.root }

// ErrorsDir returns the directory holding error records.
func (w *Writer) ErrorsDir() string { return filepath.Join(w.root, errorsDir) }

// Sub returns a writer for a nested tree sharing the same directory cache.
func (w *Writer) Sub(name string) *Writer {
	return &Writer{root: filepath.Join(w.root, name), dirs: w.dirs}
}

// WriteRecord stores rec as {root}/{did}.json and removes any error record
// left for the same id by an earlier run.
func (w *Writer) WriteRecord(rec record.IndexRecord) (string, error) {
	if err := checkID(rec.DID); err != nil {
		return "", err
	}
	path, err := w.writeJSON(w.root, rec.DID+".json", rec)
	if err != nil {
		return "", err
	}
	stale := filepath.Join(w.ErrorsDir(), rec.DID+".json")
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		return path, fmt.Errorf("remove stale error record: %w", err)
	}
	return path, nil
}

// WriteError stores e as {root}/errors/{did}.json.
func (w *Writer) WriteError(e ErrorRecord) (string, error) {
	if err := checkID(e.DID); err != nil {
		return "", err
	}
	if e.Error == nil {
		e.Error = []string{}
	}
	return w.writeJSON(w.ErrorsDir(), e.DID+".json", e)
}

// WriteReport stores v as {root}/reports/{name}.
func (w *Writer) WriteReport(name string, v any) (string, error) {
	return w.writeJSON(filepath.Join(w.root, reportsDir), name, v)
}

func (w *Writer) writeJSON(dir, name string, v any) (string, error) {
	if err := w.dirs.Ensure(dir); err != nil {
		return "", err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	payload = append(payload, '\n')
	path := filepath.Join(dir, name)
	if err := writeFileAtomic(path, payload, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadRecords decodes every {dir}/*.json file in name order. Undecodable files
// are reported individually; a missing directory is an error.
func ReadRecords(dir string) ([]record.IndexRecord, []BadFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read record directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var (
		records []record.IndexRecord
		bad     []BadFile
	)
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			bad = append(bad, BadFile{Path: path, Err: err})
			continue
		}
		var rec record.IndexRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			bad = append(bad, BadFile{Path: path, Err: fmt.Errorf("decode: %w", err)})
			continue
		}
		records = append(records, rec)
	}
	return records, bad, nil
}

func checkID(id string) error {
	if id == "" {
		return errors.New("record id is empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("record id %q is not a valid file name", id)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".gdcmeta-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
