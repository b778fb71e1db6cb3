package manifest

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gdcmeta/internal/logging"
	"gdcmeta/internal/record"
)

// Stub is a partial record parsed from one manifest line.
type Stub struct {
	ID       string   `json:"did"`
	FileName string   `json:"file_name,omitempty"`
	URLs     []string `json:"urls,omitempty"`
	Size     int64    `json:"size,omitempty"`
	MD5      string   `json:"md5,omitempty"`
	ACL      []string `json:"acl,omitempty"`
}

// Fields converts the stub into a record layer.
func (s Stub) Fields() record.Fields {
	return record.Fields{
		ID:       s.ID,
		FileName: s.FileName,
		URLs:     append([]string(nil), s.URLs...),
		Size:     s.Size,
		MD5:      s.MD5,
		ACL:      append([]string(nil), s.ACL...),
	}
}

// Overlay returns s with every populated field of top applied over it.
func (s Stub) Overlay(top Stub) Stub {
	out := s
	if top.ID != "" {
		out.ID = top.ID
	}
	if top.FileName != "" {
		out.FileName = top.FileName
	}
	if len(top.URLs) > 0 {
		out.URLs = append([]string(nil), top.URLs...)
	}
	if top.Size > 0 {
		out.Size = top.Size
	}
	if top.MD5 != "" {
		out.MD5 = top.MD5
	}
	if len(top.ACL) > 0 {
		out.ACL = append([]string(nil), top.ACL...)
	}
	return out
}

// Line is the outcome of parsing one manifest line: Valid, Skipped or Malformed.
type Line interface {
	line()
}

// Valid carries a parsed stub.
type Valid struct {
	Stub Stub
}

// Skipped marks a line that is not an object entry (header, comment, folder marker).
type Skipped struct {
	Raw string
}

// Malformed marks a line that looks like an object entry but cannot be used.
type Malformed struct {
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

func (Valid) line()     {}
func (Skipped) line()   {}
func (Malformed) line() {}

// Parser turns one raw line into a Line.
type Parser interface {
	Name() string
	ParseLine(raw string) Line
}

// Result collects the usable stubs and the rejected lines of one manifest.
type Result struct {
	Stubs     []Stub
	Malformed []Malformed
	Skipped   int
}

// ParseLines applies p to every line. It never fails.
func ParseLines(lines []string, p Parser, logger *slog.Logger) Result {
	var res Result
	for _, raw := range lines {
		res.add(p.ParseLine(raw), p.Name(), logger)
	}
	return res
}

// Parse reads r line by line. Only read errors are returned; bad content is
// reported through Result.Malformed.
func Parse(r io.Reader, p Parser, logger *slog.Logger) (Result, error) {
	var res Result
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		res.add(p.ParseLine(scanner.Text()), p.Name(), logger)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("read %s manifest: %w", p.Name(), err)
	}
	return res, nil
}

// ParseFile opens path and parses it with p.
func ParseFile(path string, p Parser, logger *slog.Logger) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()
	return Parse(file, p, logger)
}

func (r *Result) add(l Line, format string, logger *slog.Logger) {
	switch v := l.(type) {
	case Valid:
		r.Stubs = append(r.Stubs, v.Stub)
	case Malformed:
		r.Malformed = append(r.Malformed, v)
		if logger != nil {
			logging.WarnWithContext(logger, "ignoring malformed manifest line", "manifest_malformed",
				logging.String("format", format),
				logging.String("reason", v.Reason),
				logging.String("line", v.Raw),
				logging.String(logging.FieldImpact, "line excluded from output"),
				logging.String(logging.FieldErrorHint, "fix or remove the line in the manifest"),
			)
		}
	case Skipped:
		r.Skipped++
	}
}

func isComment(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "#")
}
