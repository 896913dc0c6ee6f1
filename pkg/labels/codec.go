// Package labels reads and writes YOLO label files: one box per line as
// "class x_center y_center width height" in normalized coordinates.
package labels

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/menta2k/image-augmenter/pkg/types"
)

// FieldCount is the number of whitespace separated fields per label line
const FieldCount = 5

// ErrMalformedLine describes a label line that was skipped
var ErrMalformedLine = errors.New("malformed label line")

// LineError locates a skipped line
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// DecodeOptions tunes decoding. OnSkip, if set, is told about every line
// that was dropped.
type DecodeOptions struct {
	OnSkip func(err *LineError)
}

// Decode parses label text. Lines that do not split into exactly five
// numeric fields are skipped; Decode only fails when r itself fails.
func Decode(r io.Reader) (types.LabelSet, error) {
	return DecodeWithOptions(r, DecodeOptions{})
}

// DecodeWithOptions is Decode with a skip callback
func DecodeWithOptions(r io.Reader, opts DecodeOptions) (types.LabelSet, error) {
	var out types.LabelSet
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		box, err := ParseLine(text)
		if err != nil {
			if opts.OnSkip != nil {
				opts.OnSkip(&LineError{Line: lineNo, Text: text, Err: err})
			}
			continue
		}
		out = append(out, box)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return out, nil
}

// ParseLine parses a single label line
func ParseLine(line string) (types.BoundingBox, error) {
	fields := strings.Fields(line)
	if len(fields) != FieldCount {
		return types.BoundingBox{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedLine, FieldCount, len(fields))
	}

	var values [FieldCount]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return types.BoundingBox{}, fmt.Errorf("%w: field %d %q is not a number", ErrMalformedLine, i+1, f)
		}
		values[i] = v
	}
	if values[0] < 0 {
		return types.BoundingBox{}, fmt.Errorf("%w: negative class id %v", ErrMalformedLine, values[0])
	}

	return types.BoundingBox{
		// class ids may be written as floats ("1.0")
		ClassID: int(values[0]),
		X:       values[1],
		Y:       values[2],
		W:       values[3],
		H:       values[4],
	}, nil
}

// Encode writes one line per box with six decimal places
func Encode(w io.Writer, ls types.LabelSet) error {
	bw := bufio.NewWriter(w)
	for _, b := range ls {
		if _, err := fmt.Fprintf(bw, "%s\n", b.String()); err != nil {
			return fmt.Errorf("failed to write label: %w", err)
		}
	}
	return bw.Flush()
}

// Marshal returns the encoded label text
func Marshal(ls types.LabelSet) []byte {
	var buf bytes.Buffer
	_ = Encode(&buf, ls)
	return buf.Bytes()
}

// ReadFile decodes the label file at path. A missing file is reported as an
// error wrapping os.ErrNotExist.
func ReadFile(path string, opts DecodeOptions) (types.LabelSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer f.Close()
	return DecodeWithOptions(f, opts)
}

// WriteFile encodes ls into path, truncating any existing file
func WriteFile(path string, ls types.LabelSet) error {
	if err := os.WriteFile(path, Marshal(ls), 0644); err != nil {
		return fmt.Errorf("failed to write label file: %w", err)
	}
	return nil
}
