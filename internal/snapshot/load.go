package snapshot

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/chansync/internal/channel"
)

//go:embed schema.cue
var schemaCUE string

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// Document is the on-file shape of a snapshot.
type Document struct {
	Channels []channel.Channel `yaml:"channels" json:"channels"`
}

// Load reads and decodes the snapshot at path. The format is chosen by
// extension.
func Load(path string) ([]channel.Channel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		return Decode(data)
	case ".cue":
		return DecodeCUE(data, filepath.Base(path))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Decode parses a YAML or JSON snapshot document and validates it.
// An empty document decodes to an empty snapshot.
func Decode(data []byte) ([]channel.Channel, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	if err := Validate(doc.Channels); err != nil {
		return nil, err
	}

	if doc.Channels == nil {
		doc.Channels = []channel.Channel{}
	}
	return doc.Channels, nil
}

// DecodeCUE evaluates a CUE snapshot against the embedded schema and
// decodes the concrete result.
func DecodeCUE(data []byte, filename string) ([]channel.Channel, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile snapshot: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Snapshot")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate snapshot: %w", err)
	}

	jsonData, err := unified.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}

	return Decode(jsonData)
}
