package level

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// LoadError reports a level file that could not be parsed.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Load reads a level file, choosing the decoder by extension
// (.yaml, .yml or .cue), then validates it.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	var def *Definition
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		def, err = ParseYAML(data)
	case ".cue":
		def, err = ParseCUE(data, path)
	default:
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("unsupported level file extension %q", ext)}
	}
	if err != nil {
		return nil, err
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid level %s: %w", path, err)
	}
	return def, nil
}

// ParseYAML decodes a YAML level. Unknown fields are rejected.
// The result is defaulted but not validated.
func ParseYAML(data []byte) (*Definition, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc.definition(), nil
}

// ParseCUE decodes a CUE level after unifying it with the embedded schema.
// filename is used for error positions only.
// The result is defaulted but not validated.
func ParseCUE(data []byte, filename string) (*Definition, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("level schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(filename, err)
	}

	level := schema.LookupPath(cue.ParsePath("#Level")).Unify(v)
	if err := level.Validate(); err != nil {
		return nil, formatCUEError(filename, err)
	}

	var doc document
	if err := level.Decode(&doc); err != nil {
		return nil, formatCUEError(filename, err)
	}
	return doc.definition(), nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: path, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Path: path, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
