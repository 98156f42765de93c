package gltfio

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Build and animation errors.
var (
	ErrUnsupportedTopology    = errors.New("unsupported primitive type")
	ErrMissingIndices         = errors.New("non-indexed geometry is not supported")
	ErrUnsupportedElementType = errors.New("unsupported accessor type")
	ErrMissingBufferView      = errors.New("accessor has no buffer view")
	ErrUnsupportedEncoding    = errors.New("unsupported animation component encoding")
	ErrUnsupportedTargetPath  = errors.New("unsupported channel path")
	ErrMissingTarget          = errors.New("channel target node has no entity")
	ErrTruncated              = errors.New("accessor data out of range")
	ErrMissingBlob            = errors.New("no data for buffer")
	ErrEngine                 = errors.New("engine object creation failed")
)

// Warnings. These never fail a build.
var (
	ErrMissingTextureImage  = errors.New("texture is missing image")
	ErrUnsupportedWorkflow  = errors.New("pbrSpecularGlossiness textures are not supported")
	ErrUnsupportedAttribute = errors.New("unsupported vertex attribute")
)

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic records one problem found while building an asset or its animations.
// Location fields are -1 when they do not apply.
type Diagnostic struct {
	Severity  Severity
	Node      int
	Mesh      int
	Primitive int
	Material  int
	Animation int
	Sampler   int
	Channel   int
	Err       error
}

func newDiagnostic(sev Severity, err error) Diagnostic {
	return Diagnostic{
		Severity:  sev,
		Node:      -1,
		Mesh:      -1,
		Primitive: -1,
		Material:  -1,
		Animation: -1,
		Sampler:   -1,
		Channel:   -1,
		Err:       err,
	}
}

// Error implements error, prefixing the location.
func (d Diagnostic) Error() string {
	var loc []string
	add := func(name string, v int) {
		if v >= 0 {
			loc = append(loc, fmt.Sprintf("%s %d", name, v))
		}
	}
	add("node", d.Node)
	add("mesh", d.Mesh)
	add("primitive", d.Primitive)
	add("material", d.Material)
	add("animation", d.Animation)
	add("sampler", d.Sampler)
	add("channel", d.Channel)
	if len(loc) == 0 {
		return d.Err.Error()
	}
	return strings.Join(loc, " ") + ": " + d.Err.Error()
}

// Unwrap returns the underlying error.
func (d Diagnostic) Unwrap() error {
	return d.Err
}

func (d Diagnostic) fields() []zap.Field {
	fields := make([]zap.Field, 0, 8)
	for _, f := range []struct {
		key string
		v   int
	}{
		{"node", d.Node},
		{"mesh", d.Mesh},
		{"primitive", d.Primitive},
		{"material", d.Material},
		{"animation", d.Animation},
		{"sampler", d.Sampler},
		{"channel", d.Channel},
	} {
		if f.v >= 0 {
			fields = append(fields, zap.Int(f.key, f.v))
		}
	}
	return append(fields, zap.Error(d.Err))
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// HasErrors reports whether any entry has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error-severity entries.
func (ds Diagnostics) Errors() Diagnostics {
	return ds.filter(SeverityError)
}

// Warnings returns the warning-severity entries.
func (ds Diagnostics) Warnings() Diagnostics {
	return ds.filter(SeverityWarning)
}

func (ds Diagnostics) filter(sev Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Err combines the error-severity entries into one error, or returns nil.
// errors.Is matches each entry's underlying error.
func (ds Diagnostics) Err() error {
	var err error
	for _, d := range ds {
		if d.Severity == SeverityError {
			err = multierr.Append(err, d)
		}
	}
	return err
}

// log writes every entry to the logger at a level matching its severity.
func (ds Diagnostics) log(log *zap.Logger, msg string) {
	for _, d := range ds {
		if d.Severity == SeverityError {
			log.Error(msg, d.fields()...)
		} else {
			log.Warn(msg, d.fields()...)
		}
	}
}

// BuildError is returned when an asset build collected error diagnostics.
// The asset has been rolled back.
type BuildError struct {
	Diagnostics Diagnostics
}

// Error implements error.
func (e *BuildError) Error() string {
	errs := e.Diagnostics.Errors()
	return fmt.Sprintf("asset build failed with %d error(s): %v", len(errs), errs.Err())
}

// Unwrap exposes every error diagnostic to errors.Is and errors.As.
func (e *BuildError) Unwrap() []error {
	return multierr.Errors(e.Diagnostics.Err())
}
