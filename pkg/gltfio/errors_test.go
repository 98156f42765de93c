package gltfio

import (
	"errors"
	"testing"
)

func TestDiagnosticError(t *testing.T) {
	d := newDiagnostic(SeverityError, ErrMissingIndices)
	d.Node, d.Mesh, d.Primitive = 3, 1, 0

	want := "node 3 mesh 1 primitive 0: non-indexed geometry is not supported"
	if d.Error() != want {
		t.Errorf("expected %q, got %q", want, d.Error())
	}
	if !errors.Is(d, ErrMissingIndices) {
		t.Error("expected diagnostic to unwrap to its error")
	}

	bare := newDiagnostic(SeverityWarning, ErrUnsupportedWorkflow)
	if bare.Error() != ErrUnsupportedWorkflow.Error() {
		t.Errorf("expected bare message, got %q", bare.Error())
	}
}

func TestDiagnosticsErr(t *testing.T) {
	var ds Diagnostics
	if ds.Err() != nil || ds.HasErrors() {
		t.Error("expected no error for empty diagnostics")
	}

	ds = append(ds, newDiagnostic(SeverityWarning, ErrMissingTextureImage))
	if ds.Err() != nil || ds.HasErrors() {
		t.Error("expected warnings not to produce an error")
	}

	ds = append(ds,
		newDiagnostic(SeverityError, ErrUnsupportedTopology),
		newDiagnostic(SeverityError, ErrMissingIndices))
	err := ds.Err()
	if !errors.Is(err, ErrUnsupportedTopology) || !errors.Is(err, ErrMissingIndices) {
		t.Errorf("expected combined error to match both kinds, got %v", err)
	}
	if errors.Is(err, ErrMissingTextureImage) {
		t.Error("expected warnings to be excluded from the combined error")
	}
	if len(ds.Errors()) != 2 || len(ds.Warnings()) != 1 {
		t.Errorf("expected 2 errors and 1 warning, got %d and %d", len(ds.Errors()), len(ds.Warnings()))
	}

	buildErr := &BuildError{Diagnostics: ds}
	if !errors.Is(buildErr, ErrMissingIndices) {
		t.Error("expected build error to unwrap to its diagnostics")
	}
	var d Diagnostic
	if !errors.As(buildErr, &d) || d.Err != ErrUnsupportedTopology {
		t.Errorf("expected first diagnostic via errors.As, got %v", d)
	}
}

func TestSeverityString(t *testing.T) {
	if SeverityError.String() != "error" || SeverityWarning.String() != "warning" {
		t.Errorf("unexpected severity names %q %q", SeverityError, SeverityWarning)
	}
}
