package shader

import "testing"

func TestVariant(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		defines []string
		want    string
	}{
		{
			name:   "no defines",
			source: "#version 410 core\nvoid main() {}\n",
			want:   "#version 410 core\nvoid main() {}\n",
		},
		{
			name:    "after version",
			source:  "#version 410 core\nvoid main() {}\n",
			defines: []string{"UNLIT", "HAS_BASE_COLOR_MAP"},
			want:    "#version 410 core\n#define HAS_BASE_COLOR_MAP\n#define UNLIT\nvoid main() {}\n",
		},
		{
			name:    "no version",
			source:  "void main() {}\n",
			defines: []string{"ALPHA_MASK"},
			want:    "#define ALPHA_MASK\nvoid main() {}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Variant(tt.source, tt.defines...); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestVariantDoesNotReorderInput(t *testing.T) {
	defines := []string{"B", "A"}
	Variant("x", defines...)
	if defines[0] != "B" {
		t.Error("expected caller slice to be left untouched")
	}
}
