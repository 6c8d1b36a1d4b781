package exdoc

import (
	"path/filepath"
	"testing"
)

func TestResolveOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		srcPath string
		outDir  string
		want    string
		wantErr bool
	}{
		{
			name:    "simple_source",
			srcPath: "ex1.F90",
			outDir:  "docs/generated",
			want:    "docs/generated/doc_ex1.md",
		},
		{
			name:    "nested_source",
			srcPath: "/home/user/src/examples/mug_sph_heat.F90",
			outDir:  "/home/user/src/docs/generated",
			want:    "/home/user/src/docs/generated/doc_mug_sph_heat.md",
		},
		{
			name:    "notebook_source",
			srcPath: "examples/TokaMaker/ITER/ITER_baseline_ex.ipynb",
			outDir:  "out",
			want:    "out/doc_ITER_baseline_ex.md",
		},
		{
			name:    "too_many_dots",
			srcPath: "ex1.backup.F90",
			outDir:  "out",
			wantErr: true,
		},
		{
			name:    "no_extension",
			srcPath: "Makefile",
			outDir:  "out",
			wantErr: true,
		},
		{
			name:    "hidden_file",
			srcPath: ".F90",
			outDir:  "out",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveOutputPath(tt.srcPath, tt.outDir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ResolveOutputPath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			// Use filepath.Clean to normalize paths for comparison
			if filepath.Clean(got) != filepath.Clean(tt.want) {
				t.Errorf("ResolveOutputPath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainsPath(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		path string
		want bool
	}{
		{name: "same_dir", dir: "examples", path: "examples", want: true},
		{name: "same_dir_trailing_slash", dir: "examples/", path: "./examples", want: true},
		{name: "child", dir: "/src", path: "/src/examples/TokaMaker", want: true},
		{name: "sibling", dir: "docs/generated", path: "examples", want: false},
		{name: "child_of_path", dir: "examples/out", path: "examples", want: false},
		{name: "shared_name_prefix", dir: "/src/ex", path: "/src/examples", want: false},
		{name: "child_named_with_dots", dir: "/src", path: "/src/..cache", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsPath(tt.dir, tt.path); got != tt.want {
				t.Errorf("ContainsPath(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
			}
		})
	}
}
