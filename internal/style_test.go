package internal

import (
	"bytes"
	"go/format"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Iron-Ham/tandem/internal/testutil"
)

// moduleRoot walks up from the test's working directory to the directory
// containing go.mod.
func moduleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// sourceFiles returns every Go file the build sees, honoring the toolchain
// rule that directories starting with "_" or "." are invisible.
func sourceFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			skip := strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "vendor"
			if path != root && skip {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".go") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", root, err)
	}
	return files
}

func TestSourceIsGofmted(t *testing.T) {
	root := moduleRoot(t)

	var dirty []string
	for _, path := range sourceFiles(t, root) {
		src, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		want, err := format.Source(src)
		if err != nil {
			t.Errorf("%s does not parse: %v", path, err)
			continue
		}
		if !bytes.Equal(src, want) {
			rel, _ := filepath.Rel(root, path)
			dirty = append(dirty, rel)
		}
	}

	if len(dirty) > 0 {
		t.Errorf("run gofmt -w on:\n  %s", strings.Join(dirty, "\n  "))
	}
}

func TestGolangciLintClean(t *testing.T) {
	testutil.SkipIfNoGolangciLint(t)

	root := moduleRoot(t)

	cmd := exec.Command("golangci-lint", "run", "--allow-parallel-runners", "./...")
	cmd.Dir = root
	// Sandboxed runners need a writable build cache.
	cmd.Env = append(os.Environ(), "GOCACHE="+t.TempDir())

	if output, err := cmd.CombinedOutput(); err != nil {
		t.Errorf("golangci-lint run:\n%s", output)
	}
}
