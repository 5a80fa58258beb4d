package fileaccess

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/common/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newAccessor(t *testing.T, root string, opts Options) *Accessor {
	t.Helper()
	a, err := New(root, opts, zerolog.Nop())
	require.NoError(t, err)
	return a
}

func TestLocate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "Main.kt"), "fun main() {}\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.txt"), "top secret")

	a := newAccessor(t, root, Options{})

	tests := []struct {
		name string
		path string
		want Status
	}{
		{name: "existing file", path: "src/Main.kt", want: Found},
		{name: "cleaned path inside root", path: "src/../src/./Main.kt", want: Found},
		{name: "missing file", path: "src/Missing.kt", want: NotFound},
		{name: "directory", path: "empty", want: NotAFile},
		{name: "parent traversal", path: "../secret.txt", want: OutsideRoot},
		{name: "deep traversal", path: "src/../../../etc/passwd", want: OutsideRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := a.Locate(tt.path)
			assert.Equal(t, tt.want, loc.Status, "status %s", loc.Status)
			if tt.want == Found {
				assert.True(t, filepath.IsAbs(loc.Path))
			} else {
				assert.Empty(t, loc.Path)
			}
		})
	}
}

func TestLocate_FoundPathIsResolved(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n")

	a := newAccessor(t, root, Options{})
	loc := a.Locate("a.go")
	require.Equal(t, Found, loc.Status)

	want, err := filepath.EvalSymlinks(filepath.Join(root, "a.go"))
	require.NoError(t, err)
	assert.Equal(t, want, loc.Path)
}

func TestLocate_SymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "passwd")
	writeFile(t, target, "root:x:0:0")

	link := filepath.Join(root, "innocent.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	a := newAccessor(t, root, Options{})
	assert.Equal(t, OutsideRoot, a.Locate("innocent.txt").Status)
}

func TestLocate_SymlinkInsideRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "real", "file.txt"), "hello")
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	a := newAccessor(t, root, Options{})
	assert.Equal(t, Found, a.Locate("alias/file.txt").Status)
}

func TestLocate_IgnoreList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".env"), "API_KEY=x")
	writeFile(t, filepath.Join(root, "certs", "server.pem"), "-----BEGIN-----")
	writeFile(t, filepath.Join(root, "app.py"), "print(1)")
	writeFile(t, filepath.Join(root, ".codefixerignore"), "# secrets\n*.pem\n")

	a := newAccessor(t, root, Options{
		IgnorePatterns: []string{".env"},
		IgnoreFile:     filepath.Join(root, ".codefixerignore"),
	})

	assert.Equal(t, Ignored, a.Locate(".env").Status)
	assert.Equal(t, Ignored, a.Locate("certs/server.pem").Status)
	assert.Equal(t, Found, a.Locate("app.py").Status)
}

func TestLocate_SymlinkIntoIgnoredPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".env"), "API_KEY=x")
	writeFile(t, filepath.Join(root, "secrets", "token.txt"), "t0ken")
	if err := os.Symlink(filepath.Join(root, ".env"), filepath.Join(root, "innocent.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "secrets"), filepath.Join(root, "public")))

	a := newAccessor(t, root, Options{IgnorePatterns: []string{".env", "secrets/"}})

	assert.Equal(t, Ignored, a.Locate(".env").Status)
	loc := a.Locate("innocent.txt")
	assert.Equal(t, Ignored, loc.Status)
	assert.Empty(t, loc.Path)
	assert.Equal(t, Ignored, a.Locate("secrets/token.txt").Status)
	assert.Equal(t, Ignored, a.Locate("public/token.txt").Status)
}

func TestNew_MissingIgnoreFileIsAllowed(t *testing.T) {
	root := t.TempDir()
	_, err := New(root, Options{IgnoreFile: filepath.Join(root, "nope")}, zerolog.Nop())
	assert.NoError(t, err)
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "gone"), Options{}, zerolog.Nop())
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigurationInvalid, errors.CodeOf(err))
}

func TestRead(t *testing.T) {
	root := t.TempDir()
	content := "fun main() {\n    println(\"Привет\")\n}\n"
	writeFile(t, filepath.Join(root, "Main.kt"), content)

	a := newAccessor(t, root, Options{})
	loc := a.Locate("Main.kt")
	require.Equal(t, Found, loc.Status)

	got, err := a.Read(loc.Path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestRead_InvalidUTF8(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0xc3}, 0o644))

	a := newAccessor(t, root, Options{})
	_, err := a.Read(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
	assert.Equal(t, errors.CodeEncodingError, errors.CodeOf(err))
}

func TestRead_MissingFile(t *testing.T) {
	a := newAccessor(t, t.TempDir(), Options{})
	_, err := a.Read(filepath.Join(a.Root(), "vanished.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, errors.CodeFileNotFound, errors.CodeOf(err))
}
