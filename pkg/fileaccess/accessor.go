// Package fileaccess resolves caller-supplied relative paths against a fixed
// root directory and reads them, never leaving that root.
package fileaccess

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/common/errors"
)

// Status is the outcome of Locate.
type Status int

const (
	Found Status = iota
	NotFound
	NotAFile
	// OutsideRoot means the path resolved (lexically or through a symlink)
	// to a location outside the root.
	OutsideRoot
	// Ignored means the path matched the ignore list.
	Ignored
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case NotAFile:
		return "not_a_file"
	case OutsideRoot:
		return "outside_root"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Location is the result of Locate. Path is only set when Status is Found.
type Location struct {
	Status Status
	Path   string
}

// ErrInvalidUTF8 is the cause reported by Read for content that is not text.
var ErrInvalidUTF8 = stderrors.New("file content is not valid UTF-8")

// Accessor is safe for concurrent use; it holds no mutable state after
// construction.
type Accessor struct {
	root    string
	ignorer *ignore.GitIgnore
	logger  zerolog.Logger
}

// Options configures an Accessor.
type Options struct {
	// IgnorePatterns are gitignore-style patterns, relative to the root, for
	// files that must never be handed out.
	IgnorePatterns []string
	// IgnoreFile is a gitignore-style file whose patterns are appended to
	// IgnorePatterns. A missing file is not an error.
	IgnoreFile string
}

// New creates an Accessor rooted at root. The root is made absolute and its
// symlinks are resolved once so later containment checks compare like with
// like.
func New(root string, opts Options, logger zerolog.Logger) (*Accessor, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.New(errors.CodeConfigurationInvalid, "fileaccess", "cannot resolve root directory", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.New(errors.CodeConfigurationInvalid, "fileaccess", "cannot resolve root directory", err)
	}

	patterns := append([]string(nil), opts.IgnorePatterns...)
	if opts.IgnoreFile != "" {
		data, err := os.ReadFile(opts.IgnoreFile)
		switch {
		case err == nil:
			patterns = append(patterns, strings.Split(string(data), "\n")...)
		case !stderrors.Is(err, fs.ErrNotExist):
			return nil, errors.IOError("fileaccess", opts.IgnoreFile, err)
		}
	}

	a := &Accessor{
		root:   resolved,
		logger: logger.With().Str("component", "file_accessor").Logger(),
	}
	if len(patterns) > 0 {
		a.ignorer = ignore.CompileIgnoreLines(patterns...)
	}
	return a, nil
}

// Root returns the resolved root directory.
func (a *Accessor) Root() string {
	return a.root
}

// Locate joins relativePath onto the root and checks that the result stays
// inside the root, both lexically and after following symlinks.
func (a *Accessor) Locate(relativePath string) Location {
	candidate := filepath.Join(a.root, relativePath)
	rel, ok := within(a.root, candidate)
	if !ok {
		a.logger.Warn().Str("path", relativePath).Msg("Rejected path outside root")
		return Location{Status: OutsideRoot}
	}

	if a.ignored(rel) {
		a.logger.Warn().Str("path", relativePath).Msg("Rejected ignored path")
		return Location{Status: Ignored}
	}

	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		a.logger.Debug().Err(err).Str("path", candidate).Msg("File not found")
		return Location{Status: NotFound}
	}
	resolvedRel, ok := within(a.root, resolved)
	if !ok {
		a.logger.Warn().Str("path", relativePath).Msg("Rejected symlink leading outside root")
		return Location{Status: OutsideRoot}
	}
	// A link inside the root must not expose an ignored target.
	if a.ignored(resolvedRel) {
		a.logger.Warn().Str("path", relativePath).Msg("Rejected symlink leading to ignored path")
		return Location{Status: Ignored}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return Location{Status: NotFound}
	}
	if !info.Mode().IsRegular() {
		a.logger.Warn().Str("path", candidate).Msg("Path is not a file")
		return Location{Status: NotAFile}
	}
	return Location{Status: Found, Path: resolved}
}

// Read returns the content of a located file as UTF-8 text.
func (a *Accessor) Read(absolutePath string) (string, error) {
	data, err := os.ReadFile(absolutePath)
	if err != nil {
		return "", errors.IOError("fileaccess", absolutePath, err)
	}
	if !utf8.Valid(data) {
		return "", errors.NewError().
			Code(errors.CodeEncodingError).
			Type(errors.ErrTypeIO).
			Component("fileaccess").
			Messagef("failed to decode %s", absolutePath).
			Context("path", absolutePath).
			Cause(ErrInvalidUTF8).
			Build()
	}

	content := string(data)
	a.logger.Debug().
		Str("path", absolutePath).
		Int("characters", utf8.RuneCountInString(content)).
		Msg("Read file")
	return content, nil
}

func (a *Accessor) ignored(rel string) bool {
	return a.ignorer != nil && a.ignorer.MatchesPath(filepath.ToSlash(rel))
}

// within reports whether target is root or lies below it, and returns the
// path relative to root.
func within(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return rel, true
}
