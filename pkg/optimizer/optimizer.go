// Package optimizer shrinks source text before it is sent to the model.
//
// The transformations are regex and line-scan heuristics, not a tokenizer:
// comment markers inside string literals are treated as comments.
package optimizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the character budget used when none is configured.
const DefaultMaxChars = 4000

// TruncationMarker is appended on its own line when the text exceeds the
// character budget.
const TruncationMarker = "\n// ... (truncated due to size limit)"

var (
	// Opening marker, then runs of non-asterisks and asterisk groups until the
	// first "*/". Never reaches past the first legitimate close marker.
	blockComment = regexp.MustCompile(`/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`)
	lineComment  = regexp.MustCompile(`[ \t]*//[^\r\n]*`)
)

// Optimize runs the full pipeline: block comments, line comments, the leading
// import block, blank-line collapsing, trimming and truncation to maxChars
// characters. maxChars <= 0 disables truncation.
func Optimize(source string, maxChars int) string {
	text := StripComments(source)
	text = StripImports(text)
	text = CollapseBlankLines(text)
	text = strings.TrimSpace(text)
	return Truncate(text, maxChars)
}

// StripComments removes block comments and then line comments. Block removal
// repeats until nothing matches: deleting "/*x*/" from "//*x*/* y */"
// leaves a new "/* y */" behind.
func StripComments(text string) string {
	for {
		next := blockComment.ReplaceAllString(text, "")
		if next == text {
			break
		}
		text = next
	}
	return lineComment.ReplaceAllString(text, "")
}

// StripImports drops the import/include declarations at the top of text,
// together with at most one blank line after each run of them. Scanning stops
// for good at the first line that is neither blank nor an import.
func StripImports(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	stripping, afterImport := true, false

	for _, line := range lines {
		if !stripping {
			kept = append(kept, line)
			continue
		}
		switch {
		case isImportLine(line):
			afterImport = true
		case isBlank(line):
			if !afterImport {
				kept = append(kept, line)
			}
			afterImport = false
		default:
			stripping = false
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// CollapseBlankLines replaces every run of two or more blank lines with a
// single empty line. A lone blank line is left untouched.
func CollapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	run := 0

	flush := func(at int) {
		switch {
		case run == 1:
			out = append(out, lines[at-1])
		case run > 1:
			out = append(out, "")
		}
		run = 0
	}

	for i, line := range lines {
		if isBlank(line) {
			run++
			continue
		}
		flush(i)
		out = append(out, line)
	}
	flush(len(lines))
	return strings.Join(out, "\n")
}

// Truncate keeps the first maxChars characters of text and appends
// TruncationMarker when text is longer than that.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i] + TruncationMarker
		}
		n++
	}
	return text
}

var importKeywords = map[string]bool{
	"import":  true,
	"require": true,
	"@import": true,
}

func isImportLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "#include") || strings.HasPrefix(trimmed, "#import") {
		return true
	}
	fields := strings.Fields(trimmed)
	switch first := fields[0]; {
	case importKeywords[first]:
		return true
	case first == "from":
		// python: from pkg import name
		return len(fields) >= 3 && fields[2] == "import"
	case first == "using":
		// C#: using System.Text;
		return strings.HasSuffix(trimmed, ";")
	}
	return false
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
