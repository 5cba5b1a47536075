package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"yatranslator/internal/textutil"

	"github.com/rs/zerolog/log"
)

const utf8BOM = "\ufeff"

// TableParser reads tab-separated translation tables.
type TableParser struct{}

func NewTableParser() *TableParser { return &TableParser{} }

func (p *TableParser) Parse(filePath string) (*ParseResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open translation file: %w", err)
	}
	defer file.Close()

	result, err := p.ParseReader(file, filePath)
	if err != nil {
		return nil, fmt.Errorf("scan translation file: %w", err)
	}
	return result, nil
}

// ParseReader parses a table from r. name is only used for diagnostics.
func (p *TableParser) ParseReader(r io.Reader, name string) (*ParseResult, error) {
	result := &ParseResult{FilePath: name}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 4*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if lineNum == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, CommentMarker) {
			continue
		}

		parts := strings.FieldsFunc(line, func(r rune) bool { return r == '\t' })
		if len(parts) < 2 {
			result.Skipped++
			continue
		}

		original := textutil.Unescape(parts[0])
		replacement := strings.TrimSpace(textutil.Unescape(parts[1]))
		if replacement == "" {
			result.Skipped++
			continue
		}

		if !strings.HasPrefix(original, PatternMarker) {
			result.Exact = append(result.Exact, Rule{
				Original:    original,
				Replacement: replacement,
				Line:        lineNum,
			})
			continue
		}

		expr, err := regexp.Compile(original[len(PatternMarker):])
		if err != nil {
			log.Warn().Err(err).
				Str("file", filepath.Base(name)).
				Int("line", lineNum).
				Msg("Invalid pattern rule, skipping")
			result.Skipped++
			continue
		}

		tmpl, contextual := normalizeTemplate(replacement)
		result.Patterns = append(result.Patterns, Pattern{
			Expr:       expr,
			Template:   tmpl,
			Line:       lineNum,
			contextual: contextual,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// NormalizeTemplate rewrites a replacement template so that numbered group
// references like "$1st" keep meaning group 1 under Go's expansion rules,
// "$&" means the whole match and a '$' that starts no reference stays
// literal. The input references "$`", "$'" and "$_" are kept for
// Pattern.Replace to fill in.
func NormalizeTemplate(tmpl string) string {
	out, _ := normalizeTemplate(tmpl)
	return out
}

// normalizeTemplate also reports whether the result refers to the text
// around the match.
func normalizeTemplate(tmpl string) (string, bool) {
	if !strings.Contains(tmpl, "$") {
		return tmpl, false
	}

	var b strings.Builder
	b.Grow(len(tmpl) + 8)
	contextual := false
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '$' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(tmpl) {
			b.WriteString("$$")
			continue
		}

		next := tmpl[i+1]
		switch {
		case next == '$':
			b.WriteString("$$")
			i++
		case next == '&':
			b.WriteString("${0}")
			i++
		case next == '`' || next == '\'' || next == '_':
			b.WriteByte('$')
			b.WriteByte(next)
			contextual = true
			i++
		case next == '{':
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				b.WriteString("$$")
				continue
			}
			b.WriteString(tmpl[i : i+end+1])
			i += end
		case isDigit(next):
			j := i + 1
			for j < len(tmpl) && isDigit(tmpl[j]) {
				j++
			}
			b.WriteString("${" + tmpl[i+1:j] + "}")
			i = j - 1
		default:
			b.WriteString("$$")
		}
	}
	return b.String(), contextual
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
