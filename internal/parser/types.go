package parser

import (
	"regexp"
	"strings"
)

// PatternMarker prefixes the original field of a pattern rule.
const PatternMarker = "$"

// CommentMarker starts a comment line in a translation table.
const CommentMarker = ";"

// Rule is an exact-match translation pair.
type Rule struct {
	// Original is the unescaped source text.
	Original string
	// Replacement is the unescaped, trimmed replacement text.
	Replacement string
	// Line is the 1-based line number in the source file.
	Line int
}

// Pattern is a compiled regular-expression rule.
type Pattern struct {
	// Expr matches the source text.
	Expr *regexp.Regexp
	// Template is the replacement, normalised to Go's ${N} expansion syntax.
	Template string
	// Line is the 1-based line number in the source file.
	Line int

	// contextual is set when Template holds "$`", "$'" or "$_".
	contextual bool
}

// Replace substitutes every match of the pattern in s. Besides Go's group
// references the template may use "$`" (text before the match), "$'" (text
// after it) and "$_" (the whole input).
func (p Pattern) Replace(s string) string {
	if !p.contextual {
		return p.Expr.ReplaceAllString(s, p.Template)
	}

	var out []byte
	last := 0
	for _, m := range p.Expr.FindAllStringSubmatchIndex(s, -1) {
		out = append(out, s[last:m[0]]...)
		tmpl := strings.NewReplacer(
			"$$", "$$",
			"$`", escapeDollar(s[:m[0]]),
			"$'", escapeDollar(s[m[1]:]),
			"$_", escapeDollar(s),
		).Replace(p.Template)
		out = p.Expr.ExpandString(out, tmpl, s, m)
		last = m[1]
	}
	return string(append(out, s[last:]...))
}

func escapeDollar(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// ParseResult holds the rules read from a single translation table.
type ParseResult struct {
	// FilePath is the path the rules were read from.
	FilePath string
	// Exact holds literal rules in file order, duplicates included.
	Exact []Rule
	// Patterns holds regex rules in file order.
	Patterns []Pattern
	// Skipped counts non-comment lines that produced no rule.
	Skipped int
}

// Count returns the number of usable rules.
func (r *ParseResult) Count() int {
	return len(r.Exact) + len(r.Patterns)
}
