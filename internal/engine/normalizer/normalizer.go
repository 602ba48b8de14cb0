// Package normalizer turns raw issue text into a cleaned token stream plus
// the surface signals (code fences, inline code, URLs) stripped along the way.
package normalizer

import (
	"strings"
	"unicode"
)

// Text is the normalized form of one issue. It is ephemeral — produced for a
// single extraction call and never stored.
type Text struct {
	Tokens []string // lowercased terms, markup and URLs removed
	Plain  string   // whitespace-collapsed text fed to the semantic encoder

	CodeBlocks int // fenced ``` blocks stripped
	InlineCode int // inline `code` spans stripped
	URLs       int // http(s) links stripped

	Empty bool // input contained no usable text
}

// Normalize cleans an issue's title and body into a Text. Deterministic and
// pure: identical input always yields identical output. Whitespace-only input
// returns the Empty sentinel rather than an error so downstream extractors
// can contribute zero vectors instead of failing.
func Normalize(title, body string) Text {
	combined := title + "\n" + body

	stripped, fences := stripFencedBlocks(combined)
	stripped, spans := stripInlineCode(stripped)
	stripped, urls := stripURLs(stripped)

	plain := collapseWhitespace(stripped)
	if plain == "" {
		return Text{Empty: true, CodeBlocks: fences, InlineCode: spans, URLs: urls}
	}

	return Text{
		Tokens:     tokenize(plain),
		Plain:      plain,
		CodeBlocks: fences,
		InlineCode: spans,
		URLs:       urls,
	}
}

// stripFencedBlocks removes ``` fenced code blocks and returns the number of
// complete blocks removed. An unterminated fence drops the remainder of the
// text, matching how markdown renders it.
func stripFencedBlocks(text string) (string, int) {
	var b strings.Builder
	b.Grow(len(text))
	count := 0
	for {
		open := strings.Index(text, "```")
		if open < 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:open])
		rest := text[open+3:]
		close := strings.Index(rest, "```")
		if close < 0 {
			count++
			break
		}
		count++
		b.WriteByte(' ')
		text = rest[close+3:]
	}
	return b.String(), count
}

// stripInlineCode removes single-backtick spans. Backticks without a closing
// partner are kept as literal text.
func stripInlineCode(text string) (string, int) {
	var b strings.Builder
	b.Grow(len(text))
	count := 0
	for {
		open := strings.IndexByte(text, '`')
		if open < 0 {
			b.WriteString(text)
			break
		}
		rest := text[open+1:]
		close := strings.IndexByte(rest, '`')
		if close < 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:open])
		b.WriteByte(' ')
		count++
		text = rest[close+1:]
	}
	return b.String(), count
}

// stripURLs drops whitespace-delimited tokens that look like links.
func stripURLs(text string) (string, int) {
	fields := strings.Fields(text)
	kept := fields[:0]
	count := 0
	for _, f := range fields {
		if isURL(f) {
			count++
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " "), count
}

func isURL(token string) bool {
	lower := strings.ToLower(strings.Trim(token, "()<>[],.;"))
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "www.")
}

// collapseWhitespace reduces all whitespace runs to single spaces and trims
// the ends.
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// tokenize splits cleaned text into lowercased terms. Letters, digits, and
// interior hyphens are kept so tokens like "dark-mode" and "ios18" survive;
// single characters and pure-numeric tokens are dropped as noise.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		tok := strings.Trim(current.String(), "-")
		current.Reset()
		if len(tok) <= 1 || numericOnly(tok) {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func numericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}
