package executor

import (
	"regexp"
	"strings"

	"github.com/lockplane/schemaguard/internal/database"
)

var dollarTagPattern = regexp.MustCompile(`^\$([A-Za-z_][A-Za-z0-9_]*)?\$`)

// Split removes line and block comments from script and splits it on
// statement-terminating semicolons using PostgreSQL quoting rules. Quoted
// strings, quoted identifiers and dollar-quoted bodies are kept intact.
// Empty fragments are dropped.
func Split(script string) []string {
	return split(script, true)
}

// SplitFor splits script with the quoting rules of dialect. SQLite has no
// dollar quoting, so $ is an ordinary character there.
func SplitFor(dialect database.DatabaseType, script string) []string {
	return split(script, !dialect.IsSQLite())
}

func split(script string, dollarQuotes bool) []string {
	var (
		stmts []string
		cur   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(script); {
		c := script[i]
		switch {
		case c == '-' && strings.HasPrefix(script[i:], "--"):
			end := strings.IndexByte(script[i:], '\n')
			if end < 0 {
				i = len(script)
			} else {
				i += end
			}
			cur.WriteByte(' ')

		case c == '/' && strings.HasPrefix(script[i:], "/*"):
			// block comments nest in PostgreSQL
			depth := 0
			for i < len(script) {
				if strings.HasPrefix(script[i:], "/*") {
					depth++
					i += 2
				} else if strings.HasPrefix(script[i:], "*/") {
					depth--
					i += 2
					if depth == 0 {
						break
					}
				} else {
					i++
				}
			}
			cur.WriteByte(' ')

		case c == '\'' || c == '"':
			end := closingQuote(script, i)
			cur.WriteString(script[i:end])
			i = end

		case c == '$' && dollarQuotes && (i == 0 || !isIdentByte(script[i-1])):
			if tag := dollarTagPattern.FindString(script[i:]); tag != "" {
				body := strings.Index(script[i+len(tag):], tag)
				end := len(script)
				if body >= 0 {
					end = i + len(tag) + body + len(tag)
				}
				cur.WriteString(script[i:end])
				i = end
			} else {
				cur.WriteByte(c)
				i++
			}

		case c == ';':
			flush()
			i++

		default:
			cur.WriteByte(c)
			i++
		}
	}
	flush()
	return stmts
}

// isIdentByte reports whether b can continue an unquoted identifier, in
// which case a following $ belongs to the identifier.
func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// closingQuote returns the index just past the quote that closes the one at
// start. A doubled quote is an escaped quote.
func closingQuote(s string, start int) int {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

// Prepare flattens caller statements into single statements.
func Prepare(dialect database.DatabaseType, statements []string) []string {
	var out []string
	for _, s := range statements {
		out = append(out, SplitFor(dialect, s)...)
	}
	return out
}

// unquotedSemicolon reports whether stmt has a ; outside SQLite string and
// identifier quotes.
func unquotedSemicolon(stmt string) bool {
	for i := 0; i < len(stmt); i++ {
		switch c := stmt[i]; c {
		case '\'', '"', '`':
			i = closingQuote(stmt, i) - 1
		case '[':
			end := strings.IndexByte(stmt[i:], ']')
			if end < 0 {
				return false
			}
			i += end
		case ';':
			return true
		}
	}
	return false
}
