package executor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrDenied     = errors.New("statement matches the denylist")
	ErrNotAllowed = errors.New("statement does not match the allow-list")
)

// DefaultProtectedSchemas cannot be truncated or deleted from.
var DefaultProtectedSchemas = []string{"pg_catalog", "information_schema", "auth", "storage", "realtime", "vault"}

// DefaultAllowPatterns are the statement forms a migration may contain.
var DefaultAllowPatterns = []string{
	`^CREATE\s+TABLE\b`,
	`^ALTER\s+TABLE\b`,
	`^CREATE\s+(UNIQUE\s+)?INDEX\b`,
	`^CREATE\s+POLICY\b`,
	`^CREATE\s+(OR\s+REPLACE\s+)?FUNCTION\b`,
	`^CREATE\s+(OR\s+REPLACE\s+)?TRIGGER\b`,
	`^ALTER\s+TABLE\s+\S+\s+ENABLE\s+ROW\s+LEVEL\s+SECURITY\b`,
}

// DefaultDenyPatterns are rejected even when an allow pattern matches.
var DefaultDenyPatterns = []string{
	`^DROP\s+(DATABASE|SCHEMA)\b`,
	`^ALTER\s+DATABASE\b`,
	`^(GRANT|REVOKE)\b`,
}

// Policy decides which statements the executor will run. Patterns match
// case-insensitively against the statement with whitespace collapsed.
type Policy struct {
	allow []*regexp.Regexp
	deny  []*regexp.Regexp
}

// DefaultPolicy returns the built-in allow and deny lists.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(nil, nil, nil)
	if err != nil {
		panic(fmt.Sprintf("default executor policy does not compile: %v", err))
	}
	return p
}

// NewPolicy compiles a policy. Empty allow or deny lists fall back to the
// defaults, and protectedSchemas extends the deny list with TRUNCATE and
// DELETE guards for those schemas.
func NewPolicy(allow, deny, protectedSchemas []string) (*Policy, error) {
	if len(allow) == 0 {
		allow = DefaultAllowPatterns
	}
	if len(deny) == 0 {
		deny = DefaultDenyPatterns
	}
	if len(protectedSchemas) == 0 {
		protectedSchemas = DefaultProtectedSchemas
	}
	deny = append(append([]string(nil), deny...), protectedSchemaPattern(protectedSchemas))

	p := &Policy{}
	var err error
	if p.allow, err = compileAll(allow); err != nil {
		return nil, fmt.Errorf("invalid allow pattern: %w", err)
	}
	if p.deny, err = compileAll(deny); err != nil {
		return nil, fmt.Errorf("invalid deny pattern: %w", err)
	}
	return p, nil
}

func protectedSchemaPattern(schemas []string) string {
	quoted := make([]string, 0, len(schemas))
	for _, s := range schemas {
		quoted = append(quoted, regexp.QuoteMeta(s))
	}
	return `^(TRUNCATE(\s+TABLE)?|DELETE\s+FROM)\s+(ONLY\s+)?"?(` + strings.Join(quoted, "|") + `)"?\.`
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

// Check returns nil if stmt may run. Deny patterns take precedence.
func (p *Policy) Check(stmt string) error {
	normalized := strings.Join(strings.Fields(stmt), " ")
	for _, re := range p.deny {
		if re.MatchString(normalized) {
			return fmt.Errorf("%w: %s", ErrDenied, strings.TrimPrefix(re.String(), "(?i)"))
		}
	}
	for _, re := range p.allow {
		if re.MatchString(normalized) {
			return nil
		}
	}
	return ErrNotAllowed
}
