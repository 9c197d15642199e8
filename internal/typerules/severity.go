package typerules

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity orders how risky a change is. Higher values are worse.
type Severity int

const (
	Safe    Severity = iota // applies without data loss
	Warning                 // may lose data or hold locks, needs review
	Blocker                 // must not be applied as requested
)

func (s Severity) String() string {
	switch s {
	case Safe:
		return "safe"
	case Warning:
		return "warning"
	case Blocker:
		return "blocker"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Icon returns the glyph used in plan reports.
func (s Severity) Icon() string {
	switch s {
	case Safe:
		return "✅"
	case Warning:
		return "⚠️"
	case Blocker:
		return "❌"
	default:
		return "❓"
	}
}

// Max returns the more severe of s and other.
func (s Severity) Max(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}

// ParseSeverity is the inverse of String.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "safe":
		return Safe, nil
	case "warning":
		return Warning, nil
	case "blocker":
		return Blocker, nil
	}
	return Safe, fmt.Errorf("unknown severity %q", name)
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
