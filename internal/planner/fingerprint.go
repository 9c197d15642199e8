package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/lockplane/schemaguard/internal/inspect"
)

// fingerprintEntry is the canonical form of one change and the facts it was
// classified against.
type fingerprintEntry struct {
	Change ColumnChange   `json:"change"`
	Facts  *inspect.Facts `json:"facts"`
	Error  string         `json:"error,omitempty"`
}

// FactsFingerprint hashes each change with its facts. Two plans share a
// fingerprint only if every change saw identical facts.
func FactsFingerprint(results []ChangeResult) string {
	entries := make([]fingerprintEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, fingerprintEntry{
			Change: r.Change,
			Facts:  canonicalFacts(r.Facts),
			Error:  r.Error,
		})
	}

	// plain structs of strings and numbers always marshal
	data, _ := json.Marshal(entries)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func canonicalFacts(f *inspect.Facts) *inspect.Facts {
	if f == nil {
		return nil
	}
	c := *f
	if f.SampleExhaustive {
		c.SampleValues = append([]string(nil), f.SampleValues...)
		sort.Strings(c.SampleValues)
	} else {
		// unordered partial samples differ between reads of unchanged data
		c.SampleValues = nil
	}
	c.ReverseForeignKeys = append([]inspect.ForeignKeyRef(nil), f.ReverseForeignKeys...)
	sort.Slice(c.ReverseForeignKeys, func(i, j int) bool {
		a, b := c.ReverseForeignKeys[i], c.ReverseForeignKeys[j]
		if a.ReferencingTable != b.ReferencingTable {
			return a.ReferencingTable < b.ReferencingTable
		}
		return a.ConstraintName < b.ConstraintName
	})
	return &c
}
