package planner

import (
	"fmt"
	"strings"

	"github.com/lockplane/schemaguard/internal/database"
	"github.com/lockplane/schemaguard/internal/inspect"
)

// defaultPlaceholder stands in for a backfill value the caller did not supply.
const defaultPlaceholder = "<default>"

func (g generator) backfillNulls(c ColumnChange) *Remediation {
	value := defaultPlaceholder
	if c.Default != nil {
		value = database.QuoteLiteral(*c.Default)
	}
	col := database.QuoteIdentifier(c.Column)
	return &Remediation{
		Description: "backfill existing NULL values before adding the constraint",
		SQL: []string{
			fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s IS NULL", g.table(c.Table), col, value, col),
		},
	}
}

// expandContract describes converting a column through a shadow column so
// that rows which fail the cast can be fixed before the swap.
func (g generator) expandContract(c ColumnChange) *Remediation {
	table := g.table(c.Table)
	col := database.QuoteIdentifier(c.Column)
	shadow := database.QuoteIdentifier(shadowColumnName(c.Column))
	return &Remediation{
		Description: fmt.Sprintf("convert %s through a %s shadow column, fixing rows that do not convert before swapping", c.Column, c.NewType),
		SQL: []string{
			fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, shadow, c.NewType.SQLName()),
			fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s IS NOT NULL", table, shadow, castExpression(c.Column, c.OldType, c.NewType), col),
			fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, col),
			fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", table, shadow, col),
		},
	}
}

func shadowColumnName(column string) string {
	name := column + "_new"
	if len(name) > database.MaxIdentifierLength {
		name = name[len(name)-database.MaxIdentifierLength:]
	}
	return name
}

func dropReferencedConstraints(refs []inspect.ForeignKeyRef) *Remediation {
	names := make([]string, 0, len(refs))
	sql := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.ReferencingTable+"."+ref.ConstraintName)
		sql = append(sql, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s",
			database.QuoteIdentifier(ref.ReferencingTable), database.QuoteIdentifier(ref.ConstraintName)))
	}
	return &Remediation{
		Description: "drop or repoint the referencing constraints first: " + strings.Join(names, ", "),
		SQL:         sql,
	}
}
