package planner

import (
	"fmt"

	"github.com/lockplane/schemaguard/internal/database"
	"github.com/lockplane/schemaguard/internal/typerules"
)

// generator renders PostgreSQL DDL for validated changes. Identifiers are
// quoted even though validation already restricts them.
type generator struct {
	schema string
}

func (g generator) table(name string) string {
	return database.QualifiedName(g.schema, name)
}

func (g generator) addColumn(c ColumnChange) string {
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		g.table(c.Table), database.QuoteIdentifier(c.Column), c.NewType.SQLName())
	if c.Default != nil {
		sql += " DEFAULT " + database.QuoteLiteral(*c.Default)
	}
	return sql
}

func (g generator) dropColumn(c ColumnChange) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		g.table(c.Table), database.QuoteIdentifier(c.Column))
}

// alterType always carries an explicit USING cast so the conversion happens
// at execution time.
func (g generator) alterType(c ColumnChange) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s",
		g.table(c.Table), database.QuoteIdentifier(c.Column), c.NewType.SQLName(),
		castExpression(c.Column, c.OldType, c.NewType))
}

func castExpression(column string, oldType, newType typerules.ColumnType) string {
	col := database.QuoteIdentifier(column)
	if arr, ok := oldType.ArrayOf(); ok && arr == newType {
		// wrap scalars, keeping NULL as NULL rather than {NULL}
		return fmt.Sprintf("CASE WHEN %s IS NULL THEN NULL ELSE ARRAY[%s] END::%s", col, col, newType.SQLName())
	}
	return fmt.Sprintf("%s::%s", col, newType.SQLName())
}

func (g generator) setNotNull(c ColumnChange) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL",
		g.table(c.Table), database.QuoteIdentifier(c.Column))
}

func (g generator) dropNotNull(c ColumnChange) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL",
		g.table(c.Table), database.QuoteIdentifier(c.Column))
}

// statements returns the DDL that applies c.
func (g generator) statements(c ColumnChange) []string {
	switch c.Operation {
	case OpAdd:
		return []string{g.addColumn(c)}
	case OpDrop:
		return []string{g.dropColumn(c)}
	case OpAlterType:
		return []string{g.alterType(c)}
	case OpSetNotNull:
		return []string{g.setNotNull(c)}
	case OpDropNotNull:
		return []string{g.dropNotNull(c)}
	}
	return nil
}
