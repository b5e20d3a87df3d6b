package nlq

import (
	"strconv"
	"strings"
)

// sqlBuilder numbers placeholders in emission order: the i-th bind call
// produces "$i" and appends the value as Args[i-1]. Placeholders are never
// reused or skipped.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) bind(value any) string {
	b.args = append(b.args, value)
	return "$" + strconv.Itoa(len(b.args))
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
