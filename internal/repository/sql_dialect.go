package repository

import (
	"strings"

	"gorm.io/gorm"
)

// searchClause 生成多列模糊匹配条件；postgres 使用 ILIKE（默认以反斜杠转义），其余方言使用 LIKE ... ESCAPE
func searchClause(db *gorm.DB, term string, columns ...string) (string, []interface{}) {
	dialect := ""
	if db != nil && db.Dialector != nil {
		dialect = db.Dialector.Name()
	}
	return searchClauseFor(dialect, term, columns...)
}

func searchClauseFor(dialect, term string, columns ...string) (string, []interface{}) {
	op := ` LIKE ? ESCAPE '\'`
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		op = " ILIKE ?"
	}
	pattern := "%" + escapeLike(term) + "%"

	var b strings.Builder
	args := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		column = strings.TrimSpace(column)
		if column == "" {
			continue
		}
		if len(args) > 0 {
			b.WriteString(" OR ")
		}
		b.WriteString(column)
		b.WriteString(op)
		args = append(args, pattern)
	}
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike 转义通配符，搜索词按字面匹配
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
