package tool

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLQueryTool runs a read-only query against one warehouse data source's
// SQL database and renders the result as a tab-separated table, for a
// Connection-backed data source registered on an agent version.
type SQLQueryTool struct {
	datasourceName string
	db             *sql.DB
	maxRows        int
}

// NewSQLQueryTool returns a tool named "query_<datasourceName>" bound to
// db, capping result sets at maxRows rows.
func NewSQLQueryTool(datasourceName string, db *sql.DB, maxRows int) *SQLQueryTool {
	if maxRows <= 0 {
		maxRows = 200
	}
	return &SQLQueryTool{datasourceName: datasourceName, db: db, maxRows: maxRows}
}

func (t *SQLQueryTool) Name() string {
	return "query_" + t.datasourceName
}

func (t *SQLQueryTool) Description() string {
	return fmt.Sprintf("Run a read-only SQL query against the %q data source and return the result rows.", t.datasourceName)
}

func (t *SQLQueryTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "A single SELECT statement."},
		},
		"required": []string{"query"},
	}
}

func (t *SQLQueryTool) Run(ctx context.Context, parameters map[string]any) string {
	query, _ := parameters["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "query parameter is required"
	}
	if !strings.HasPrefix(strings.ToUpper(query), "SELECT") {
		return "only SELECT statements are permitted"
	}

	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Sprintf("query failed: %v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Sprintf("query failed: %v", err)
	}

	var out strings.Builder
	out.WriteString(strings.Join(cols, "\t"))
	out.WriteByte('\n')

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if count >= t.maxRows {
			fmt.Fprintf(&out, "... truncated at %d rows\n", t.maxRows)
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Sprintf("query failed while scanning row: %v", err)
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = fmt.Sprintf("%v", v)
		}
		out.WriteString(strings.Join(cells, "\t"))
		out.WriteByte('\n')
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Sprintf("query failed: %v", err)
	}
	return out.String()
}
