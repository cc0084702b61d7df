/*
Copyright © 2026 masteryyh <yyh991013@163.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/utils/pagination"
)

// Cond is a single SQL predicate with its bind arguments.
type Cond struct {
	SQL  string
	Args []any
}

func Where(sql string, args ...any) Cond {
	return Cond{SQL: sql, Args: args}
}

func Eq(column string, value any) Cond {
	return Cond{SQL: column + " = ?", Args: []any{value}}
}

// And joins conditions into a single conjunction.
func And(conds ...Cond) Cond {
	parts := make([]string, 0, len(conds))
	var args []any
	for _, c := range conds {
		parts = append(parts, "("+c.SQL+")")
		args = append(args, c.Args...)
	}
	return Cond{SQL: strings.Join(parts, " AND "), Args: args}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains builds a case-insensitive substring match over the given columns,
// OR-combined. An empty term yields no condition.
func Contains(term string, columns ...string) (Cond, bool) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return Cond{}, false
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	parts := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, col))
		args = append(args, pattern)
	}
	return Cond{SQL: "(" + strings.Join(parts, " OR ") + ")", Args: args}, true
}

// Filter collects the request supplied filters of a list endpoint. The search
// term is matched against SearchFields, every entry of Equals is AND-ed with it.
type Filter struct {
	Search       string
	SearchFields []string
	Equals       []Cond
}

func (f Filter) Conds() []Cond {
	conds := make([]Cond, 0, len(f.Equals)+1)
	if search, ok := Contains(f.Search, f.SearchFields...); ok {
		conds = append(conds, search)
	}
	return append(conds, f.Equals...)
}

// Sort is an allow-listed ORDER BY column and direction.
type Sort struct {
	Column string
	Order  pagination.OrderType
}

func (s Sort) String() string {
	if s.Order == pagination.OrderTypeAscending {
		return s.Column + " ASC"
	}
	return s.Column + " DESC"
}

// ResolveSort maps a requested API field onto its column. Unknown fields fall
// back to the given default field, which must be present in allowed.
func ResolveSort(rawField, rawOrder string, allowed map[string]string, fallback string) Sort {
	column, ok := allowed[strings.TrimSpace(rawField)]
	if !ok {
		column = allowed[fallback]
	}
	return Sort{Column: column, Order: pagination.ParseOrder(rawOrder)}
}

// ParseID validates an identifier taken from a path or query parameter.
func ParseID(raw, name string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, customerrors.InvalidInput(name + " is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, customerrors.InvalidInput("invalid " + name)
	}
	return id, nil
}

// ParseOptionalID returns nil only when the parameter is absent; a present but
// malformed identifier is an error rather than "no filter".
func ParseOptionalID(raw, name string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := ParseID(raw, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func ParseOptionalBool(raw, name string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, customerrors.InvalidInput("invalid " + name)
	}
	return &v, nil
}
