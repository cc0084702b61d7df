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
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/utils/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OwnerAlias is the table alias used by WithOwner.
const OwnerAlias = "owner_user"

// Pipeline describes a list query as match, join, computed fields, projection and
// sort stages. It is a value: every method returns a modified copy and never
// touches the receiver, so variants derived from one base cannot drift apart.
type Pipeline struct {
	table    string
	matches  []Cond
	joins    []Cond
	computed []Cond
	project  []string
	sorts    []Sort
}

func From(table string) Pipeline {
	return Pipeline{table: table}
}

func (p Pipeline) Table() string {
	return p.table
}

func (p Pipeline) Match(conds ...Cond) Pipeline {
	p.matches = append(slices.Clip(p.matches), conds...)
	return p
}

func (p Pipeline) Join(sql string, args ...any) Pipeline {
	p.joins = append(slices.Clip(p.joins), Cond{SQL: sql, Args: args})
	return p
}

// Compute adds a derived column, expr must alias itself ("... AS name").
func (p Pipeline) Compute(expr string, args ...any) Pipeline {
	p.computed = append(slices.Clip(p.computed), Cond{SQL: expr, Args: args})
	return p
}

func (p Pipeline) Project(columns ...string) Pipeline {
	p.project = append(slices.Clip(p.project), columns...)
	return p
}

func (p Pipeline) Sort(sorts ...Sort) Pipeline {
	p.sorts = append(slices.Clip(p.sorts), sorts...)
	return p
}

// WithOwner denormalizes the user referenced by localColumn into owner_* columns.
// Only the public profile subset is selected, credentials never leave the users table.
func (p Pipeline) WithOwner(localColumn string) Pipeline {
	return p.
		Join(fmt.Sprintf("JOIN users AS %s ON %s.id = %s", OwnerAlias, OwnerAlias, localColumn)).
		Project(
			localColumn+" AS owner_id",
			OwnerAlias+".username AS owner_username",
			OwnerAlias+".full_name AS owner_full_name",
			OwnerAlias+".avatar AS owner_avatar",
		)
}

// base builds FROM, JOIN and WHERE. Items and count both start from here.
func (p Pipeline) base(db *gorm.DB) *gorm.DB {
	tx := db.Table(p.table)
	for _, j := range p.joins {
		tx = tx.Joins(j.SQL, j.Args...)
	}
	for _, m := range p.matches {
		tx = tx.Where(m.SQL, m.Args...)
	}
	return tx
}

func (p Pipeline) selectClause() clause.Select {
	columns := slices.Clone(p.project)
	if len(columns) == 0 {
		columns = append(columns, p.table+".*")
	}
	var args []any
	for _, c := range p.computed {
		columns = append(columns, c.SQL)
		args = append(args, c.Args...)
	}
	return clause.Select{Expression: clause.Expr{SQL: strings.Join(columns, ", "), Vars: args}}
}

func (p Pipeline) items(db *gorm.DB) *gorm.DB {
	tx := p.base(db).Clauses(p.selectClause())
	for _, s := range p.sorts {
		tx = tx.Order(s.String())
	}
	return tx
}

func (p Pipeline) count(db *gorm.DB) *gorm.DB {
	return p.base(db)
}

// Result is the raw outcome of an assembled query.
type Result[T any] struct {
	Items      []T
	TotalCount int64
}

// Assemble runs the pipeline twice against the store: once bounded by skip and
// limit for the items, once as a count over the identical match and join stages.
func Assemble[T any](ctx context.Context, db *gorm.DB, p Pipeline, skip, limit int) (*Result[T], error) {
	tx := db.WithContext(ctx)

	var items []T
	if err := p.items(tx).Offset(skip).Limit(limit).Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", p.table, customerrors.FromStore(err))
	}

	var total int64
	if err := p.count(tx).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", p.table, customerrors.FromStore(err))
	}

	if items == nil {
		items = []T{}
	}
	return &Result[T]{Items: items, TotalCount: total}, nil
}

// Paginate assembles the pipeline for the requested page and wraps the outcome
// into a paged response.
func Paginate[T any](ctx context.Context, db *gorm.DB, p Pipeline, page pagination.PageRequest) (*pagination.PagedResponse[T], error) {
	result, err := Assemble[T](ctx, db, p, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewPagedResponse(result.Items, result.TotalCount, page), nil
}

// First runs the pipeline for a single row. found is false when nothing matched.
func First[T any](ctx context.Context, db *gorm.DB, p Pipeline) (row T, found bool, err error) {
	var rows []T
	if err = p.items(db.WithContext(ctx)).Limit(1).Scan(&rows).Error; err != nil {
		return row, false, fmt.Errorf("failed to query %s: %w", p.table, customerrors.FromStore(err))
	}
	if len(rows) == 0 {
		return row, false, nil
	}
	return rows[0], true, nil
}
