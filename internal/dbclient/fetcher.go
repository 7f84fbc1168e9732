package dbclient

import (
	"context"
	"maps"

	"pagebuilder/internal/datactx"
)

// TableFetcher binds a context to a table or collection of an external
// source. With an identifier it returns one record; without one it returns
// the filtered, sorted page of records.
type TableFetcher struct {
	pool            *Pool
	source          string
	table           string
	identifierField string
}

func NewTableFetcher(pool *Pool, source, table, identifierField string) *TableFetcher {
	if identifierField == "" {
		identifierField = datactx.DefaultIdentifierField
	}
	return &TableFetcher{pool: pool, source: source, table: table, identifierField: identifierField}
}

var _ datactx.Fetcher = (*TableFetcher)(nil)

func (f *TableFetcher) Fetch(ctx context.Context, p datactx.Params) (any, error) {
	conn, err := f.pool.Get(f.source)
	if err != nil {
		return nil, err
	}

	where := make(map[string]any, len(p.Filters)+1)
	for k, v := range p.Filters {
		where[k] = v
	}

	if p.Identifier != "" {
		where[f.identifierField] = p.Identifier
		rec, err := conn.FindOne(ctx, Query{Table: f.table, Where: where, Sorts: p.Sorts})
		if err != nil || rec == nil {
			return nil, err
		}
		return rec, nil
	}

	q := Query{Table: f.table, Where: where, Sorts: p.Sorts}
	if p.Pagination {
		q.Limit = p.PerPage
		q.Offset = (max(p.Page, 1) - 1) * p.PerPage
	}
	records, err := conn.FindMany(ctx, q)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"items":   records,
		"page":    p.Page,
		"perPage": p.PerPage,
		"filters": maps.Clone(p.Filters),
	}, nil
}
