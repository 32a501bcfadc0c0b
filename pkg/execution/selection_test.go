package execution

import (
	"context"
	"testing"

	"coredb/pkg/segment"
	"coredb/pkg/storage"
	"coredb/pkg/types"
)

type tableOperator struct {
	Base
	table *storage.Table
}

func (t *tableOperator) Execute(ctx context.Context) (*storage.Table, error) {
	t.SetOutput(t.table)
	return t.table, nil
}
func (t *tableOperator) DeepCopy() Operator { return &tableOperator{table: t.table} }

func buildInt32Table(t *testing.T, values []int32) *storage.Table {
	t.Helper()
	variants := make([]types.AllTypeVariant, len(values))
	for i, v := range values {
		variants[i] = types.NewVariant(types.NewInt32Field(v))
	}
	seg, err := segment.NewValueSegmentFromVariants(types.Int32Type, variants)
	if err != nil {
		t.Fatalf("build segment: %v", err)
	}
	schema := []storage.ColumnDef{{Name: "a", Type: types.Int32Type}}
	table := storage.NewTable(schema, storage.Data, 64)
	if err := table.AppendChunk([]segment.Segment{seg}, nil); err != nil {
		t.Fatalf("append chunk: %v", err)
	}
	return table
}

func TestSelectionFiltersRows(t *testing.T) {
	table := buildInt32Table(t, []int32{1, 2, 3, 4, 5})
	pred := NewLiteralPredicate(0, types.GreaterThan, types.NewInt32Field(2))
	sel, err := NewSelection(&tableOperator{table: table}, pred)
	if err != nil {
		t.Fatalf("new selection: %v", err)
	}

	out, err := sel.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 3 {
		t.Fatalf("expected 3 rows (3,4,5), got %d", out.RowCount())
	}
}

func TestSelectionConjunctionCollapsesPostFilters(t *testing.T) {
	table := buildInt32Table(t, []int32{1, 2, 3, 4, 5})
	sel, err := NewSelection(&tableOperator{table: table},
		NewLiteralPredicate(0, types.GreaterThan, types.NewInt32Field(1)),
		NewLiteralPredicate(0, types.LessThan, types.NewInt32Field(5)),
	)
	if err != nil {
		t.Fatalf("new selection: %v", err)
	}
	out, err := sel.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.RowCount() != 3 {
		t.Fatalf("expected 3 rows (2,3,4), got %d", out.RowCount())
	}
}

func TestSelectionRejectsColumnColumnPredicate(t *testing.T) {
	table := buildInt32Table(t, []int32{1})
	pred := ColumnPredicate{LeftColumn: 0, RightColumn: 0, Op: types.Equals}
	if _, err := NewSelection(&tableOperator{table: table}, pred); err == nil {
		t.Fatalf("expected error for a non-literal predicate")
	}
}
