package runner

import (
	"maps"

	"github.com/RoaringBitmap/roaring"
)

// LogTable accumulates values logged by Log processes, one row per row
// index. It lives beside the state tree, not in it.
type LogTable struct {
	rows []map[string]any

	// Rows that have received at least one value. Gap rows created to
	// reach a higher index stay unset.
	populated *roaring.Bitmap
}

func NewLogTable() *LogTable {
	return &LogTable{populated: roaring.New()}
}

// Merge overlays values onto row, growing the table with empty rows as
// needed. Existing keys in the row are overwritten.
func (t *LogTable) Merge(row int, values map[string]any) {
	t.grow(row)
	merged := make(map[string]any, len(t.rows[row])+len(values))
	maps.Copy(merged, t.rows[row])
	maps.Copy(merged, values)
	t.rows[row] = merged
	if len(merged) > 0 {
		t.populated.Add(uint32(row))
	}
}

func (t *LogTable) grow(row int) {
	for len(t.rows) <= row {
		t.rows = append(t.rows, map[string]any{})
	}
}

// Len returns the number of rows, including empty gap rows.
func (t *LogTable) Len() int { return len(t.rows) }

// Row returns row i, or nil when the table is shorter.
func (t *LogTable) Row(i int) map[string]any {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return t.rows[i]
}

// Rows returns a snapshot of every row.
func (t *LogTable) Rows() []map[string]any {
	out := make([]map[string]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = maps.Clone(r)
	}
	return out
}

// Populated returns the indexes of rows holding values, ascending.
func (t *LogTable) Populated() []int {
	ids := t.populated.ToArray()
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

// Reset empties the table.
func (t *LogTable) Reset() {
	t.rows = nil
	t.populated.Clear()
}
