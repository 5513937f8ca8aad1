package feedview

import "postgrid/internal/api"

// Partition chunks the flattened item sequence into rows of columns items
// each. The last row may be shorter; zero items yields zero rows. The result
// is a pure function of its inputs, so identical inputs always produce
// identical row boundaries. Rows share backing storage with items.
func Partition(items []api.Summary, columns int) [][]api.Summary {
	if columns < 1 {
		columns = 1
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([][]api.Summary, 0, (len(items)+columns-1)/columns)
	for start := 0; start < len(items); start += columns {
		end := start + columns
		if end > len(items) {
			end = len(items)
		}
		rows = append(rows, items[start:end])
	}
	return rows
}

// Window is the currently renderable slice of rows. Start is inclusive, End
// exclusive; both lie within [0, rowCount].
type Window struct {
	Start       int
	End         int
	RowHeight   int
	TotalHeight int
}

// Contains reports whether row index i falls inside the window.
func (w Window) Contains(i int) bool {
	return i >= w.Start && i < w.End
}

// OffsetOf returns the absolute scroll offset of row i under the uniform
// height estimate. Rendering rows at these offsets keeps total scroll height
// equal to the full content length even though only the window is rendered.
func (w Window) OffsetOf(i int) int {
	return i * w.RowHeight
}

// VisibleWindow computes which rows intersect [scrollOffset,
// scrollOffset+viewportSize), expanded by overscan rows on each side and
// clamped to [0, rowCount). The computation is pure arithmetic: cost is
// independent of the total row count, which is what makes per-scroll-event
// recomputation affordable.
func VisibleWindow(rowCount, scrollOffset, viewportSize, rowHeight, overscan int) Window {
	if rowHeight < 1 {
		rowHeight = 1
	}
	if overscan < 0 {
		overscan = 0
	}
	w := Window{RowHeight: rowHeight, TotalHeight: rowCount * rowHeight}
	if rowCount <= 0 || viewportSize <= 0 {
		return w
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}

	start := scrollOffset/rowHeight - overscan
	if start < 0 {
		start = 0
	}
	// Last row whose [offset, offset+height) interval still intersects the
	// viewport, then one past it.
	end := (scrollOffset+viewportSize-1)/rowHeight + 1 + overscan
	if end > rowCount {
		end = rowCount
	}
	if start > rowCount {
		start = rowCount
	}
	w.Start = start
	w.End = end
	return w
}
