package caption

import (
	"math"
	"strconv"
)

// CEA-608 caption grid
const (
	GridRows    = 15
	GridColumns = 32
)

// safe title area: 80% of the frame, centred
const (
	safeAreaMargin = 10.0
	safeAreaSize   = 80.0
	columnWidth    = safeAreaSize / GridColumns
	rowHeight      = safeAreaSize / GridRows
)

// horizontal text alignment
type Align int

const (
	AlignUnset Align = iota
	AlignStart
	AlignCenter
	AlignEnd
	AlignLeft
	AlignRight
)

var alignNames = map[Align]string{
	AlignStart:  "start",
	AlignCenter: "center",
	AlignEnd:    "end",
	AlignLeft:   "left",
	AlignRight:  "right",
}

func (a Align) String() string {
	return alignNames[a]
}

func parseAlign(s string) Align {
	switch s {
	case "start":
		return AlignStart
	case "center", "middle", "centre":
		return AlignCenter
	case "end":
		return AlignEnd
	case "left":
		return AlignLeft
	case "right":
		return AlignRight
	}
	return AlignUnset
}

// vertical anchoring of text inside a box
type VAlign int

const (
	VAlignUnset VAlign = iota
	VAlignTop
	VAlignCenter
	VAlignBottom
)

// cell on the caption grid, Row 1..15 and Column 0..31
type Grid struct {
	Row    int
	Column int
}

// area of the frame in percentages
type Box struct {
	X, Y          float64
	Width, Height float64
	Placed        bool // X and Y are meaningful
	Align         Align
	DisplayAlign  VAlign
}

// either representation may be set; the other is derived on demand
type Position struct {
	Grid *Grid
	Box  *Box
}

func GridPosition(row, column int) *Position {
	g := clampGrid(Grid{Row: row, Column: column})
	return &Position{Grid: &g}
}

func BoxPosition(b Box) *Position {
	return &Position{Box: &b}
}

// percentage box, converting from the grid when needed
func (p *Position) AsBox() Box {
	if p.Box != nil {
		return *p.Box
	}
	if p.Grid != nil {
		return GridToBox(*p.Grid)
	}
	return Box{}
}

// grid cell, converting from the box when needed
func (p *Position) AsGrid() Grid {
	if p.Grid != nil {
		return clampGrid(*p.Grid)
	}
	if p.Box != nil {
		return BoxToGrid(*p.Box)
	}
	return Grid{Row: GridRows}
}

// maps a cell to the safe title area
func GridToBox(g Grid) Box {
	g = clampGrid(g)
	return Box{
		X:      safeAreaMargin + columnWidth*float64(g.Column),
		Y:      safeAreaMargin + rowHeight*float64(g.Row-1),
		Width:  columnWidth * float64(GridColumns-g.Column),
		Height: rowHeight * float64(GridRows-g.Row+1),
		Placed: true,
		Align:  AlignStart,
	}
}

// nearest cell to the box origin
func BoxToGrid(b Box) Grid {
	if !b.Placed {
		return Grid{Row: GridRows}
	}
	col := int(math.Round((b.X - safeAreaMargin) / columnWidth))
	row := int(math.Round((b.Y-safeAreaMargin)/rowHeight)) + 1
	return clampGrid(Grid{Row: row, Column: col})
}

func clampGrid(g Grid) Grid {
	if g.Row < 1 {
		g.Row = 1
	}
	if g.Row > GridRows {
		g.Row = GridRows
	}
	if g.Column < 0 {
		g.Column = 0
	}
	if g.Column >= GridColumns {
		g.Column = GridColumns - 1
	}
	return g
}

// percentage with at most two decimals and no trailing zeros
func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "%"
}
