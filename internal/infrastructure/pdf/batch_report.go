// Package pdf genera el reporte de lotes de un producto con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Código + Nombre     │  Fecha de emisión            │
//	│  RESUMEN: Stock / Costo promedio / Precio / Estado          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Lote | Entrada | Vence | Inicial | Saldo | Costo... │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Saldo total / Valor en stock                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/autocare-estoque/internal/application/inventory"
	"github.com/jhoicas/autocare-estoque/internal/domain/entity"
)

var _ inventory.BatchReportGenerator = (*MarotoBatchReport)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// MarotoBatchReport implementa inventory.BatchReportGenerator usando Maroto v2.
type MarotoBatchReport struct {
	loc *time.Location
}

// NewMarotoBatchReport construye el generador; las fechas se imprimen en loc.
func NewMarotoBatchReport(loc *time.Location) *MarotoBatchReport {
	if loc == nil {
		loc = time.UTC
	}
	return &MarotoBatchReport{loc: loc}
}

// GenerateBatchReport genera el PDF con todos los lotes del producto (incluye agotados).
func (g *MarotoBatchReport) GenerateBatchReport(
	_ context.Context,
	product *entity.Product,
	batches []*entity.Batch,
	generatedAt time.Time,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de lotes "+product.Code, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(product, generatedAt))
	m.AddRows(summaryRow(product))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(g.tableRows(batches)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(batches))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoBatchReport) headerRow(p *entity.Product, at time.Time) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(p.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Código: "+p.Code+"   |   Unidad: "+p.Unit, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("REPORTE DE LOTES", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Emitido: "+at.In(g.loc).Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func summaryRow(p *entity.Product) core.Row {
	item := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Size: 10, Top: 5}),
		)
	}
	return row.New(12).Add(
		item("STOCK ACTUAL", formatQuantity(p.CurrentQuantity)+" "+p.Unit),
		item("COSTO PROMEDIO", "R$ "+formatMoney(p.AverageCost)),
		item("PRECIO DE VENTA", "R$ "+formatMoney(p.SalePrice)),
		item("ESTADO", p.Status),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Lote", 3, align.Left),
		h("Entrada", 2, align.Center),
		h("Vence", 1, align.Center),
		h("Inicial", 1, align.Right),
		h("Saldo", 1, align.Right),
		h("Costo", 2, align.Right),
		h("Venta", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func (g *MarotoBatchReport) tableRows(batches []*entity.Batch) []core.Row {
	if len(batches) == 0 {
		return []core.Row{row.New(8).Add(col.New(12).Add(
			text.New("Sin lotes registrados", props.Text{Size: 8, Align: align.Center, Top: 2, Color: colorGray}),
		))}
	}
	cell := func(s string, size int, a align.Type, c *props.Color) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1, Color: c}))
	}
	result := make([]core.Row, 0, len(batches))
	for _, b := range batches {
		var c *props.Color
		if !b.Active {
			c = colorGray
		}
		expiry := "-"
		if b.ExpiryDate != nil {
			expiry = b.ExpiryDate.In(g.loc).Format("02/01/06")
		}
		sale := "-"
		if b.UnitSalePrice != nil {
			sale = formatMoney(*b.UnitSalePrice)
		}
		result = append(result, row.New(7).Add(
			cell(nonEmpty(b.LotNumber, fmt.Sprintf("#%d", b.ID)), 3, align.Left, c),
			cell(b.EntryDate.In(g.loc).Format("02/01/2006"), 2, align.Center, c),
			cell(expiry, 1, align.Center, c),
			cell(formatQuantity(b.InitialQuantity), 1, align.Right, c),
			cell(formatQuantity(b.RemainingQuantity), 1, align.Right, c),
			cell(formatMoney(b.UnitCost), 2, align.Right, c),
			cell(sale, 2, align.Right, c),
		))
	}
	return result
}

func totalsRow(batches []*entity.Batch) core.Row {
	qty, value := stockTotals(batches)
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	val := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 1, Color: colorPrimary})
	}
	return row.New(12).Add(
		col.New(6),
		col.New(3).Add(label("Saldo total:"), label("Valor en stock:")),
		col.New(3).Add(val(formatQuantity(qty)), val("R$ "+formatMoney(value))),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// stockTotals suma saldo y valor (saldo * costo) de los lotes activos.
func stockTotals(batches []*entity.Batch) (qty, value decimal.Decimal) {
	for _, b := range batches {
		if !b.Active {
			continue
		}
		qty = qty.Add(b.RemainingQuantity)
		value = value.Add(b.RemainingQuantity.Mul(b.UnitCost))
	}
	return qty, value.Round(2)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney 1234.5 → "1.234,50".
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	out := groupThousands(intPart) + "," + frac
	if neg {
		return "-" + out
	}
	return out
}

// formatQuantity sin ceros decimales sobrantes: 12 → "12", 2.5 → "2,5".
func formatQuantity(d decimal.Decimal) string {
	intPart, frac, _ := strings.Cut(d.String(), ".")
	out := groupThousands(intPart)
	if frac != "" {
		out += "," + frac
	}
	return out
}

// groupThousands inserta puntos de miles: "1000000" → "1.000.000".
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
