package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const amountNumFmt = "#,##0.00"

// ExcelExporter implements Excel export using excelize
type ExcelExporter struct {
	sheetName string
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{
		sheetName: "Report",
	}
}

// Export writes a single sheet: title block, header, rows and totals.
// Decimal amounts become numeric cells with a two-place number format.
func (e *ExcelExporter) Export(data *ExportData, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", e.sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	rowIndex := 1
	if data.Title != "" {
		titleStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 14, Family: data.Style.FontFamily},
		})
		if err != nil {
			return fmt.Errorf("failed to create title style: %w", err)
		}
		cell := "A" + strconv.Itoa(rowIndex)
		f.SetCellValue(e.sheetName, cell, data.Title)
		f.SetCellStyle(e.sheetName, cell, cell, titleStyle)
		rowIndex++

		if data.Description != "" {
			f.SetCellValue(e.sheetName, "A"+strconv.Itoa(rowIndex), data.Description)
			rowIndex++
		}
		rowIndex++
	}

	headerStyle, err := e.createHeaderStyle(f, data.Style)
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headerRow := rowIndex
	for colIndex, header := range data.Headers {
		colName := columnNumberToName(colIndex + 1)
		cell := colName + strconv.Itoa(rowIndex)
		f.SetCellValue(e.sheetName, cell, header)
		f.SetCellStyle(e.sheetName, cell, cell, headerStyle)

		width, ok := data.Style.ColumnWidths[colIndex]
		if !ok {
			width = 18
		}
		f.SetColWidth(e.sheetName, colName, colName, width)
	}
	rowIndex++

	styles, err := e.createRowStyles(f, data.Style)
	if err != nil {
		return fmt.Errorf("failed to create row styles: %w", err)
	}

	for rowIdx, row := range data.Rows {
		band := rowIdx % 2
		if !data.Style.AlternateRows {
			band = 0
		}
		e.writeRow(f, rowIndex, row, styles[band])
		rowIndex++
	}

	if len(data.Totals) > 0 {
		e.writeRow(f, rowIndex, data.Totals, styles[2])
	}

	if data.Style.FreezeHeader {
		f.SetPanes(e.sheetName, &excelize.Panes{
			Freeze:      true,
			YSplit:      headerRow,
			TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
			ActivePane:  "bottomLeft",
		})
	}

	if data.Style.AutoFilter && len(data.Headers) > 0 && len(data.Rows) > 0 {
		lastCol := columnNumberToName(len(data.Headers))
		lastRow := headerRow + len(data.Rows)
		f.AutoFilter(e.sheetName, fmt.Sprintf("A%d:%s%d", headerRow, lastCol, lastRow), nil)
	}

	if err := f.Write(writer); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}

	return nil
}

// GetContentType returns the MIME type for Excel files
func (e *ExcelExporter) GetContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// GetFileExtension returns the file extension for Excel files
func (e *ExcelExporter) GetFileExtension() string {
	return ".xlsx"
}

type cellStyles struct {
	text   int
	amount int
}

func (e *ExcelExporter) writeRow(f *excelize.File, rowIndex int, row []interface{}, style cellStyles) {
	for colIndex, value := range row {
		cell := columnNumberToName(colIndex+1) + strconv.Itoa(rowIndex)
		switch v := value.(type) {
		case decimal.Decimal:
			f.SetCellFloat(e.sheetName, cell, v.InexactFloat64(), 2, 64)
			f.SetCellStyle(e.sheetName, cell, cell, style.amount)
		default:
			f.SetCellValue(e.sheetName, cell, formatCell(v))
			f.SetCellStyle(e.sheetName, cell, cell, style.text)
		}
	}
}

func (e *ExcelExporter) createHeaderStyle(f *excelize.File, style ExportStyle) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   style.HeaderBold,
			Size:   style.FontSize,
			Family: style.FontFamily,
			Color:  "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{stripHashFromColor(style.HeaderBgColor)},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
}

// createRowStyles returns the odd band, even band and totals styles
func (e *ExcelExporter) createRowStyles(f *excelize.File, style ExportStyle) ([3]cellStyles, error) {
	var out [3]cellStyles
	specs := []struct {
		bg   string
		bold bool
	}{
		{style.RowBgColor1, false},
		{style.RowBgColor2, false},
		{"", true},
	}

	numFmt := amountNumFmt
	for i, spec := range specs {
		base := excelize.Style{
			Font: &excelize.Font{Size: style.FontSize, Family: style.FontFamily, Bold: spec.bold},
		}
		if spec.bg != "" && spec.bg != "#FFFFFF" {
			base.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{stripHashFromColor(spec.bg)}}
		}

		text, err := f.NewStyle(&base)
		if err != nil {
			return out, err
		}

		amount := base
		amount.CustomNumFmt = &numFmt
		amount.Alignment = &excelize.Alignment{Horizontal: "right"}
		amountID, err := f.NewStyle(&amount)
		if err != nil {
			return out, err
		}

		out[i] = cellStyles{text: text, amount: amountID}
	}
	return out, nil
}

// columnNumberToName converts column number to Excel column name (1 -> A, 27 -> AA)
func columnNumberToName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+(col%26))) + name
		col /= 26
	}
	return name
}

func stripHashFromColor(color string) string {
	if len(color) > 0 && color[0] == '#' {
		return color[1:]
	}
	return color
}
