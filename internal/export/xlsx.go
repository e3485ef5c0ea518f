package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ArielSanroj/cfobot/internal/budget"
	"github.com/ArielSanroj/cfobot/internal/sheets"
)

// WriteConsolidatedXLSX writes the consolidated class-level balance as a
// one-sheet workbook.
func WriteConsolidatedXLSX(w io.Writer, balance *sheets.ConsolidatedBalance) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Consolidado"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]interface{}, 0, 8+balance.ExtraCount)
	for _, col := range consolidatedHeader(balance.ExtraCount) {
		header = append(header, col)
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range balance.Rows {
		values := []interface{}{row.Level, row.Code, row.Name, row.Opening, row.Debit, row.Credit, row.Closing}
		for j := 0; j < balance.ExtraCount; j++ {
			if j < len(row.Extras) {
				values = append(values, row.Extras[j])
			} else {
				values = append(values, "")
			}
		}
		values = append(values, row.Month)
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// WriteBudgetXLSX writes the budget execution workbook: an "Ejecutado" sheet
// with the summary and, when present, a "Distribución" sheet with the
// per-account breakdown.
func WriteBudgetXLSX(w io.Writer, res *budget.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Ejecutado"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	header := []interface{}{"Categoría", "Actual " + res.Month, "Presupuesto Mensual", "% Ejecutado"}
	if err := setRow(f, summarySheet, 1, header); err != nil {
		return err
	}
	for i, row := range res.Summary {
		values := []interface{}{row.Category, row.Actual, row.Budget, row.Executed}
		if err := setRow(f, summarySheet, i+2, values); err != nil {
			return err
		}
	}

	if dist := res.Distribution; dist != nil {
		const distSheet = "Distribución"
		if _, err := f.NewSheet(distSheet); err != nil {
			return err
		}
		header := []interface{}{"Display Name"}
		for _, m := range dist.Months {
			header = append(header, m)
		}
		header = append(header,
			"Average Jan-Current",
			fmt.Sprintf("%% Diff vs %s", dist.PreviousLabel),
			"% vs Average",
			fmt.Sprintf("%% del Total %s", res.Month),
		)
		if err := setRow(f, distSheet, 1, header); err != nil {
			return err
		}
		for i, row := range dist.Rows {
			values := []interface{}{row.DisplayName}
			for _, m := range dist.Months {
				values = append(values, row.Values[m])
			}
			values = append(values, row.Average, row.DiffVsPrev, row.DiffVsAvg, row.ShareOfTotal)
			if err := setRow(f, distSheet, i+2, values); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
