package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ArielSanroj/cfobot/internal/kpi"
	"github.com/ArielSanroj/cfobot/internal/sheets"
)

// WriteConsolidatedCSV serialises the consolidated class-level balance. The
// header carries the canonical balance columns, one Extra_N column per
// preserved extra cell and the month tag.
func WriteConsolidatedCSV(w io.Writer, balance *sheets.ConsolidatedBalance) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(consolidatedHeader(balance.ExtraCount)); err != nil {
		return err
	}
	for _, row := range balance.Rows {
		if err := writer.Write(consolidatedRecord(row, balance.ExtraCount)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteKPICSV serialises the KPI table for one report month.
func WriteKPICSV(w io.Writer, res *kpi.Result) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"KPI", fmt.Sprintf("Valor %s 2025", res.Month)}); err != nil {
		return err
	}
	for _, name := range res.Names {
		if err := writer.Write([]string{name, formatFloat(res.Metrics[name])}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func consolidatedHeader(extraCount int) []string {
	header := sheets.BalanceColumns()
	for i := 1; i <= extraCount; i++ {
		header = append(header, fmt.Sprintf("Extra_%d", i))
	}
	return append(header, "Month")
}

func consolidatedRecord(row sheets.ConsolidatedRow, extraCount int) []string {
	record := []string{
		row.Level,
		row.Code,
		row.Name,
		formatFloat(row.Opening),
		formatFloat(row.Debit),
		formatFloat(row.Credit),
		formatFloat(row.Closing),
	}
	for i := 0; i < extraCount; i++ {
		if i < len(row.Extras) {
			record = append(record, row.Extras[i])
		} else {
			record = append(record, "")
		}
	}
	return append(record, row.Month)
}
