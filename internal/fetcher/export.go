package fetcher

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
)

// ExportHeader is the column order written by WriteExport.
var ExportHeader = []string{
	"debtor_id", "first_name", "last_name", "best_phone", "best_email",
	"collectibility_score", "collectibility_reason", "enrichment_status",
}

// ExportRow is one scored debtor.
type ExportRow struct {
	DebtorID  string
	FirstName string
	LastName  string
	BestPhone string
	BestEmail string
	Score     *int
	Reason    string
	Status    string
}

// WriteExport writes rows as CSV with ExportHeader. An unscored debtor has
// an empty score cell.
func WriteExport(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return eris.Wrap(err, "fetcher: write export header")
	}
	for _, r := range rows {
		score := ""
		if r.Score != nil {
			score = strconv.Itoa(*r.Score)
		}
		rec := []string{r.DebtorID, r.FirstName, r.LastName, r.BestPhone, r.BestEmail, score, r.Reason, r.Status}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "fetcher: write export row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "fetcher: flush export")
}
