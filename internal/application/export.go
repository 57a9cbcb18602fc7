package application

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/branchpulse/branchpulse/internal/domain/model"
)

// WriteCSV writes the branch detail table as delimited text, one row per
// branch, matching the dashboard table's columns.
func WriteCSV(w io.Writer, records []model.BranchRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Branch", "Last Commit", "Category", "Author", "Author Email"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.Name,
			record.LastCommitDate(),
			string(record.Category),
			record.AuthorName,
			record.AuthorEmail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", record.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
