// Package export saves entity spreadsheets to disk: server-rendered
// downloads named from the content-disposition header, and locally
// rendered workbooks built from cached list data.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"agencydesk/internal/api"
	"agencydesk/internal/logging"
	"agencydesk/internal/resource"
)

// DefaultFilename is the save-as fallback when the server supplies no
// content-disposition filename.
func DefaultFilename(entity string, now time.Time) string {
	return fmt.Sprintf("%s-export-%s.xlsx", entity, now.Format("2006-01-02"))
}

// Save writes a server download into dir, preferring the server's
// filename. Returns the written path.
func Save(dir, entity string, dl *api.Download) (string, error) {
	name := dl.Filename
	if name == "" {
		name = DefaultFilename(entity, time.Now())
	}
	// The server's filename is advisory; never let it escape dir.
	name = filepath.Base(name)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, dl.Body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	logging.Export("saved %s export to %s (%d bytes)", entity, path, len(dl.Body))
	return path, nil
}

// WriteLocal renders one list page to a workbook at path. Columns are
// the union of the items' top-level scalar fields, sorted, with _id
// first when present; nested sections are skipped.
func WriteLocal(path, entity string, page *resource.ListPage) error {
	cols := columns(page.Items)
	if len(cols) == 0 {
		return fmt.Errorf("no exportable fields for %s", entity)
	}

	wb := excelize.NewFile()
	defer wb.Close()
	const sheet = "Sheet1"

	for i, col := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := wb.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for r, item := range page.Items {
		for c, col := range cols {
			v, ok := item[col]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := wb.SetCellValue(sheet, cell, scalar(v)); err != nil {
				return fmt.Errorf("failed to write row %d: %w", r+1, err)
			}
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	logging.Export("rendered local %s export to %s (%d rows)", entity, path, len(page.Items))
	return nil
}

func columns(items []map[string]interface{}) []string {
	seen := map[string]bool{}
	for _, item := range items {
		for k, v := range item {
			switch v.(type) {
			case map[string]interface{}, []interface{}:
				// nested sections have no single-cell rendering
			default:
				seen[k] = true
			}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		if k != "_id" {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	if seen["_id"] {
		cols = append([]string{"_id"}, cols...)
	}
	return cols
}

func scalar(v interface{}) interface{} {
	if v == nil {
		return ""
	}
	return v
}
