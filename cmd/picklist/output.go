package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"picklist/internal/calendar"
	"picklist/internal/config"
	"picklist/internal/export"
	"picklist/internal/snapshot"
)

func writeOutput(out config.OutputConfig, r snapshot.Report) error {
	if out.Path == "" {
		return render(os.Stdout, out, r)
	}
	f, err := os.Create(out.Path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := render(f, out, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func render(w io.Writer, out config.OutputConfig, r snapshot.Report) error {
	switch out.Format {
	case "csv":
		if err := export.WriteCSV(w, r.Items, export.CSVOptions{Quote: out.Quote}); err != nil {
			return err
		}
		// the unquoted form has no trailing newline
		if out.Path == "" && !out.Quote {
			_, err := fmt.Fprintln(w)
			return err
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(&r)
	default:
		return renderTable(w, r)
	}
}

func renderTable(w io.Writer, r snapshot.Report) error {
	s := r.Summary
	fmt.Fprintf(w, "Picking list for %s\n", calendar.DisplayDate(r.Date))
	fmt.Fprintf(w, "Orders: %d  Total value: $%s  Gift boxes: %d\n", s.TotalOrders, s.TotalValue.StringFixed(2), s.TotalGiftBoxes())
	ids := make([]string, 0, len(s.GiftBoxCounts))
	for id := range s.GiftBoxCounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "  %s: %d\n", id, s.GiftBoxCounts[id])
	}
	fmt.Fprintln(w)
	if len(r.Items) == 0 {
		_, err := fmt.Fprintln(w, "No items to pick for this date.")
		return err
	}
	return export.WriteTable(w, r.Items)
}
