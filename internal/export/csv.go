package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"picklist/internal/calendar"
	"picklist/internal/model"
)

// Header is the first CSV row.
var Header = []string{"Product ID", "Product Name", "Box Type", "Order ID", "Quantity"}

// CSVOptions controls CSV output.
type CSVOptions struct {
	// Quote applies RFC 4180 quoting. Without it fields are joined with bare
	// commas, rows with "\n" and there is no trailing newline, so a comma inside
	// a name shifts the columns.
	Quote bool
}

// FileName is the download name for a list exported on now.
func FileName(now time.Time) string {
	return "picking-list-" + calendar.FormatDate(now) + ".csv"
}

func record(it model.PickingItem) []string {
	return []string{it.ProductID, it.Name, it.BoxType, it.OrderID, strconv.Itoa(it.Quantity)}
}

// WriteCSV writes the header and one row per item, in the order given.
func WriteCSV(w io.Writer, items []model.PickingItem, opts CSVOptions) error {
	if opts.Quote {
		cw := csv.NewWriter(w)
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for _, it := range items {
			if err := cw.Write(record(it)); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	}

	rows := make([]string, 0, len(items)+1)
	rows = append(rows, strings.Join(Header, ","))
	for _, it := range items {
		rows = append(rows, strings.Join(record(it), ","))
	}
	if _, err := io.WriteString(w, strings.Join(rows, "\n")); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteTable writes items as an aligned text table.
func WriteTable(w io.Writer, items []model.PickingItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT ID\tPRODUCT NAME\tBOX TYPE\tQUANTITY")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", it.ProductID, it.Name, it.BoxType, it.Quantity)
	}
	return tw.Flush()
}
