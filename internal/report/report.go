// Package report renders search results as console text.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/eugenenazirov/batch-picker/internal/inventory"
	"github.com/eugenenazirov/batch-picker/internal/search"
)

// Header writes the supply and order totals shown before a search starts.
func Header(w io.Writer, catalog *inventory.Catalog, target int) error {
	_, err := fmt.Fprintf(w, "inventory quantity: %d\norder quantity:     %d\n\n", catalog.TotalQuantity(), target)
	return err
}

// Write renders res: the selected batches with a running sum when found, the best
// quantity otherwise, followed by the search statistics.
func Write(w io.Writer, catalog *inventory.Catalog, res search.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if res.Found() {
		fmt.Fprintf(tw, "found selection for %d:\n", res.Target)
		sum := 0
		for _, pick := range res.Selection {
			b, err := catalog.Batch(pick.BatchID)
			if err != nil {
				return fmt.Errorf("render selection: %w", err)
			}
			quantity := pick.Count * b.UnitSize
			sum += quantity
			fmt.Fprintf(tw, " batch %d\t%s %d/%d\tpackage: %d * %d = %d\tsum: %d\n",
				b.ID, usage(pick.Count, b.UnitCount), pick.Count, b.UnitCount,
				b.UnitSize, pick.Count, quantity, sum)
		}
	} else {
		fmt.Fprintf(tw, "no exact selection for %d within window %d\n", res.Target, res.Window)
		fmt.Fprintf(tw, "best reachable quantity: %d\n", res.BestQuantity)
	}

	s := res.Stats
	fmt.Fprintf(tw, "batches:\t%d\n", s.Batches)
	fmt.Fprintf(tw, "expansions:\t%d\n", s.Expansions)
	fmt.Fprintf(tw, "insertions:\t%d\n", s.Insertions)
	fmt.Fprintf(tw, "pruned:\t%d (%d passes)\n", s.Pruned, s.Prunes)
	fmt.Fprintf(tw, "peak frontier:\t%d\n", s.PeakFrontier)
	fmt.Fprintf(tw, "total time:\t%s\n", s.Elapsed)
	fmt.Fprintf(tw, "expand time:\t%s\n", s.ExpandTime)
	fmt.Fprintf(tw, "prune time:\t%s\n", s.PruneTime)

	return tw.Flush()
}

func usage(count, available int) string {
	if count == available {
		return "all"
	}
	return "some"
}
