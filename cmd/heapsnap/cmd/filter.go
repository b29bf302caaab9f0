// ABOUTME: `heapsnap filter` — runs a named filter (§4.15) and reports matching node count/ids
// ABOUTME: NodeFilter's bool means "pass the aggregation filter": duplicatedStrings fails the nodes it targets, the retainer filters pass theirs

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var filterLimit int

var filterCmd = &cobra.Command{
	Use:   "filter <file> <name>",
	Short: "Run a named filter and report matching nodes",
	Long:  "Named filters: objectsRetainedByDetachedDomNodes, objectsRetainedByConsole, duplicatedStrings",
	Args:  cobra.ExactArgs(2),
	RunE:  runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().IntVar(&filterLimit, "limit", 20, "Max matching node ids to print (0 = all)")
}

func runFilter(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	snap, err := loadSnapshot(ctx, args[0])
	if err != nil {
		return err
	}
	name := args[1]

	nf, err := snap.CreateNamedFilter(name)
	if err != nil {
		return fmt.Errorf("creating filter %q: %w", name, err)
	}

	targeted := func(ord int) bool { return nf(ord) }
	if name == "duplicatedStrings" {
		targeted = func(ord int) bool { return !nf(ord) }
	}

	var matched []int
	for ord := 0; ord < snap.NodeCount(); ord++ {
		if targeted(ord) {
			matched = append(matched, ord)
		}
	}

	fmt.Printf("Filter %q matched %d of %d nodes\n", name, len(matched), snap.NodeCount())
	limit := len(matched)
	if filterLimit > 0 && filterLimit < limit {
		limit = filterLimit
	}
	for _, ord := range matched[:limit] {
		n := snap.Node(ord)
		fmt.Printf("  @%-10d %s\n", n.ID(), n.Name())
	}
	if limit < len(matched) {
		fmt.Printf("  ... %d more\n", len(matched)-limit)
	}
	return nil
}
