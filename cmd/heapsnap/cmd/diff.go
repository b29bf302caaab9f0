// ABOUTME: `heapsnap diff` — runs the diff engine (§4.14) across two loaded snapshots' "allObjects" aggregates
// ABOUTME: Unions both sides' class names so classes that vanished or newly appeared still get reported

package cmd

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <fileA> <fileB>",
	Short: "Diff two heap snapshots' per-class aggregates",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func init() { rootCmd.AddCommand(diffCmd) }

const diffPeerID = "b"

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)

	a, err := loadSnapshot(ctx, args[0])
	if err != nil {
		return err
	}
	b, err := loadSnapshot(ctx, args[1])
	if err != nil {
		return err
	}
	a.RegisterPeer(diffPeerID, b)

	aggA := a.GetAggregatesByClassName("allObjects", true, nil)
	aggB := b.GetAggregatesByClassName("allObjects", true, nil)

	seen := make(map[string]bool, len(aggA.ByClassName)+len(aggB.ByClassName))
	for name := range aggA.ByClassName {
		seen[name] = true
	}
	for name := range aggB.ByClassName {
		seen[name] = true
	}
	classNames := make([]string, 0, len(seen))
	for name := range seen {
		classNames = append(classNames, name)
	}
	sort.Strings(classNames)

	fmt.Printf("%-30s %8s %8s %12s\n", "Class", "+Count", "-Count", "Size delta")
	for _, className := range classNames {
		d, err := a.DiffByClassName(diffPeerID, className)
		if err != nil {
			logger.Warn("diffing class %s: %v", className, err)
			continue
		}
		if d == nil {
			continue
		}
		fmt.Printf("%-30s %8d %8d %12s\n", className, d.AddedCount, d.RemovedCount, signedBytes(d.SizeDelta))
	}
	return nil
}

func signedBytes(delta int64) string {
	if delta < 0 {
		return "-" + humanize.Bytes(uint64(-delta))
	}
	return "+" + humanize.Bytes(uint64(delta))
}
