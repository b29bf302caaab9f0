// ABOUTME: `heapsnap analyze` — load + initialize + print StaticData/Statistics/top classes
// ABOUTME: Checks the store cache first so re-analyzing the same file is instant on a hit

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/prateek/heapsnap/snapshot"
	"github.com/prateek/heapsnap/store"
)

var analyzeTopN int

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Load a heap snapshot, run the full pipeline, and print a summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntVarP(&analyzeTopN, "top", "n", 0, "Number of top classes by retained size to print (0 = config default)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmdContext(cmd)
	topN := analyzeTopN
	if topN <= 0 {
		topN = appConfig.Output.TopN
	}

	cache, fingerprint, err := openCache(ctx, path)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
		if sum, err := cache.Latest(ctx, fingerprint); err != nil {
			logger.Warn("checking analysis cache: %v", err)
		} else if sum != nil {
			logger.Info("using cached analysis run %s from %s", sum.RunID, sum.CreatedAt.Format(time.RFC3339))
			return printCachedSummary(sum, topN)
		}
	}

	snap, err := loadSnapshot(ctx, path)
	if err != nil {
		return err
	}

	sd := snap.StaticData()
	stats := snap.Statistics()
	agg := snap.GetAggregatesByClassName("allObjects", false, nil)

	printStaticData(sd)
	printStatistics(stats)
	printTopClasses(classEntries(agg), topN)

	if cache != nil {
		if _, err := cache.Put(ctx, fingerprint, path, sd, stats, agg.ByClassName); err != nil {
			logger.Warn("caching analysis run: %v", err)
		}
	}
	return nil
}

// openCache opens the store cache for path when caching is enabled in
// config, returning a nil *store.Store (not an error) when it's disabled.
func openCache(ctx context.Context, path string) (*store.Store, string, error) {
	if !appConfig.Cache.Enabled {
		return nil, "", nil
	}
	fingerprint, err := store.Fingerprint(path)
	if err != nil {
		return nil, "", fmt.Errorf("fingerprinting %s: %w", path, err)
	}
	s, err := store.Open(appConfig.Cache.Path)
	if err != nil {
		return nil, "", fmt.Errorf("opening analysis cache: %w", err)
	}
	return s, fingerprint, nil
}

func printStaticData(sd snapshot.StaticData) {
	fmt.Printf("Nodes:       %d\n", sd.NodeCount)
	fmt.Printf("Total size:  %s\n", humanize.Bytes(sd.TotalSize))
	fmt.Printf("Max JS id:   %d\n\n", sd.MaxJsNodeID)
}

func printStatistics(stats snapshot.Statistics) {
	fmt.Println("By category:")
	fmt.Printf("  V8 heap:   %s\n", humanize.Bytes(stats.V8Heap))
	fmt.Printf("  Native:    %s\n", humanize.Bytes(stats.Native))
	fmt.Printf("  Code:      %s\n", humanize.Bytes(stats.Code))
	fmt.Printf("  JS arrays: %s\n", humanize.Bytes(stats.JSArrays))
	fmt.Printf("  Strings:   %s\n", humanize.Bytes(stats.Strings))
	fmt.Printf("  System:    %s\n\n", humanize.Bytes(stats.System))
}

func classEntries(agg *snapshot.Aggregate) []*snapshot.AggregateEntry {
	entries := make([]*snapshot.AggregateEntry, 0, len(agg.ByClassName))
	for _, e := range agg.ByClassName {
		entries = append(entries, e)
	}
	return entries
}

func printTopClasses(entries []*snapshot.AggregateEntry, topN int) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].MaxRetainedSize > entries[j].MaxRetainedSize
	})
	if topN > 0 && topN < len(entries) {
		entries = entries[:topN]
	}
	fmt.Printf("Top %d classes by retained size:\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  %-30s count=%-8d self=%-10s retained=%s\n",
			e.ClassName, e.Count, humanize.Bytes(e.SelfSize), humanize.Bytes(uint64(e.MaxRetainedSize)))
	}
}

func printCachedSummary(sum *store.Summary, topN int) error {
	var sd snapshot.StaticData
	if err := json.Unmarshal(sum.StaticData, &sd); err != nil {
		return fmt.Errorf("decoding cached static data: %w", err)
	}
	var stats snapshot.Statistics
	if err := json.Unmarshal(sum.Statistics, &stats); err != nil {
		return fmt.Errorf("decoding cached statistics: %w", err)
	}
	printStaticData(sd)
	printStatistics(stats)

	if sum.Aggregates == nil {
		return nil
	}
	var byClassName map[string]*snapshot.AggregateEntry
	if err := json.Unmarshal(sum.Aggregates, &byClassName); err != nil {
		return fmt.Errorf("decoding cached aggregates: %w", err)
	}
	entries := make([]*snapshot.AggregateEntry, 0, len(byClassName))
	for _, e := range byClassName {
		entries = append(entries, e)
	}
	printTopClasses(entries, topN)
	return nil
}
