// ABOUTME: Shared file->Snapshot loading helper used by every subcommand
// ABOUTME: Wires loader.Open + snapshot.Open behind one progress-logging, span-wrapped call

package cmd

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/trace"

	"github.com/prateek/heapsnap/loader"
	_ "github.com/prateek/heapsnap/loader/v8json"
	"github.com/prateek/heapsnap/snapshot"
	"github.com/prateek/heapsnap/telemetry"
)

// loadSnapshot opens path, detects its wire format via the loader registry,
// and runs the full analysis pipeline. Each on_progress milestone opens a
// span that stays open until the next milestone fires (or Initialize
// returns, for the last one), since Initialize itself has no phase-end hook
// to pair with.
func loadSnapshot(ctx context.Context, path string) (*snapshot.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	_, loadSpan := telemetry.StartPhase(ctx, tracer, "Loading dump")
	raw, err := loader.Open(f)
	loadSpan.End()
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	var phaseSpan trace.Span
	onProgress := func(status string, value, total int) {
		if phaseSpan != nil {
			phaseSpan.End()
		}
		if total > 0 {
			logger.Debug("%s (%d/%d)", status, value, total)
		} else {
			logger.Debug("%s", status)
		}
		_, phaseSpan = telemetry.StartPhase(ctx, tracer, status)
	}

	snap, err := snapshot.Open(ctx, *raw, snapshot.Options{OnProgress: onProgress})
	if phaseSpan != nil {
		phaseSpan.End()
	}
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", path, err)
	}
	for _, w := range snap.Warnings() {
		logger.Warn("%s", w)
	}
	return snap, nil
}
