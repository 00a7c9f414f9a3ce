// Command replay feeds a scripted GPS trace through a live tracker and prints
// the finished session and its derived workout record. Useful for checking
// what a recorded trace turns into without a real positioning source.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/okian/stride/internal/adapters/provider"
	"github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/internal/tracker"
	"github.com/okian/stride/pkg/logger"
)

func main() {
	tracePath := flag.String("trace", "", "path to a JSON array of fixes")
	kind := flag.String("kind", "run", "activity kind for the session")
	author := flag.String("author", "local", "author attributed to the derived record")
	interval := flag.Duration("interval", 0, "delay between replayed fixes (0 = replay immediately)")
	tick := flag.Duration("tick", time.Second, "tracker tick interval")
	flag.Parse()

	if *tracePath == "" {
		os.Stderr.WriteString("usage: replay -trace <file.json> [-kind run] [-interval 1s]\n")
		os.Exit(2)
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("replay")

	trace, err := loadTrace(*tracePath)
	if err != nil {
		os.Stderr.WriteString("failed to load trace: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx := context.Background()

	tr := tracker.New(
		tracker.WithProvider(provider.NewScripted(trace, provider.WithInterval(*interval))),
		tracker.WithTickInterval(*tick),
		tracker.WithLogger(log),
	)

	mode, err := tr.Start(ctx, *kind)
	if err != nil {
		os.Stderr.WriteString("failed to start tracker: " + err.Error() + "\n")
		os.Exit(1)
	}
	log.Info(ctx, "replay started",
		logger.String("mode", mode.String()),
		logger.Int("fixes", len(trace)),
	)

	// Let the whole trace drain plus one extra interval of slack.
	wait := time.Duration(len(trace)+1)*(*interval) + 100*time.Millisecond
	time.Sleep(wait)

	session := tr.Stop(ctx)
	if session == nil {
		os.Stderr.WriteString("no session produced\n")
		os.Exit(1)
	}

	record := tracker.ToRecord(*session, *author)

	out := map[string]any{
		"session": session,
		"record":  record,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		os.Stderr.WriteString("failed to encode output: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// loadTrace reads a JSON array of fixes from path.
func loadTrace(path string) ([]model.GeoPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var trace []model.GeoPoint
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, err
	}
	return trace, nil
}
