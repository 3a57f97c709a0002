// Command formscan replays a recorded landmark sequence through an
// exercise evaluator and reports per-frame form results.
//
// The recording is a JSON array of frames, each an array of landmark
// objects in MediaPipe index order; an empty frame marks a missed
// detection. The same format is accepted frame by frame by the
// session API.
//
// Usage:
//
//	formscan -exercise squat -in recording.json [-out report.json]
//
// The full report is written to stdout as JSON, or to -out with a
// short human summary on stdout instead. Progress goes to stderr.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/ayusman/formcoach/internal/exercise"
	"github.com/ayusman/formcoach/internal/pose"
	"github.com/ayusman/formcoach/internal/session"
	"github.com/cheggaaa/pb/v3"
)

// frameResult pairs a frame index with its processing outcome.
type frameResult struct {
	Frame int `json:"frame"`
	session.Result
}

// summary aggregates a scan. Issues counts how often each distinct
// issue fired across the recording.
type summary struct {
	Exercise  string         `json:"exercise"`
	Frames    int            `json:"frames"`
	Skipped   int            `json:"skipped"`
	Incorrect int            `json:"incorrect"`
	Issues    map[string]int `json:"issues,omitempty"`
}

// report is the full scan output.
type report struct {
	Summary summary       `json:"summary"`
	Results []frameResult `json:"results"`
}

func main() {
	exerciseName := flag.String("exercise", "squat", "exercise to evaluate against")
	inPath := flag.String("in", "", "recorded landmark sequence (JSON)")
	outPath := flag.String("out", "", "write the JSON report here instead of stdout")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "formscan: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	ex, err := exercise.Get(*exerciseName)
	if err != nil {
		log.Fatalf("formscan: %v", err)
	}

	frames, err := loadRecording(*inPath)
	if err != nil {
		log.Fatalf("formscan: %v", err)
	}

	rep, err := scan(ex, frames)
	if err != nil {
		log.Fatalf("formscan: %v", err)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatalf("formscan: encode report: %v", err)
	}
	data = append(data, '\n')

	if *outPath == "" {
		os.Stdout.Write(data)
		return
	}

	if err := os.WriteFile(*outPath, data, 0644); err != nil {
		log.Fatalf("formscan: %v", err)
	}
	printSummary(rep.Summary)
}

// loadRecording reads a recorded landmark sequence from disk.
func loadRecording(path string) ([]pose.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var frames []pose.Frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%s: no frames", path)
	}

	return frames, nil
}

// scan replays the recording through a fresh tracker in frame order,
// collecting per-frame results and issue counts.
func scan(ex exercise.Exercise, frames []pose.Frame) (*report, error) {
	tracker := session.NewTracker(ex)

	rep := &report{
		Summary: summary{
			Exercise: ex.Name(),
			Frames:   len(frames),
			Issues:   make(map[string]int),
		},
		Results: make([]frameResult, 0, len(frames)),
	}

	bar := pb.StartNew(len(frames))
	defer bar.Finish()

	for i, frame := range frames {
		result, err := tracker.Process(frame)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		bar.Increment()

		switch {
		case result.Skipped:
			rep.Summary.Skipped++
		case !result.Evaluation.Correct:
			rep.Summary.Incorrect++
			for _, issue := range result.Evaluation.Issues {
				rep.Summary.Issues[issue]++
			}
		}

		rep.Results = append(rep.Results, frameResult{Frame: i, Result: result})
	}

	return rep, nil
}

// printSummary writes the human-readable scan totals to stdout.
func printSummary(s summary) {
	fmt.Printf("Exercise:  %s\n", s.Exercise)
	fmt.Printf("Frames:    %d (%d skipped)\n", s.Frames, s.Skipped)
	fmt.Printf("Incorrect: %d\n", s.Incorrect)

	if len(s.Issues) == 0 {
		return
	}

	names := make([]string, 0, len(s.Issues))
	for name := range s.Issues {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Issues:")
	for _, name := range names {
		fmt.Printf("  %3dx %s\n", s.Issues[name], name)
	}
}
