package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/yubimoji/internal/classifier"
	"github.com/ayusman/yubimoji/internal/detector"
	"github.com/ayusman/yubimoji/internal/feature"
	"github.com/ayusman/yubimoji/internal/sign"
)

// landmarkFile is the on-disk landmark format: either a flat list of points
// or {"hands": [[21 points], ...]}.
type landmarkFile struct {
	Hands [][]detector.Point3D `json:"hands"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "classify FILE",
		Short: "Classify one recorded landmark set (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			points, err := readLandmarks(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			client, err := classifier.New(cfg.Classifier.BaseURL, classifier.WithTimeout(cfg.Classifier.Timeout()))
			if err != nil {
				return err
			}
			probs, err := client.Predict(cmd.Context(), feature.Normalize(points))
			if err != nil {
				return err
			}

			decider := sign.NewDecider(cfg.Classifier.Threshold)
			best, ok, err := decider.Decide(probs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ok {
				fmt.Fprintf(out, "Sign: %s (%.1f%%)\n", best.Sign, best.Probability*100)
			} else {
				fmt.Fprintf(out, "No sign above threshold %.2f (best %.1f%%)\n", decider.Threshold(), best.Probability*100)
			}
			if top > 0 {
				tbl := newTable("Sign", "Probability").alignRight(1)
				for _, r := range topCandidates(probs, top) {
					tbl.row(r...)
				}
				tbl.render(out)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 5, "Number of candidates to list (0 to hide)")
	return cmd
}

func readLandmarks(stdin io.Reader, path string) ([]detector.Point3D, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read landmarks: %w", err)
	}
	return parseLandmarks(data)
}

func parseLandmarks(data []byte) ([]detector.Point3D, error) {
	var points []detector.Point3D
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		if err := json.Unmarshal(data, &points); err != nil {
			return nil, fmt.Errorf("parse landmarks: %w", err)
		}
	} else {
		var file landmarkFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse landmarks: %w", err)
		}
		for _, hand := range file.Hands {
			points = append(points, hand...)
		}
	}

	if len(points) == 0 || len(points)%detector.NumLandmarks != 0 {
		return nil, fmt.Errorf("parse landmarks: expected a multiple of %d points, got %d", detector.NumLandmarks, len(points))
	}
	return points, nil
}

func topCandidates(probs []float64, n int) [][]string {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case probs[a] > probs[b]:
			return -1
		case probs[a] < probs[b]:
			return 1
		}
		return 0
	})

	rows := make([][]string, 0, n)
	for _, i := range idx[:min(n, len(idx))] {
		rows = append(rows, []string{sign.Alphabet[i], fmt.Sprintf("%.1f%%", probs[i]*100)})
	}
	return rows
}
