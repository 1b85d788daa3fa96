package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/woozymasta/heatshrink"
)

var errEmptyInput = errors.New("nothing to sweep: input is empty")

type sweepResult struct {
	WindowBits    uint8
	LookaheadBits uint8
	Size          int
}

// sweepSizes compresses data with every valid pair up to maxWindow and
// returns the sizes plus the zstd size of the same data.
func sweepSizes(data []byte, maxWindow uint8) ([]sweepResult, int, error) {
	if len(data) == 0 {
		return nil, 0, errEmptyInput
	}
	maxWindow = min(max(maxWindow, heatshrink.MinWindowBits), heatshrink.MaxWindowBits)

	var results []sweepResult
	for w := uint8(heatshrink.MinWindowBits); w <= maxWindow; w++ {
		for l := uint8(heatshrink.MinLookaheadBits); l < w; l++ {
			enc, err := heatshrink.Compress(data, &heatshrink.Config{WindowBits: w, LookaheadBits: l})
			if err != nil {
				return nil, 0, err
			}
			log.Debugf("sweep w=%d l=%d: %d -> %d", w, l, len(data), len(enc))
			results = append(results, sweepResult{WindowBits: w, LookaheadBits: l, Size: len(enc)})
		}
	}

	zenc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, 0, err
	}
	defer zenc.Close()
	baseline := len(zenc.EncodeAll(data, nil))

	return results, baseline, nil
}

func ratio(size, total int) float64 {
	return 100 * float64(size) / float64(total)
}

func writeSweepTable(w io.Writer, results []sweepResult, baseline, total int) error {
	if _, err := fmt.Fprintf(w, "%6s %6s %10s %8s\n", "window", "ahead", "bytes", "ratio"); err != nil {
		return err
	}
	best := -1
	for i, r := range results {
		if best < 0 || r.Size < results[best].Size {
			best = i
		}
		if _, err := fmt.Fprintf(w, "%6d %6d %10d %7.2f%%\n", r.WindowBits, r.LookaheadBits, r.Size, ratio(r.Size, total)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%13s %10d %7.2f%%\n", "zstd", baseline, ratio(baseline, total)); err != nil {
		return err
	}
	if best >= 0 {
		r := results[best]
		_, err := fmt.Fprintf(w, "best: -w %d -l %d (%d bytes)\n", r.WindowBits, r.LookaheadBits, r.Size)
		return err
	}
	return nil
}

// renderSweepChart draws one line per lookahead setting, ratio against window bits.
func renderSweepChart(w io.Writer, results []sweepResult, baseline, total int) error {
	byLookahead := map[uint8]*chart.ContinuousSeries{}
	var order []uint8
	minWindow, maxWindow := float64(heatshrink.MaxWindowBits), float64(heatshrink.MinWindowBits)
	maxRatio := ratio(baseline, total)

	for _, r := range results {
		s, ok := byLookahead[r.LookaheadBits]
		if !ok {
			s = &chart.ContinuousSeries{Name: fmt.Sprintf("lookahead %d", r.LookaheadBits)}
			byLookahead[r.LookaheadBits] = s
			order = append(order, r.LookaheadBits)
		}
		x := float64(r.WindowBits)
		s.XValues = append(s.XValues, x)
		s.YValues = append(s.YValues, ratio(r.Size, total))
		minWindow, maxWindow = min(minWindow, x), max(maxWindow, x)
		maxRatio = max(maxRatio, ratio(r.Size, total))
	}
	if maxWindow <= minWindow {
		maxWindow = minWindow + 1
	}

	var series []chart.Series
	for _, l := range order {
		// A single point cannot be drawn as a line.
		if s := byLookahead[l]; len(s.XValues) > 1 {
			series = append(series, *s)
		}
	}
	series = append(series, chart.ContinuousSeries{
		Name:    "zstd",
		Style:   chart.Style{StrokeDashArray: []float64{5, 5}},
		XValues: []float64{minWindow, maxWindow},
		YValues: []float64{ratio(baseline, total), ratio(baseline, total)},
	})

	graph := chart.Chart{
		Title: "heatshrink size by window and lookahead",
		XAxis: chart.XAxis{Name: "window bits"},
		YAxis: chart.YAxis{
			Name:  "compressed size (% of input)",
			Range: &chart.ContinuousRange{Min: 0, Max: max(maxRatio*1.1, 1)},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.SVG, w)
}

func sweepFromArgs() (func() error, error) {
	subFlags := newSubFlags()
	maxWindowPtr := subFlags.Uint("max-window", heatshrink.MaxWindowBits, "")
	svgPathPtr := subFlags.String("svg", "", "")
	parseSubFlags(subFlags)

	inPath := optionalArg()
	endOfArgs()

	if *maxWindowPtr < heatshrink.MinWindowBits || *maxWindowPtr > heatshrink.MaxWindowBits {
		usageErrorf("max window must be within %d..%d", heatshrink.MinWindowBits, heatshrink.MaxWindowBits)
	}
	maxWindow := uint8(*maxWindowPtr)

	return func() error {
		data, err := readInput(inPath)
		if err != nil {
			return err
		}

		results, baseline, err := sweepSizes(data, maxWindow)
		if err != nil {
			return err
		}
		if err := writeSweepTable(os.Stdout, results, baseline, len(data)); err != nil {
			return err
		}

		if *svgPathPtr == "" {
			return nil
		}
		return writeOutput(*svgPathPtr, func(w io.Writer) error {
			return renderSweepChart(w, results, baseline, len(data))
		})
	}, nil
}
