package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/nmxmxh/atomview/internal/scene"
	"github.com/nmxmxh/atomview/internal/snapshot"
	"github.com/nmxmxh/atomview/internal/viewer"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

// benchConfig controls one benchmark run.
type benchConfig struct {
	Counts    []int
	Frames    int
	Delta     float64
	ChunkSize float32
	Options   scene.Options
}

// result is one row of the report.
type result struct {
	Requested   int
	Stored      int
	Aggression  float32
	Visible     int
	Tiers       [scene.TierCount]int
	Evaluations uint64
	Hits        uint64
	Chunks      int
	Payload     int
}

// parseCounts parses a comma separated list of dataset sizes.
func parseCounts(s string) ([]int, error) {
	var counts []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid count %q", f)
		}
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no counts given")
	}
	return counts, nil
}

// orbit places the observer on a circle around the dataset. The camera holds
// still for every other frame so the cache gets exercised.
func orbit(b scene.Bounds, frame int) scene.Observer {
	center := b.Min.Add(b.Max).Mul(0.5)
	radius := b.Size().Len()*0.75 + 10
	angle := float64(frame/2) * 0.05
	eye := center.Add(mgl32.Vec3{
		radius * float32(math.Sin(angle)),
		radius * 0.25,
		radius * float32(math.Cos(angle)),
	})
	return scene.Observer{
		Position: eye,
		Target:   center,
		FOV:      math.Pi / 3,
		Aspect:   16.0 / 9.0,
		Near:     0.1,
		Far:      radius * 4,
	}
}

// run loads each dataset into its own viewer, drives it for cfg.Frames
// frames and reports the last frame. Animation is only advanced on frames
// where the camera also moves.
func run(ctx context.Context, reg *viewer.Registry, cfg benchConfig, log *zap.Logger) ([]result, error) {
	results := make([]result, 0, len(cfg.Counts))
	for _, n := range cfg.Counts {
		opts := cfg.Options
		opts.Name = fmt.Sprintf("bench-%d", n)
		id, v, err := reg.Create(opts)
		if err != nil {
			return nil, err
		}
		v.Load(n)

		var bounds scene.Bounds
		v.Do(func(s *scene.Scene) { bounds = s.Bounds() })

		var set scene.VisibleSet
		for f := 0; f < cfg.Frames; f++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			dt := 0.0
			if f%2 == 0 {
				dt = cfg.Delta
			}
			set = v.Frame(ctx, dt, orbit(bounds, f))
		}

		chunks := v.Summarize(ctx, cfg.ChunkSize)
		payload, err := snapshot.MarshalFrame(snapshot.NewFrame(set, chunks))
		if err != nil {
			return nil, fmt.Errorf("encode frame for %d atoms: %w", n, err)
		}

		r := result{
			Requested:  n,
			Aggression: set.Aggression,
			Visible:    set.Len(),
			Tiers:      set.Tiers,
			Chunks:     len(chunks),
			Payload:    len(payload),
		}
		v.Do(func(s *scene.Scene) {
			st := s.Stats()
			r.Stored = s.Len()
			r.Evaluations = st.Evaluations
			r.Hits = st.Hits
		})
		results = append(results, r)

		log.Info("dataset benchmarked",
			zap.Int("requested", n),
			zap.Int("visible", r.Visible),
			zap.Uint64("evaluations", r.Evaluations),
			zap.Int("payload_bytes", r.Payload),
		)
		if err := reg.Remove(id); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// render prints the report as a table.
func render(w io.Writer, results []result) error {
	color.New(color.FgHiCyan, color.Bold).Fprintln(w, "atomview LOD benchmark")

	table := tablewriter.NewWriter(w)
	if err := table.Append([]string{
		"Requested", "Stored", "Aggression", "Visible",
		"Point", "Low", "Medium", "High",
		"Evals", "Hits", "Chunks", "Payload",
	}); err != nil {
		return fmt.Errorf("failed to append header row: %w", err)
	}
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Requested),
			strconv.Itoa(r.Stored),
			strconv.FormatFloat(float64(r.Aggression), 'g', -1, 32),
			strconv.Itoa(r.Visible),
			strconv.Itoa(r.Tiers[scene.TierPoint]),
			strconv.Itoa(r.Tiers[scene.TierLow]),
			strconv.Itoa(r.Tiers[scene.TierMedium]),
			strconv.Itoa(r.Tiers[scene.TierHigh]),
			strconv.FormatUint(r.Evaluations, 10),
			strconv.FormatUint(r.Hits, 10),
			strconv.Itoa(r.Chunks),
			strconv.Itoa(r.Payload),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
