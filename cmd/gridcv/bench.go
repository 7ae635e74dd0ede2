package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/gridcv/gridcv/backend/cpu"
	"github.com/gridcv/gridcv/backend/webgpu"
	"github.com/gridcv/gridcv/postprocess"
	"github.com/gridcv/gridcv/tensor"
)

func benchCmd() *cli.Command {
	var (
		backendName string
		classes     int64
		gridSize    int64
		groupSize   int64
		strideF     float64
		width       int64
		height      int64
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Decode a random detection grid and verify against the sequential reference",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "backend", Value: "cpu", Usage: "backend to benchmark (cpu|webgpu)", Destination: &backendName},
			&cli.Int64Flag{Name: "classes", Value: 80, Usage: "number of detector classes", Destination: &classes},
			&cli.Int64Flag{Name: "grid", Value: 20, Usage: "spatial grid size (HxW)", Destination: &gridSize},
			&cli.Int64Flag{Name: "group-size", Value: 256, Usage: "workers per launch group", Destination: &groupSize},
			&cli.FloatFlag{Name: "stride", Value: 32, Usage: "detection stride in pixels", Destination: &strideF},
			&cli.Int64Flag{Name: "width", Value: 640, Usage: "target image width", Destination: &width},
			&cli.Int64Flag{Name: "height", Value: 640, Usage: "target image height", Destination: &height},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			backend, cleanup, err := openBackend(backendName)
			if err != nil {
				return err
			}
			defer cleanup()

			c, h, w := int(classes), int(gridSize), int(gridSize)

			clsData := randomSlice(c * h * w)
			regData := randomSlice(4 * h * w)

			decoder, err := postprocess.DefaultConfig().
				WithShape(int(width), int(height)).
				WithGroupSize(int(groupSize)).
				Build()
			if err != nil {
				return err
			}

			result, elapsed, err := runDecode(decoder, backend, clsData, regData, c, h, w, float32(strideF))
			if err != nil {
				return err
			}

			// Reference run: sequential CPU, group size 1.
			refDecoder, err := postprocess.DefaultConfig().
				WithShape(int(width), int(height)).
				Build()
			if err != nil {
				return err
			}
			reference, refElapsed, err := runDecode(refDecoder, cpu.NewSequential(), clsData, regData, c, h, w, float32(strideF))
			if err != nil {
				return err
			}

			if err := compare(result, reference); err != nil {
				return fmt.Errorf("verification against sequential reference failed: %w", err)
			}

			fmt.Printf("backend:    %s\n", backend.Name())
			fmt.Printf("grid:       [1, %d, %d, %d], group size %d\n", c, h, w, groupSize)
			fmt.Printf("decode:     %v\n", elapsed)
			fmt.Printf("reference:  %v (sequential CPU)\n", refElapsed)
			fmt.Println("verified:   outputs match within 1e-5")
			return nil
		},
	}
}

func openBackend(name string) (tensor.Backend, func(), error) {
	switch name {
	case "cpu":
		return cpu.New(), func() {}, nil
	case "webgpu":
		gpu, err := webgpu.New()
		if err != nil {
			return nil, nil, err
		}
		return gpu, gpu.Release, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want cpu or webgpu)", name)
	}
}

type decoded struct {
	score []float32
	index []int32
	bbox  []float32
}

func runDecode(d *postprocess.Decoder, b tensor.Backend, clsData, regData []float32, c, h, w int, stride float32) (*decoded, time.Duration, error) {
	cls, err := tensor.FromSlice(clsData, tensor.Shape{1, c, h, w}, b.Device())
	if err != nil {
		return nil, 0, err
	}
	reg, err := tensor.FromSlice(regData, tensor.Shape{1, 4, h, w}, b.Device())
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	result, err := postprocess.Execute[float32, int32](d, b, cls, reg, stride)
	if err != nil {
		return nil, 0, err
	}
	elapsed := time.Since(start)

	score, err := result.Score.IntoSlice()
	if err != nil {
		return nil, 0, err
	}
	index, err := result.Index.IntoSlice()
	if err != nil {
		return nil, 0, err
	}
	bbox, err := result.BBox.IntoSlice()
	if err != nil {
		return nil, 0, err
	}

	return &decoded{score: score, index: index, bbox: bbox}, elapsed, nil
}

func compare(got, want *decoded) error {
	const tolerance = 1e-5
	for i := range want.score {
		if math.Abs(float64(got.score[i]-want.score[i])) > tolerance {
			return fmt.Errorf("score[%d]: got %v, want %v", i, got.score[i], want.score[i])
		}
	}
	for i := range want.index {
		if got.index[i] != want.index[i] {
			return fmt.Errorf("index[%d]: got %d, want %d", i, got.index[i], want.index[i])
		}
	}
	for i := range want.bbox {
		if math.Abs(float64(got.bbox[i]-want.bbox[i])) > tolerance {
			return fmt.Errorf("bbox[%d]: got %v, want %v", i, got.bbox[i], want.bbox[i])
		}
	}
	return nil
}

// randomSlice draws values from a coarse grid in [0, 1), so argmax winners
// stay separated by far more than any cross-backend float rounding.
func randomSlice(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(rand.Intn(1000)) / 1000
	}
	return out
}
