package composite

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"gymcut/internal/config"
)

// AlphaOptions configures matte clean-up. Each step is skipped when disabled:
// Diameter 0, Sharpen false, Gamma 1, Threshold 0.
type AlphaOptions struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
	Sharpen    bool
	Gamma      float64
	Threshold  int
}

// AlphaOptionsFromConfig reads the composite section.
func AlphaOptionsFromConfig(c config.Composite) AlphaOptions {
	return AlphaOptions{
		Diameter:   c.BilateralDiameter,
		SigmaColor: c.BilateralSigmaColor,
		SigmaSpace: c.BilateralSigmaSpace,
		Sharpen:    c.Sharpen,
		Gamma:      c.Gamma,
		Threshold:  c.AlphaThreshold,
	}
}

// AlphaProcessor applies the clean-up chain to single-channel mattes. It owns
// scratch buffers and precomputed tables, so one processor serves one stream.
type AlphaProcessor struct {
	opts    AlphaOptions
	width   int
	height  int
	scratch []byte
	gamma   [256]byte
	// bilateral kernel
	radius      int
	offsets     [][2]int
	spaceWeight []float32
	colorWeight [256]float32
}

// NewAlphaProcessor prepares a processor for width x height mattes.
func NewAlphaProcessor(width, height int, opts AlphaOptions) *AlphaProcessor {
	p := &AlphaProcessor{
		opts:    opts,
		width:   width,
		height:  height,
		scratch: make([]byte, width*height),
	}
	for i := range p.gamma {
		p.gamma[i] = byte(math.Pow(float64(i)/255, opts.Gamma) * 255)
	}
	if opts.Diameter > 0 {
		p.initBilateral()
	}
	return p
}

// Process rewrites alpha in place: bilateral filter, 3x3 sharpen, gamma,
// then hard threshold.
func (p *AlphaProcessor) Process(ctx context.Context, alpha []byte) error {
	if p.opts.Diameter > 0 {
		if err := p.bilateral(ctx, alpha); err != nil {
			return err
		}
	}
	if p.opts.Sharpen {
		p.sharpen(alpha)
	}
	if p.opts.Gamma > 0 && p.opts.Gamma != 1 {
		for i, v := range alpha {
			alpha[i] = p.gamma[v]
		}
	}
	if p.opts.Threshold > 0 {
		threshold := byte(p.opts.Threshold)
		for i, v := range alpha {
			if v > threshold {
				alpha[i] = 255
			} else {
				alpha[i] = 0
			}
		}
	}
	return nil
}

// initBilateral precomputes a circular window of the configured diameter and
// Gaussian weights for spatial distance and intensity difference.
func (p *AlphaProcessor) initBilateral() {
	p.radius = p.opts.Diameter / 2
	spaceCoeff := -0.5 / (p.opts.SigmaSpace * p.opts.SigmaSpace)
	colorCoeff := -0.5 / (p.opts.SigmaColor * p.opts.SigmaColor)
	for dy := -p.radius; dy <= p.radius; dy++ {
		for dx := -p.radius; dx <= p.radius; dx++ {
			dist := math.Sqrt(float64(dx*dx + dy*dy))
			if dist > float64(p.radius) {
				continue
			}
			p.offsets = append(p.offsets, [2]int{dx, dy})
			p.spaceWeight = append(p.spaceWeight, float32(math.Exp(dist*dist*spaceCoeff)))
		}
	}
	for i := range p.colorWeight {
		p.colorWeight[i] = float32(math.Exp(float64(i*i) * colorCoeff))
	}
}

// bilateral smooths alpha while preserving edges. Rows are split across
// goroutines; borders mirror without repeating the edge pixel.
func (p *AlphaProcessor) bilateral(ctx context.Context, alpha []byte) error {
	copy(p.scratch, alpha)
	src := p.scratch
	w, h := p.width, p.height

	workers := runtime.GOMAXPROCS(0)
	rowsPer := (h + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for y0 := 0; y0 < h; y0 += rowsPer {
		y1 := min(y0+rowsPer, h)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				for x := 0; x < w; x++ {
					center := src[y*w+x]
					var sum, norm float32
					for k, off := range p.offsets {
						sx := reflect101(x+off[0], w)
						sy := reflect101(y+off[1], h)
						v := src[sy*w+sx]
						diff := int(v) - int(center)
						if diff < 0 {
							diff = -diff
						}
						weight := p.spaceWeight[k] * p.colorWeight[diff]
						sum += weight * float32(v)
						norm += weight
					}
					alpha[y*w+x] = byte(math.Round(float64(sum / norm)))
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// sharpen applies [[0,-1,0],[-1,5,-1],[0,-1,0]] with results clamped to 0..255.
func (p *AlphaProcessor) sharpen(alpha []byte) {
	copy(p.scratch, alpha)
	src := p.scratch
	w, h := p.width, p.height
	for y := 0; y < h; y++ {
		up := reflect101(y-1, h) * w
		down := reflect101(y+1, h) * w
		row := y * w
		for x := 0; x < w; x++ {
			left := reflect101(x-1, w)
			right := reflect101(x+1, w)
			v := 5*int(src[row+x]) - int(src[up+x]) - int(src[down+x]) - int(src[row+left]) - int(src[row+right])
			alpha[row+x] = clampByte(v)
		}
	}
}

// reflect101 mirrors an out-of-range index: -1 -> 1, n -> n-2.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func clampByte(v int) byte {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return byte(v)
	}
}
