// Command dering runs the deringing filter over .drf frame dumps.
//
// Usage:
//
//	dering apply [options] <input.drf>   Filter a frame dump (use "-" for stdin)
//	dering info <input.drf>              Display frame dump metadata
//	dering synth [options]               Generate a synthetic frame dump
//	dering png [options] <input.drf>     Export one plane as a grayscale PNG
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepteams/dering"
	"github.com/deepteams/dering/internal/container"
	"github.com/deepteams/dering/internal/dsp"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "dering: %v\n", err)
		os.Exit(1)
	}
}

// errUsage is returned after the usage text has been printed.
var errUsage = errors.New("invalid usage")

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errUsage
	}

	switch args[0] {
	case "apply":
		return runApply(args[1:], stdout, stderr)
	case "info":
		return runInfo(args[1:], stdout)
	case "synth":
		return runSynth(args[1:], stdout, stderr)
	case "png":
		return runPNG(args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		printUsage(stderr)
		return nil
	default:
		fmt.Fprintf(stderr, "dering: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage:
  dering apply [options] <input.drf>   Filter a frame dump
  dering info <input.drf>              Display frame dump metadata
  dering synth [options]               Generate a synthetic frame dump
  dering png [options] <input.drf>     Export one plane as a grayscale PNG

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "dering <command> -h" for command-specific options.
`)
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned (caller should not close).
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// defaultOutput derives an output path from the input path.
func defaultOutput(inputPath, suffix string) string {
	if inputPath == "-" {
		return "output" + suffix
	}
	return strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)) + suffix
}

func readDump(inputPath string) (*container.Dump, error) {
	in, err := openInput(inputPath)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return container.Read(in)
}

// --- apply ---

func runApply(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(stderr)
	level := fs.Int("level", -1, "frame filter level 0-63 (-1=use the level stored in the file)")
	workers := fs.Int("workers", 1, "goroutines filtering superblock rows")
	maxScratch := fs.Int("max-scratch", 0, "scratch storage limit in bytes (0=unlimited)")
	compress := fs.Bool("z", false, "zstd-compress the output")
	zlevel := fs.Int("zlevel", 0, "zstd level 1-22 (0=default)")
	verbose := fs.Bool("v", false, "print filter statistics")
	output := fs.String("o", "", `output path (default: <input>.dr.drf, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("apply: missing input file\nUsage: dering apply [options] <input.drf>")
	}
	inputPath := fs.Arg(0)

	d, err := readDump(inputPath)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	if *level >= 0 {
		d.Level = *level
	}

	opts := dering.DefaultOptions()
	opts.Workers = *workers
	opts.MaxScratchBytes = *maxScratch

	var orig *dering.Frame
	if *verbose {
		orig = d.Frame.Clone()
	}
	start := time.Now()
	stats, err := dering.Apply(d.Frame, d.ModeInfo, d.Level, opts)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	elapsed := time.Since(start)

	data, err := container.Encode(d, &container.WriteOptions{Compress: *compress, Level: *zlevel})
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	outputPath := *output
	if outputPath == "" {
		outputPath = defaultOutput(inputPath, ".dr.drf")
	}
	if err := writeOutput(outputPath, stdout, data); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	if *verbose {
		fmt.Fprintf(stderr, "Level:        %d\n", d.Level)
		fmt.Fprintf(stderr, "Planes:       %d\n", stats.Planes)
		fmt.Fprintf(stderr, "Superblocks:  %d\n", stats.Superblocks)
		fmt.Fprintf(stderr, "Filtered:     %d\n", stats.Filtered)
		fmt.Fprintf(stderr, "Level zero:   %d\n", stats.LevelZero)
		fmt.Fprintf(stderr, "All skip:     %d\n", stats.AllSkip)
		fmt.Fprintf(stderr, "Plane passes: %d\n", stats.PlanePasses)
		fmt.Fprintf(stderr, "Time:         %v\n", elapsed)
		for i := range d.Frame.Planes {
			psnr, ssim := planeQuality(orig, d.Frame, d.ModeInfo, i)
			fmt.Fprintf(stderr, "Plane %d:      PSNR %.2f dB, SSIM %.4f vs input\n", i, psnr, ssim)
		}
	}
	if outputPath != "-" {
		fmt.Fprintf(stderr, "Filtered %s → %s\n", inputPath, outputPath)
	}
	return nil
}

// planeQuality compares plane pli of the filtered frame against the input.
func planeQuality(orig, filtered *dering.Frame, mi *dering.ModeInfoGrid, pli int) (psnr, ssim float64) {
	a, b := &orig.Planes[pli], &filtered.Planes[pli]
	w := (mi.Cols * dering.MIBlockSize) >> uint(a.SubsamplingX)
	h := (mi.Rows * dering.MIBlockSize) >> uint(a.SubsamplingY)
	bd := orig.BitDepth
	if orig.HighBitDepth {
		sse := dsp.SSE(a.Pix16, a.Stride, b.Pix16, b.Stride, w, h)
		return dsp.PSNRFromSSE(sse, w*h, bd), dsp.SSIM(a.Pix16, a.Stride, b.Pix16, b.Stride, w, h, bd)
	}
	sse := dsp.SSE(a.Pix, a.Stride, b.Pix, b.Stride, w, h)
	return dsp.PSNRFromSSE(sse, w*h, bd), dsp.SSIM(a.Pix, a.Stride, b.Pix, b.Stride, w, h, bd)
}

// --- info ---

func runInfo(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: dering info <input.drf>")
	}
	inputPath := args[0]

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("info: reading input: %w", err)
	}

	p, err := container.NewParser(data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	d, err := p.Dump()
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	h := p.Header()

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}
	w, ht := h.PlaneExtent(0)
	fmt.Fprintf(stdout, "File:        %s\n", name)
	fmt.Fprintf(stdout, "Compressed:  %v\n", p.Compressed())
	fmt.Fprintf(stdout, "Dimensions:  %d x %d (%d x %d units)\n", w, ht, h.MICols, h.MIRows)
	fmt.Fprintf(stdout, "Bit depth:   %d (16-bit storage %v)\n", h.BitDepth, h.HighBitDepth)
	fmt.Fprintf(stdout, "Planes:      %d\n", h.Planes)
	if h.Planes > 1 {
		fmt.Fprintf(stdout, "Chroma:      %s\n", chromaName(h.Subsampling[1]))
	}
	fmt.Fprintf(stdout, "Level:       %d\n", h.Level)

	mi := d.ModeInfo
	skip := 0
	var gains [dering.RefinementLevels]int
	for r := 0; r < mi.Rows; r++ {
		for c := 0; c < mi.Cols; c++ {
			u := mi.At(r, c)
			if u.Skip {
				skip++
			}
			gains[u.DeringGain]++
		}
	}
	nsb := 0
	allSkip := 0
	for r := 0; r < mi.Rows; r += dering.MaxMIBSize {
		for c := 0; c < mi.Cols; c += dering.MaxMIBSize {
			nsb++
			if dering.SuperblockAllSkip(mi, r, c) {
				allSkip++
			}
		}
	}
	fmt.Fprintf(stdout, "Skip units:  %d / %d\n", skip, mi.Rows*mi.Cols)
	fmt.Fprintf(stdout, "Gains:       %v\n", gains)
	fmt.Fprintf(stdout, "Superblocks: %d (%d all skip)\n", nsb, allSkip)
	fmt.Fprintf(stdout, "RIFF size:   %d bytes\n", p.RawSize())
	if inputPath != "-" {
		fi, err := os.Stat(inputPath)
		if err == nil {
			fmt.Fprintf(stdout, "File size:   %d bytes\n", fi.Size())
		}
	}
	return nil
}

func chromaName(s [2]int) string {
	for _, c := range []dering.Subsampling{
		dering.Subsampling420, dering.Subsampling444, dering.Subsampling422, dering.Subsampling440,
	} {
		x, y := c.Factors()
		if x == s[0] && y == s[1] {
			return c.String()
		}
	}
	return "unknown"
}

// --- synth ---

func parseSubsampling(s string) (dering.Subsampling, error) {
	switch strings.ToLower(s) {
	case "420", "4:2:0":
		return dering.Subsampling420, nil
	case "444", "4:4:4":
		return dering.Subsampling444, nil
	case "422", "4:2:2":
		return dering.Subsampling422, nil
	case "440", "4:4:0":
		return dering.Subsampling440, nil
	case "mono", "400", "4:0:0":
		return dering.SubsamplingMono, nil
	default:
		return 0, fmt.Errorf("unknown subsampling %q (want 420, 444, 422, 440, or mono)", s)
	}
}

func runSynth(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("synth", flag.ContinueOnError)
	fs.SetOutput(stderr)
	width := fs.Int("w", 352, "luma width in samples (rounded up to 8)")
	height := fs.Int("h", 288, "luma height in samples (rounded up to 8)")
	bitDepth := fs.Int("bitdepth", 8, "bit depth 8-12")
	sub := fs.String("sub", "420", "chroma subsampling: 420/444/422/440/mono")
	level := fs.Int("level", 32, "frame filter level 0-63")
	skipProb := fs.Float64("skip", 0.3, "fraction of skip-coded units 0-1")
	seed := fs.Uint64("seed", 1, "random seed")
	compress := fs.Bool("z", false, "zstd-compress the output")
	output := fs.String("o", "synth.drf", `output path ("-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *width <= 0 || *height <= 0 {
		return fmt.Errorf("synth: invalid size %dx%d", *width, *height)
	}
	if *bitDepth < 8 || *bitDepth > 12 {
		return fmt.Errorf("synth: invalid bit depth %d", *bitDepth)
	}
	if *skipProb < 0 || *skipProb > 1 {
		return fmt.Errorf("synth: invalid skip fraction %v", *skipProb)
	}
	s, err := parseSubsampling(*sub)
	if err != nil {
		return fmt.Errorf("synth: %w", err)
	}

	miCols := (*width + dering.MIBlockSize - 1) / dering.MIBlockSize
	miRows := (*height + dering.MIBlockSize - 1) / dering.MIBlockSize
	d := synthesize(miRows, miCols, *bitDepth, s, *skipProb, *seed)
	d.Level = *level

	data, err := container.Encode(d, &container.WriteOptions{Compress: *compress})
	if err != nil {
		return fmt.Errorf("synth: %w", err)
	}
	if err := writeOutput(*output, stdout, data); err != nil {
		return fmt.Errorf("synth: %w", err)
	}
	if *output != "-" {
		fmt.Fprintf(stderr, "Wrote %s (%dx%d units, %d-bit %s)\n", *output, miCols, miRows, *bitDepth, s)
	}
	return nil
}

// synthesize builds a frame of checkerboard edges with ringing ripples next to
// each edge and mild noise, plus a random mode-info grid.
func synthesize(miRows, miCols, bitDepth int, s dering.Subsampling, skipProb float64, seed uint64) *container.Dump {
	rng := rand.New(rand.NewPCG(seed, 0xd3))
	f := dering.NewFrame(miRows, miCols, bitDepth, s)
	shift := uint(bitDepth - 8)

	for i := range f.Planes {
		p := &f.Planes[i]
		ht := (miRows * dering.MIBlockSize) >> uint(p.SubsamplingY)
		cell := 24 >> uint(p.SubsamplingX)
		lo, hi := 48+16*i, 200-24*i
		for y := 0; y < ht; y++ {
			for x := 0; x < p.Stride; x++ {
				v := lo
				if (x/cell+y/cell)%2 == 0 {
					v = hi
				}
				// Ripples decay with distance from the vertical edge.
				if dx := x % cell; dx < 4 {
					amp := 8 - 2*dx
					if dx%2 == 1 {
						amp = -amp
					}
					v += amp
				}
				v += rng.IntN(5) - 2
				v = min(max(v, 0), 255) << shift
				if f.HighBitDepth {
					p.Pix16[y*p.Stride+x] = uint16(v)
				} else {
					p.Pix[y*p.Stride+x] = uint8(v)
				}
			}
		}
	}

	mi := dering.NewModeInfoGrid(miRows, miCols)
	for i := range mi.Units {
		mi.Units[i] = dering.ModeInfo{
			Skip:       rng.Float64() < skipProb,
			DeringGain: uint8(rng.IntN(dering.RefinementLevels)),
		}
	}
	return &container.Dump{Frame: f, ModeInfo: mi}
}

// --- png ---

func runPNG(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("png", flag.ContinueOnError)
	fs.SetOutput(stderr)
	plane := fs.Int("plane", 0, "plane index 0-2")
	output := fs.String("o", "", `output path (default: <input>.png, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("png: missing input file\nUsage: dering png [options] <input.drf>")
	}
	inputPath := fs.Arg(0)

	d, err := readDump(inputPath)
	if err != nil {
		return fmt.Errorf("png: %w", err)
	}
	if *plane < 0 || *plane >= len(d.Frame.Planes) {
		return fmt.Errorf("png: plane %d out of range (file has %d)", *plane, len(d.Frame.Planes))
	}
	img := planeImage(d, *plane)

	outputPath := *output
	if outputPath == "" {
		outputPath = defaultOutput(inputPath, ".png")
	}
	if outputPath == "-" {
		return png.Encode(stdout, img)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return err
	}
	fmt.Fprintf(stderr, "Exported plane %d of %s → %s\n", *plane, inputPath, outputPath)
	return nil
}

// planeImage converts one plane to an 8-bit or 16-bit grayscale image.
// High bit depth samples are scaled to the full 16-bit range.
func planeImage(d *container.Dump, pli int) image.Image {
	f := d.Frame
	p := &f.Planes[pli]
	w := (d.ModeInfo.Cols * dering.MIBlockSize) >> uint(p.SubsamplingX)
	ht := (d.ModeInfo.Rows * dering.MIBlockSize) >> uint(p.SubsamplingY)

	if !f.HighBitDepth {
		img := image.NewGray(image.Rect(0, 0, w, ht))
		for y := 0; y < ht; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+w], p.Pix[y*p.Stride:y*p.Stride+w])
		}
		return img
	}
	img := image.NewGray16(image.Rect(0, 0, w, ht))
	shift := uint(16 - f.BitDepth)
	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			v := p.Pix16[y*p.Stride+x] << shift
			img.Pix[y*img.Stride+2*x] = uint8(v >> 8)
			img.Pix[y*img.Stride+2*x+1] = uint8(v)
		}
	}
	return img
}
