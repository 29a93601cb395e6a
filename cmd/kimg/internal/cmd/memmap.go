package cmd

import (
	"fmt"
	"image/color"
	"os"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/spf13/cobra"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/lightap/Microkernel-OS-sub001/cmd/kimg/internal/wire"
)

var memmapOut string

var memmapCmd = &cobra.Command{
	Use:   "memmap <snapshot-file>",
	Short: "Render a debug_dump frame-allocator snapshot as a PNG bitmap strip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderMemmap(args[0], memmapOut)
	},
}

func init() {
	memmapCmd.Flags().StringVarP(&memmapOut, "output", "o", "memmap.png", "output PNG path")
}

const (
	cellSize   = 4
	cellsPerRow = 256
	legendH    = 48
)

// renderMemmap draws one square per frame, colored by whether debug_dump's
// UsedFrames/TotalFrames counters consider it reserved, followed by a text
// legend. It only has the aggregate used/total counts to work with (the
// core does not expose a per-frame bitmap over the debug_dump syscall), so
// the strip marks the first UsedFrames cells used and the remainder free
// — a coarse but honest rendering of what the snapshot actually reports.
func renderMemmap(snapshotPath, outPath string) error {
	raw, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", snapshotPath, err)
	}
	snap, ok := wire.Decode(raw)
	if !ok {
		return fmt.Errorf("%s: truncated snapshot", snapshotPath)
	}

	rows := (int(snap.TotalFrames) + cellsPerRow - 1) / cellsPerRow
	if rows == 0 {
		rows = 1
	}
	width := cellsPerRow * cellSize
	height := rows*cellSize + legendH

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	for i := 0; i < int(snap.TotalFrames); i++ {
		x := (i % cellsPerRow) * cellSize
		y := (i / cellsPerRow) * cellSize
		if i < int(snap.UsedFrames) {
			dc.SetRGB(0.8, 0.2, 0.2)
		} else {
			dc.SetRGB(0.2, 0.7, 0.2)
		}
		dc.DrawRectangle(float64(x), float64(y), cellSize, cellSize)
		dc.Fill()
	}

	face, err := loadLegendFont(14)
	if err != nil {
		return fmt.Errorf("load legend font: %w", err)
	}
	dc.SetFontFace(face)
	dc.SetColor(color.Black)
	legend := "used " + strconv.FormatUint(uint64(snap.UsedFrames), 10) +
		" / total " + strconv.FormatUint(uint64(snap.TotalFrames), 10) + " frames"
	dc.DrawStringAnchored(legend, 8, float64(rows*cellSize)+24, 0, 0.5)

	if err := dc.SavePNG(outPath); err != nil {
		return fmt.Errorf("save %s: %w", outPath, err)
	}
	fmt.Printf("%s: wrote %s (%dx%d)\n", snapshotPath, outPath, width, height)
	return nil
}

// loadLegendFont parses the embedded Go regular font (golang.org/x/image's
// gofont package) via golang/freetype's truetype parser, avoiding any
// dependency on a font file being present on the machine that runs kimg.
func loadLegendFont(points float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: points}), nil
}
