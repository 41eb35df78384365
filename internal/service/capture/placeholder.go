package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
)

// PlaceholderName is the fixed file written in placeholder mode.
const PlaceholderName = "placeholder.gif"

const (
	placeholderWidth  = 320
	placeholderHeight = 240
	placeholderDelay  = 50 // hundredths of a second
)

var placeholderColors = color.Palette{
	color.RGBA{R: 0xff, A: 0xff},
	color.RGBA{G: 0xff, A: 0xff},
	color.RGBA{B: 0xff, A: 0xff},
}

// PlaceholderGIF renders a looping three-frame animation of solid red,
// green and blue.
func PlaceholderGIF() ([]byte, error) {
	anim := &gif.GIF{LoopCount: 0}
	bounds := image.Rect(0, 0, placeholderWidth, placeholderHeight)

	for _, c := range placeholderColors {
		frame := image.NewPaletted(bounds, placeholderColors)
		draw.Draw(frame, bounds, &image.Uniform{C: c}, image.Point{}, draw.Src)
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, placeholderDelay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
