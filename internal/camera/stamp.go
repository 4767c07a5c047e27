package camera

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// toGray converts any decoded image to an 8-bit grayscale copy.
func toGray(src image.Image) *image.Gray {
	if gray, ok := src.(*image.Gray); ok {
		return gray
	}
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, src, bounds.Min, draw.Src)
	return gray
}

const (
	labelMarginX = 10
	labelMarginY = 14
	labelPad     = 4
)

// drawLabel burns text onto the bottom-left of the frame: white glyphs over a
// filled black rectangle so the label stays legible on any background.
func drawLabel(img *image.Gray, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	metrics := face.Metrics()
	textWidth := font.MeasureString(face, text).Ceil()
	textHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	bounds := img.Bounds()
	x := bounds.Min.X + labelMarginX
	y := bounds.Max.Y - labelMarginY - textHeight
	if y < bounds.Min.Y {
		y = bounds.Min.Y
	}

	backdrop := image.Rect(x-labelPad, y-labelPad, x+textWidth+2*labelPad, y+textHeight+2*labelPad)
	draw.Draw(img, backdrop.Intersect(bounds), image.NewUniform(color.Gray{Y: 0}), image.Point{}, draw.Src)

	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 255}),
		Face: face,
		Dot:  fixed.P(x, y+ascent),
	}
	drawer.DrawString(text)
}
