package media

import (
	"image/color"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// 占位画面的背景色，接近黑色的深蓝
var placeholderBackground = color.RGBA{R: 10, G: 10, B: 30, A: 255}

const placeholderMaxTextRunes = 40

// WritePlaceholderFrame 绘制纯色占位画面并保存为PNG
// 画面中央带阴影描边的场景提示文字；fontPath为空时使用gg内置字体
func WritePlaceholderFrame(text string, res Resolution, fontPath, outputFile string) error {
	dc := gg.NewContext(res.Width, res.Height)

	dc.SetColor(placeholderBackground)
	dc.Clear()

	label := truncateRunes(text, placeholderMaxTextRunes)
	if label == "" {
		return dc.SavePNG(outputFile)
	}

	fontSize := float64(res.Height) / 18

	// 尝试加载配置的字体
	var face font.Face
	if fontPath != "" {
		if fontBytes, err := os.ReadFile(fontPath); err == nil {
			if parsedFont, err := truetype.Parse(fontBytes); err == nil {
				face = truetype.NewFace(parsedFont, &truetype.Options{
					Size: fontSize,
				})
				dc.SetFontFace(face)
			}
		}
	}

	w, h := dc.MeasureString(label)
	x := (float64(res.Width) - w) / 2
	y := (float64(res.Height) + h) / 2

	// 文字阴影
	dc.SetRGB(0, 0, 0)
	dc.DrawString(label, x+2, y+2)
	dc.DrawString(label, x-2, y-2)
	dc.DrawString(label, x+2, y-2)
	dc.DrawString(label, x-2, y+2)

	// 主文字
	dc.SetRGB(1, 1, 1)
	dc.DrawString(label, x, y)

	return dc.SavePNG(outputFile)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
