package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Painter draws themed widgets. Every Draw method returns the y coordinate
// of the next line.
type Painter struct {
	Theme Theme
}

// NewPainter creates a painter with the default theme.
func NewPainter() *Painter {
	return &Painter{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (p *Painter) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, p.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, p.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header.
func (p *Painter) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, p.Theme.HeaderFontSize, p.Theme.SectionHeader)
	return y + p.Theme.LineHeight + 2
}

// DrawLabelValue draws a label and value on the same line.
func (p *Painter) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, p.Theme.FontSize, p.Theme.LabelColor)
	rl.DrawText(value, x+p.Theme.LabelWidth, y, p.Theme.FontSize, p.Theme.ValueColor)
	return y + p.Theme.LineHeight
}

// DrawBar draws value/limit as a filled bar followed by the raw value.
func (p *Painter) DrawBar(x, y int32, label string, value, limit float32, width int32) int32 {
	ratio := float32(0)
	if limit > 0 {
		ratio = min(max(value/limit, 0), 1)
	}
	barX := x + p.Theme.LabelWidth
	barWidth := width - p.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, p.Theme.FontSize, p.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, p.Theme.BarHeight, p.Theme.BarBg)
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*ratio), p.Theme.BarHeight, p.Theme.BarFill)
	rl.DrawText(fmt.Sprintf("%.0f", value), barX+barWidth+5, y, p.Theme.FontSize, p.Theme.ValueColor)

	return y + p.Theme.LineHeight
}

// DrawCenteredBar draws a bar growing from the centre for values in
// [-limit, limit].
func (p *Painter) DrawCenteredBar(x, y int32, label string, value, limit float32, width int32) int32 {
	barX := x + p.Theme.LabelWidth
	barWidth := width - p.Theme.LabelWidth - 50
	centerX := barX + barWidth/2

	rl.DrawText(label+":", x, y, p.Theme.FontSize, p.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, p.Theme.BarHeight, p.Theme.BarBg)
	rl.DrawLine(centerX, y+2, centerX, y+2+p.Theme.BarHeight, p.Theme.FlagOff)

	ratio := float32(0)
	if limit > 0 {
		ratio = min(abs32(value)/limit, 1)
	}
	fillWidth := int32(float32(barWidth/2) * ratio)
	fillX, col := centerX, p.Theme.BarFillPositive
	if value < 0 {
		fillX, col = centerX-fillWidth, p.Theme.BarFillNegative
	}
	rl.DrawRectangle(fillX, y+2, fillWidth, p.Theme.BarHeight, col)
	rl.DrawText(fmt.Sprintf("%+.2f", value), barX+barWidth+5, y, p.Theme.FontSize, p.Theme.ValueColor)

	return y + p.Theme.LineHeight
}

// DrawFlags draws a row of on/off indicators.
func (p *Painter) DrawFlags(x, y int32, names []string, on []bool) int32 {
	cx := x
	for i, name := range names {
		col := p.Theme.FlagOff
		if i < len(on) && on[i] {
			col = p.Theme.FlagOn
		}
		rl.DrawRectangle(cx, y+2, 8, 8, col)
		rl.DrawText(name, cx+12, y, p.Theme.FontSize, p.Theme.LabelColor)
		cx += 12 + rl.MeasureText(name, p.Theme.FontSize) + 10
	}
	return y + p.Theme.LineHeight
}

// DrawColorSwatch draws a label and a colour square.
func (p *Painter) DrawColorSwatch(x, y int32, label string, col rl.Color) int32 {
	rl.DrawText(label+":", x, y, p.Theme.FontSize, p.Theme.LabelColor)
	rl.DrawRectangle(x+p.Theme.LabelWidth, y+1, 12, 12, col)
	return y + p.Theme.LineHeight
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
