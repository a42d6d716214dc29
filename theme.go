package main

import (
	ui "github.com/gizak/termui/v3"
)

var colorMap = map[string]ui.Color{
	"green":   ui.ColorGreen,
	"red":     ui.ColorRed,
	"blue":    ui.ColorBlue,
	"cyan":    ui.ColorCyan,
	"magenta": ui.ColorMagenta,
	"yellow":  ui.ColorYellow,
	"white":   ui.ColorWhite,
}

var colorNames = []string{"green", "red", "blue", "cyan", "magenta", "yellow", "white"}

// coreColors is the fixed per-core chart palette. A core keeps the same
// color for the lifetime of the process; cores beyond the palette wrap.
var coreColors = []ui.Color{
	ui.ColorRed,
	ui.ColorGreen,
	ui.ColorYellow,
	ui.ColorBlue,
	ui.ColorMagenta,
	ui.ColorCyan,
	ui.ColorWhite,
}

func coreColor(index int) ui.Color {
	if len(coreColors) == 0 {
		return ui.ColorWhite
	}
	return coreColors[index%len(coreColors)]
}

func GetThemeColor(colorName string) ui.Color {
	color, ok := colorMap[colorName]
	if !ok {
		return ui.ColorGreen
	}
	return color
}

func applyTheme(colorName string) {
	color, ok := colorMap[colorName]
	if !ok {
		color = ui.ColorGreen // Default
		colorName = "green"
	}
	currentConfig.Theme = colorName

	ui.Theme.Block.Title.Fg = color
	ui.Theme.Block.Border.Fg = color
	ui.Theme.Paragraph.Text.Fg = color
	ui.Theme.Gauge.Label.Fg = color
	ui.Theme.Gauge.Bar = color

	if cpuGauge != nil {
		cpuGauge.BarColor = color
		cpuGauge.BorderStyle.Fg = color
		cpuGauge.TitleStyle.Fg = color

		memoryGauge.BarColor = color
		memoryGauge.BorderStyle.Fg = color
		memoryGauge.TitleStyle.Fg = color

		swapGauge.BarColor = color
		swapGauge.BorderStyle.Fg = color
		swapGauge.TitleStyle.Fg = color
	}

	if processList != nil {
		processList.TextStyle = ui.NewStyle(color)
		processList.SelectedRowStyle = ui.NewStyle(ui.ColorBlack, color)
		processList.BorderStyle.Fg = color
		processList.TitleStyle.Fg = color
	}

	if cpuChart != nil {
		cpuChart.BorderStyle.Fg = color
		cpuChart.TitleStyle.Fg = color
	}

	if coreText != nil {
		coreText.BorderStyle.Fg = color
		coreText.TitleStyle.Fg = color
		coreText.TextStyle = ui.NewStyle(color)
	}

	if hostText != nil {
		hostText.BorderStyle.Fg = color
		hostText.TitleStyle.Fg = color
		hostText.TextStyle = ui.NewStyle(color)
	}

	if helpText != nil {
		helpText.BorderStyle.Fg = color
		helpText.TitleStyle.Fg = color
		helpText.TextStyle = ui.NewStyle(color)
	}
}

func cycleTheme() {
	currentIndex := 0
	for i, name := range colorNames {
		if name == currentConfig.Theme {
			currentIndex = i
			break
		}
	}
	nextIndex := (currentIndex + 1) % len(colorNames)
	applyTheme(colorNames[nextIndex])
}
