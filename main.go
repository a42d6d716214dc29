// coretop is a terminal based host resource monitor written in Go, released under MIT License.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	ui "github.com/gizak/termui/v3"
	w "github.com/gizak/termui/v3/widgets"
	"github.com/shirou/gopsutil/v4/host"
	"golang.org/x/term"

	"github.com/oselab/coretop/internal/metrics"
	"github.com/oselab/coretop/internal/monitor"
)

var (
	cpuGauge, memoryGauge, swapGauge *w.Gauge
	cpuChart                         *w.Plot
	coreText, hostText, helpText     *w.Paragraph
	processList                      *w.List
	grid                             *ui.Grid
	state                            *monitor.State
	stderrLogger                     = log.New(os.Stderr, "", 0)
	currentGridLayout                = "default"
	showHelp                         = false
	updateInterval                   = 500
	done                             = make(chan struct{})
	resizeThrottler                  = NewEventThrottler(80 * time.Millisecond)
	listenAddr                       string
	headless                         bool
	headlessCount                    int
)

const version = "v0.1.0"

func setupUI() {
	hostText, helpText = w.NewParagraph(), w.NewParagraph()
	hostText.Title = "Host"
	hostText.Text = hostInfoText()
	helpText.Title = "coretop help menu"
	updateHelpText()

	coreText = w.NewParagraph()
	coreText.Title = "Cores"

	processList = w.NewList()
	processList.Title = "Processes"
	processList.TextStyle = ui.NewStyle(ui.ColorGreen)
	processList.WrapText = false
	processList.SelectedRowStyle = ui.NewStyle(ui.ColorBlack, ui.ColorGreen)
	processList.Rows = []string{}
	processList.SelectedRow = 0

	gauges := []*w.Gauge{w.NewGauge(), w.NewGauge(), w.NewGauge()}
	titles := []string{"CPU Usage", "Memory Usage", "Swap Usage"}
	for i, gauge := range gauges {
		gauge.Percent = 0
		gauge.Title = titles[i]
	}
	cpuGauge, memoryGauge, swapGauge = gauges[0], gauges[1], gauges[2]

	cpuChart = w.NewPlot()
	cpuChart.Title = "CPU Usage History (60s)"
	cpuChart.MaxVal = 100
	cpuChart.Marker = w.MarkerBraille
	cpuChart.Data = [][]float64{}
	cpuChart.ShowAxes = true
}

func updateHelpText() {
	helpText.Text = fmt.Sprintf(
		"coretop is an open source terminal monitor for CPU, memory, and processes.\n\n"+
			"Controls:\n"+
			"- j or <Down>: Move the process selection down\n"+
			"- k or <Up>: Move the process selection up\n"+
			"- s: Toggle process sort (memory/cpu)\n"+
			"- c: Cycle through UI color themes\n"+
			"- l: Toggle the main display's layout\n"+
			"- r: Refresh the UI manually\n"+
			"- h or ?: Toggle this help menu\n"+
			"- q or <C-c>: Quit\n\n"+
			"Start Flags:\n"+
			"--help, -h: Show this help menu\n"+
			"--version, -v: Show the version of coretop\n"+
			"--interval, -i: Set the process refresh interval in milliseconds. Default is 500.\n"+
			"--color, -c: Set the UI color. Options are 'green', 'red', 'blue', 'cyan', 'magenta', 'yellow', and 'white'.\n"+
			"--listen, -L: Serve Prometheus metrics and a websocket snapshot stream on this address (e.g. :9090).\n"+
			"--headless: Run without the TUI, printing one JSON snapshot per interval.\n"+
			"--count, -n: Number of snapshots to emit in headless mode (0 = infinite).\n\n"+
			"Version: %s", version)
}

func hostInfoText() string {
	info, err := host.Info()
	if err != nil {
		return "Unknown Host"
	}
	uptime := time.Duration(info.Uptime) * time.Second
	return fmt.Sprintf("%s\n%s %s\nKernel: %s\nUptime: %s",
		info.Hostname, info.Platform, info.PlatformVersion, info.KernelVersion,
		uptime.Truncate(time.Minute))
}

func setupGrid() {
	grid = ui.NewGrid()
	grid.Set(
		ui.NewRow(1.0/2,
			ui.NewCol(1.0/4,
				ui.NewRow(2.0/3, coreText),
				ui.NewRow(1.0/3, hostText),
			),
			ui.NewCol(3.0/4,
				ui.NewRow(1.0/4, cpuGauge),
				ui.NewRow(3.0/4, cpuChart),
			),
		),
		ui.NewRow(1.0/8,
			ui.NewCol(1.0/2, memoryGauge),
			ui.NewCol(1.0/2, swapGauge),
		),
		ui.NewRow(3.0/8,
			ui.NewCol(1.0, processList),
		),
	)
}

func switchGridLayout() {
	if currentGridLayout == "default" {
		newGrid := ui.NewGrid()
		newGrid.Set(
			ui.NewRow(1.0/8,
				ui.NewCol(1.0/3, cpuGauge),
				ui.NewCol(1.0/3, memoryGauge),
				ui.NewCol(1.0/3, swapGauge),
			),
			ui.NewRow(7.0/8,
				ui.NewCol(1.0/2,
					ui.NewRow(1.0/2, cpuChart),
					ui.NewRow(1.0/4, coreText),
					ui.NewRow(1.0/4, hostText),
				),
				ui.NewCol(1.0/2, processList),
			),
		)
		grid = newGrid
		currentGridLayout = "alternative"
	} else {
		setupGrid()
		currentGridLayout = "default"
	}
	currentConfig.DefaultLayout = currentGridLayout
	termWidth, termHeight := ui.TerminalDimensions()
	grid.SetRect(0, 0, termWidth, termHeight)
	syncVisibleHeight()
}

func toggleHelpMenu() {
	showHelp = !showHelp
	if showHelp {
		newGrid := ui.NewGrid()
		newGrid.Set(
			ui.NewRow(1.0, ui.NewCol(1.0, helpText)),
		)
		termWidth, termHeight := ui.TerminalDimensions()
		newGrid.SetRect(0, 0, termWidth, termHeight)
		grid = newGrid
	} else {
		if currentGridLayout == "default" {
			setupGrid()
			termWidth, termHeight := ui.TerminalDimensions()
			grid.SetRect(0, 0, termWidth, termHeight)
		} else {
			currentGridLayout = "default" // switchGridLayout flips back to alternative
			switchGridLayout()
		}
		syncVisibleHeight()
	}
	ui.Clear()
	ui.Render(grid)
}

// syncVisibleHeight tells the monitor how many process rows fit under the
// header so the scroll window stays in step with the widget size.
func syncVisibleHeight() {
	h := processList.Inner.Dy() - 1
	if h < 0 {
		h = 0
	}
	state.SetVisibleHeight(h)
}

func updateCPUUI(v monitor.View) {
	cpuGauge.Title = fmt.Sprintf("CPU Usage: %.1f%%", v.CPU.Global)
	cpuGauge.Percent = int(v.CPU.Global)

	lines := make([]string, len(v.CPU.Cores))
	for i, core := range v.CPU.Cores {
		lines[i] = fmt.Sprintf("%7s: %5.1f%%", core.Name, core.Usage)
	}
	coreText.Text = strings.Join(lines, "\n")

	// One chart series per core, colored by the fixed palette. Plot
	// needs at least two points per series to draw a line.
	data := make([][]float64, 0, len(v.CPU.Cores))
	colors := make([]ui.Color, 0, len(v.CPU.Cores))
	for i, core := range v.CPU.Cores {
		if len(core.History) < 2 {
			continue
		}
		data = append(data, core.History)
		colors = append(colors, coreColor(i))
	}
	if len(data) == 0 && len(v.CPU.GlobalHistory) >= 2 {
		data = append(data, v.CPU.GlobalHistory)
		colors = append(colors, GetThemeColor(currentConfig.Theme))
	}
	cpuChart.Data = data
	cpuChart.LineColors = colors
}

func updateMemoryUI(v monitor.View) {
	memoryGauge.Title = v.Memory.MemoryText
	memoryGauge.Percent = int(v.Memory.MemoryPercent)
	swapGauge.Title = v.Memory.SwapText
	swapGauge.Percent = int(v.Memory.SwapPercent)
}

func formatProcessRow(rec metrics.ProcessRecord, nameWidth int) string {
	parent := "-"
	if rec.ParentPID > 0 {
		parent = strconv.Itoa(int(rec.ParentPID))
	}
	name := rec.Name
	if len(name) > nameWidth {
		name = name[:nameWidth-3] + "..."
	}
	return fmt.Sprintf("%6d %-*s %6.1f%% %9.1fMB %-9s %6s",
		rec.PID, nameWidth, name, rec.CPUPercent, rec.MemoryMB, rec.Status, parent)
}

func updateProcessList(v monitor.View) {
	nameWidth := processList.Inner.Dx() - 43
	if nameWidth < 10 {
		nameWidth = 10
	}
	if nameWidth > 40 {
		nameWidth = 40
	}

	height := processList.Inner.Dy() - 1
	if height < 0 {
		height = 0
	}
	start := v.Processes.ScrollOffset
	end := start + height
	if end > len(v.Processes.Records) {
		end = len(v.Processes.Records)
	}
	if start > end {
		start = end
	}

	header := fmt.Sprintf("%6s %-*s %7s %11s %-9s %6s",
		"PID", nameWidth, "NAME", "CPU", "MEM", "STATUS", "PARENT")
	rows := make([]string, 0, end-start+1)
	rows = append(rows, header)
	for _, rec := range v.Processes.Records[start:end] {
		rows = append(rows, formatProcessRow(rec, nameWidth))
	}
	processList.Rows = rows

	selected := v.Processes.Selected - start + 1 // +1 for the header row
	if selected < 0 || selected >= len(rows) {
		selected = 0
	}
	processList.SelectedRow = selected
	processList.Title = fmt.Sprintf("Processes (%d) - sorted by %s",
		len(v.Processes.Records), v.Processes.SortKey)
}

func refreshUI() {
	v := state.View()
	updateCPUUI(v)
	updateMemoryUI(v)
	updateProcessList(v)
	publishView(v)
	ui.Render(grid)
}

// handleProcessListEvents is the input side of the monitor: each key maps
// to exactly one cursor or sort transition on the shared state. The lock
// is held only for that transition, never across rendering.
func handleProcessListEvents(e ui.Event) {
	switch e.ID {
	case "j", "<Down>":
		state.MoveDown()
	case "k", "<Up>":
		state.MoveUp()
	case "s":
		state.ToggleSortKey()
	default:
		return
	}
	updateProcessList(state.View())
	ui.Render(processList)
}

func StderrToLogfile(logfile *os.File) {
	syscall.Dup2(int(logfile.Fd()), 2)
}

func setupLogfile() (*os.File, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	logDir := filepath.Join(homeDir, ".coretop")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to make the log directory: %v", err)
	}
	logPath := filepath.Join(logDir, "coretop.log")
	logfile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0660)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}
	log.SetFlags(log.Ltime | log.Lshortfile)
	log.SetOutput(logfile)
	return logfile, nil
}

func newMonitorState() *monitor.State {
	cpuSampler, err := metrics.NewCPUSampler()
	if err != nil {
		stderrLogger.Fatalf("failed to read cpu counters: %v", err)
	}
	return monitor.NewState(cpuSampler, metrics.NewMemorySampler(), metrics.NewProcessTable())
}

func main() {
	var (
		colorName             string
		interval              int
		err                   error
		setColor, setInterval bool
	)
	for i := 1; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--help", "-h":
			fmt.Print("Usage: coretop [--help] [--version] [--interval] [--color] [--listen] [--headless] [--count]\n" +
				"--help: Show this help message\n" +
				"--version: Show the version of coretop\n" +
				"--interval: Set the process refresh interval in milliseconds. Default is 500.\n" +
				"--color: Set the UI color. Options are 'green', 'red', 'blue', 'cyan', 'magenta', 'yellow', and 'white'. (-c green)\n" +
				"--listen: Serve Prometheus metrics on /metrics and a websocket snapshot stream on /stream (e.g. --listen :9090)\n" +
				"--headless: Run without the TUI and print one JSON snapshot per interval\n" +
				"--count: Number of snapshots to emit in headless mode (0 = infinite)\n")
			os.Exit(0)
		case "--version", "-v":
			fmt.Println("coretop version:", version)
			os.Exit(0)
		case "--color", "-c":
			if i+1 < len(os.Args) {
				colorName = strings.ToLower(os.Args[i+1])
				setColor = true
				i++
			} else {
				fmt.Println("Error: --color flag requires a color value")
				os.Exit(1)
			}
		case "--interval", "-i":
			if i+1 < len(os.Args) {
				interval, err = strconv.Atoi(os.Args[i+1])
				if err != nil {
					fmt.Println("Invalid interval:", err)
					os.Exit(1)
				}
				setInterval = true
				i++
			} else {
				fmt.Println("Error: --interval flag requires an interval value")
				os.Exit(1)
			}
		case "--listen", "-L":
			if i+1 < len(os.Args) {
				listenAddr = os.Args[i+1]
				i++
			} else {
				fmt.Println("Error: --listen flag requires an address")
				os.Exit(1)
			}
		case "--headless":
			headless = true
		case "--count", "-n":
			if i+1 < len(os.Args) {
				headlessCount, err = strconv.Atoi(os.Args[i+1])
				if err != nil {
					fmt.Println("Invalid count:", err)
					os.Exit(1)
				}
				i++
			} else {
				fmt.Println("Error: --count flag requires a number")
				os.Exit(1)
			}
		}
	}

	loadConfig()
	updateInterval = currentConfig.IntervalMS
	if setInterval {
		updateInterval = interval
	}
	if updateInterval < 100 {
		updateInterval = 100
	}

	if headless {
		runHeadless(headlessCount)
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		stderrLogger.Fatalf("stdout is not a terminal; use --headless for JSON output")
	}

	logfile, err := setupLogfile()
	if err != nil {
		stderrLogger.Fatalf("failed to setup log file: %v", err)
	}
	defer logfile.Close()

	state = newMonitorState()

	if err := ui.Init(); err != nil {
		stderrLogger.Fatalf("failed to initialize termui: %v", err)
	}
	defer ui.Close()
	StderrToLogfile(logfile)

	if listenAddr != "" {
		startMetricsServer(listenAddr)
		log.Printf("metrics available at http://localhost%s/metrics, stream at /stream", listenAddr)
	}

	setupUI()
	if setColor {
		applyTheme(colorName)
	} else {
		applyTheme(currentConfig.Theme)
	}
	if currentConfig.DefaultLayout == "alternative" {
		currentGridLayout = "default"
		switchGridLayout()
	} else {
		setupGrid()
	}
	termWidth, termHeight := ui.TerminalDimensions()
	grid.SetRect(0, 0, termWidth, termHeight)
	syncVisibleHeight()
	refreshUI()

	loop := monitor.NewSamplerLoop(state, time.Duration(updateInterval)*time.Millisecond)
	loop.Logger = log.Default()
	go loop.Run(done)

	go func() {
		ticker := time.NewTicker(time.Duration(updateInterval) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if !showHelp {
					refreshUI()
				}
			case <-resizeThrottler.C:
				termWidth, termHeight := ui.TerminalDimensions()
				grid.SetRect(0, 0, termWidth, termHeight)
				if !showHelp {
					syncVisibleHeight()
				}
				ui.Clear()
				refreshUI()
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	uiEvents := ui.PollEvents()
	for {
		select {
		case e := <-uiEvents:
			handleProcessListEvents(e)
			switch e.ID {
			case "q", "<C-c>":
				close(done)
				ui.Close()
				os.Exit(0)
				return
			case "<Resize>":
				resizeThrottler.Notify()
			case "r":
				ui.Clear()
				refreshUI()
			case "c":
				cycleTheme()
				saveConfig()
				ui.Clear()
				refreshUI()
			case "l":
				if !showHelp {
					switchGridLayout()
					saveConfig()
					ui.Clear()
					refreshUI()
				}
			case "h", "?":
				toggleHelpMenu()
			}
		case <-quit:
			close(done)
			ui.Close()
			os.Exit(0)
			return
		case <-done:
			ui.Close()
			os.Exit(0)
			return
		}
	}
}
