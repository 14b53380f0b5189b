// Package tui provides the interactive Bubble Tea dashboard for tankcast.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/datapilots/tankcast/internal/cli"
	"github.com/datapilots/tankcast/internal/config"
	"github.com/datapilots/tankcast/internal/forecast"
	"github.com/datapilots/tankcast/internal/model"
	"github.com/datapilots/tankcast/internal/pipeline"
	"github.com/datapilots/tankcast/internal/store"
	"github.com/datapilots/tankcast/internal/tui/components"
	"github.com/datapilots/tankcast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Readings []model.Reading
	Files    int
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg struct {
	Readings []model.Reading
	Files    int
	LoadTime time.Duration
	Err      error
}

// Tab indices, matching components.Tabs.
const (
	tabOverview = iota
	tabForecast
	tabReorder
	tabSettings
)

// App is the root Bubble Tea model.
type App struct {
	cfg           config.Config
	opts          forecast.Options
	exploreDegree int
	tankFilter    []int

	// Data
	readings []model.Reading
	files    int
	loaded   bool
	loadTime time.Duration
	loadErr  error

	// Auto-refresh
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// Derived from readings
	today      []model.TankSnapshot
	comparison model.DayComparison
	fleetDaily []model.ConsumptionRecord
	forecasts  []pipeline.TankForecast // by tank id, reorder degree
	explored   []pipeline.TankForecast // by tank id, exploration degree
	reorder    []pipeline.TankForecast // soonest reorder first
	due        int

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	fc       forecastState
	ro       reorderState
	settings settingsState

	// First-run setup
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	// Loading
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight  = 5
	minRefreshSeconds = 10
)

// NewApp creates the dashboard model. opts are the reorder forecast options;
// tankFilter restricts the dashboard to the given tanks when non-empty.
func NewApp(cfg config.Config, opts forecast.Options, tankFilter []int) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	interval := time.Duration(cfg.TUI.RefreshIntervalSec) * time.Second
	if interval < minRefreshSeconds*time.Second {
		interval = 60 * time.Second
	}

	return App{
		cfg:             cfg,
		opts:            opts,
		exploreDegree:   cfg.Forecast.ExploreDegree,
		tankFilter:      tankFilter,
		needSetup:       !config.Exists(),
		autoRefresh:     cfg.TUI.AutoRefresh,
		refreshInterval: interval,
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.cfg.General.DataDir, a.cfg.General.ExcludedTanks, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

// recompute derives every view model from the loaded readings.
func (a *App) recompute() {
	readings := pipeline.FilterReadings(a.readings, a.tankFilter)

	today, yesterday := pipeline.Snapshots(readings)
	a.today = today
	a.comparison = pipeline.Compare(today, yesterday)
	a.fleetDaily = pipeline.FleetDaily(readings)

	a.forecasts = pipeline.ForecastAll(readings, a.opts)
	exploreOpts := a.opts
	exploreOpts.Degree = a.exploreDegree
	a.explored = pipeline.ForecastAll(readings, exploreOpts)

	a.reorder = append([]pipeline.TankForecast(nil), a.forecasts...)
	pipeline.SortByReorder(a.reorder)

	a.due = 0
	for _, fc := range a.forecasts {
		if fc.Err == nil && fc.Recommendation.HasReorder {
			a.due++
		}
	}

	a.fc.cursor = clampCursor(a.fc.cursor, len(a.forecasts))
	a.ro.cursor = clampCursor(a.ro.cursor, len(a.reorderRows()))
}

func clampCursor(cursor, n int) int {
	return max(0, min(cursor, n-1))
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}
		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if a.activeTab == tabSettings && a.settings.editing {
			return a.updateSettingsInput(msg)
		}
		return a.updateKey(msg.String())

	case DataLoadedMsg:
		a.loaded = true
		a.loadErr = msg.Err
		a.readings = msg.Readings
		a.files = msg.Files
		a.loadTime = msg.LoadTime
		a.lastRefresh = time.Now()
		a.recompute()

		if a.needSetup {
			a.setupVals = NewSetupValues(a.cfg)
			a.setupForm = NewSetupForm(a.files, a.cfg.General.DataDir, a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.cfg.General.DataDir, a.cfg.General.ExcludedTanks))
		}
		return a, tea.Batch(cmds...)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.readings = msg.Readings
			a.files = msg.Files
			a.loadTime = msg.LoadTime
			a.recompute()
		}
		return a, nil
	}

	// Cursor blinks and other internal messages for the setup form.
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateKey(key string) (tea.Model, tea.Cmd) {
	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case tabForecast:
		switch key {
		case "j", "down":
			a.fc.cursor = clampCursor(a.fc.cursor+1, len(a.forecasts))
			return a, nil
		case "k", "up":
			a.fc.cursor = clampCursor(a.fc.cursor-1, len(a.forecasts))
			return a, nil
		case "d":
			a.fc.explore = !a.fc.explore
			return a, nil
		}
	case tabReorder:
		switch key {
		case "j", "down":
			a.ro.cursor = clampCursor(a.ro.cursor+1, len(a.reorderRows()))
			return a, nil
		case "k", "up":
			a.ro.cursor = clampCursor(a.ro.cursor-1, len(a.reorderRows()))
			return a, nil
		case "u":
			a.ro.dueOnly = !a.ro.dueOnly
			a.ro.cursor = clampCursor(a.ro.cursor, len(a.reorderRows()))
			return a, nil
		case "enter":
			// Jump to the forecast of the selected tank.
			if rows := a.reorderRows(); len(rows) > 0 {
				a.selectForecast(rows[a.ro.cursor].TankID)
				a.activeTab = tabForecast
			}
			return a, nil
		}
	case tabSettings:
		switch key {
		case "j", "down":
			a.settings.cursor = clampCursor(a.settings.cursor+1, settingsFieldCount)
			return a, nil
		case "k", "up":
			a.settings.cursor = clampCursor(a.settings.cursor-1, settingsFieldCount)
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.cfg.General.DataDir, a.cfg.General.ExcludedTanks)
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		cfg := loadConfigOrDefault()
		cfg.TUI.AutoRefresh = a.autoRefresh
		_ = config.Save(cfg)
		return a, nil
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if len(key) == 1 {
			if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		switch a.activeTab {
		case tabForecast:
			a.fc.cursor = clampCursor(a.fc.cursor-1, len(a.forecasts))
		case tabReorder:
			a.ro.cursor = clampCursor(a.ro.cursor-1, len(a.reorderRows()))
		}
	case tea.MouseButtonWheelDown:
		switch a.activeTab {
		case tabForecast:
			a.fc.cursor = clampCursor(a.fc.cursor+1, len(a.forecasts))
		case tabReorder:
			a.ro.cursor = clampCursor(a.ro.cursor+1, len(a.reorderRows()))
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if cfg, err := SaveSetup(a.setupVals); err == nil {
			a.applyConfig(cfg)
		}
		a.needSetup = false
		a.setupForm = nil
		return a, refreshDataCmd(a.cfg.General.DataDir, a.cfg.General.ExcludedTanks)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

// applyConfig adopts a saved config. Forecast options are rebuilt; invalid
// combinations keep the previous options.
func (a *App) applyConfig(cfg config.Config) {
	a.cfg = cfg
	theme.SetActive(cfg.Appearance.Theme)
	if opts, err := cfg.Forecast.Options(cfg.Forecast.Degree); err == nil {
		a.opts = opts
	}
	a.exploreDegree = cfg.Forecast.ExploreDegree
	a.autoRefresh = cfg.TUI.AutoRefresh
	if cfg.TUI.RefreshIntervalSec >= minRefreshSeconds {
		a.refreshInterval = time.Duration(cfg.TUI.RefreshIntervalSec) * time.Second
	}
	a.recompute()
}

// selectForecast moves the forecast cursor to tankID.
func (a *App) selectForecast(tankID int) {
	for i, fc := range a.forecasts {
		if fc.TankID == tankID {
			a.fc.cursor = i
			return
		}
	}
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  tankcast needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ tankcast"))
	b.WriteString(subtitleStyle.Render(" · Heating Oil Forecasts"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := max(min(40, a.width-30), 20)
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Parsing telemetry\n\n"))
		b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Scanning " + a.cfg.General.DataDir + "..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o f e x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Select tank"},
		}},
		{"Forecast & Reorder", [][2]string{
			{"d", "Toggle reorder / exploration degree"},
			{"u", "Only tanks due within the horizon"},
			{"Enter", "Open forecast of selected tank"},
		}},
		{"Actions", [][2]string{
			{"r", "Refresh data"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-10s", bind[0])), descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	filters := []string{
		pillAccent.Render(a.cfg.General.DataDir),
		pillAccent.Render(fmt.Sprintf("degree %d", a.opts.Degree)),
		pillAccent.Render(fmt.Sprintf("context %d", a.opts.ContextLength)),
		pillAccent.Render(fmt.Sprintf("horizon %dd", a.opts.Horizon)),
	}
	if len(a.tankFilter) > 0 {
		filters = append(filters, pillAccent.Render("tanks "+joinInts(a.tankFilter)))
	}
	filterRow := lipgloss.NewStyle().Background(t.Surface).Width(w).
		Render(pill.Render(" ") + strings.Join(filters, pill.Render(" │ ")))

	header := components.RenderTabBar(a.activeTab, w) + "\n" + filterRow
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		LoadTime:    fmt.Sprintf("%.1fs", a.loadTime.Seconds()),
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
		DueTanks:    a.due,
	})

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabForecast:
		content = a.renderForecastTab(cw, contentH)
	case tabReorder:
		content = a.renderReorderTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Loading ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadReadings runs the cached pipeline, falling back to a full parse.
func loadReadings(dataDir string, excluded []int, progressFn pipeline.ProgressFunc) ([]model.Reading, int, error) {
	if cache, err := store.Open(config.CachePath()); err == nil {
		cr, loadErr := pipeline.LoadWithCache(dataDir, cache, progressFn)
		_ = cache.Close()
		if loadErr == nil {
			return pipeline.ExcludeTanks(cr.Readings, excluded), cr.TotalFiles, nil
		}
	}

	result, err := pipeline.Load(dataDir, progressFn)
	if err != nil {
		return nil, 0, err
	}
	return pipeline.ExcludeTanks(result.Readings, excluded), result.TotalFiles, nil
}

// loadDataCmd loads in a background goroutine and streams ProgressMsg
// updates followed by a DataLoadedMsg through sub.
func loadDataCmd(dataDir string, excluded []int, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			// Non-blocking so parser workers never stall on the UI.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}
			readings, files, err := loadReadings(dataDir, excluded, progressFn)
			sub <- DataLoadedMsg{Readings: readings, Files: files, LoadTime: time.Since(start), Err: err}
		}()
		return <-sub
	}
}

// waitForLoadMsg blocks until the loader goroutine sends the next message.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads without progress reporting.
func refreshDataCmd(dataDir string, excluded []int) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		readings, files, err := loadReadings(dataDir, excluded, nil)
		return RefreshDataMsg{Readings: readings, Files: files, LoadTime: time.Since(start), Err: err}
	}
}

// loadConfigOrDefault loads config, returning defaults on error so the
// dashboard can always start.
func loadConfigOrDefault() config.Config {
	cfg, err := config.LoadFile()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// ─── Helpers ────────────────────────────────────────────────────

// chartDateLabels builds compact X-axis labels for chronological days:
// a month abbreviation at the start and at month boundaries, else the day.
func chartDateLabels(dates []time.Time) []string {
	labels := make([]string, len(dates))
	prevMonth := time.Month(0)
	for i, dt := range dates {
		switch {
		case i == 0, dt.Month() != prevMonth && i != len(dates)-1:
			labels[i] = dt.Format("Jan")
		default:
			labels[i] = strconv.Itoa(dt.Day())
		}
		prevMonth = dt.Month()
	}
	return labels
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with the background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at column x, or -1. Hitboxes follow
// components.TabVisualWidth with one separator column between tabs.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1
	}
	return -1
}
