package tui

import (
	"testing"

	"github.com/datapilots/tankcast/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0

		for i, tab := range components.Tabs {
			w := tabWidthForTest(tab.Name, i, active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1 // separator
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Errorf("active=%d x past last tab -> %d, want -1", active, got)
		}
	}
}

func tabWidthForTest(name string, tabIdx, activeIdx int) int {
	w := len(name) + 2 // horizontal padding in tab renderer
	if tabIdx != activeIdx && tabIdx == tabSettings {
		w += 3 // inactive Settings adds "[x]"
	}
	return w
}

func TestMouseClickSelectsTab(t *testing.T) {
	a := App{loaded: true, activeTab: tabOverview}
	x := tabWidthForTest("Overview", 0, 0) + 1 + 2 // inside "Forecast"

	m, _ := a.Update(tea.MouseMsg{X: x, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if got := m.(App).activeTab; got != tabForecast {
		t.Errorf("activeTab = %d, want %d", got, tabForecast)
	}

	// Clicks below the tab bar do not switch tabs.
	m, _ = a.Update(tea.MouseMsg{X: x, Y: 3, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if got := m.(App).activeTab; got != tabOverview {
		t.Errorf("activeTab = %d after body click, want %d", got, tabOverview)
	}
}
