package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/flyer/internal/experiment"
	"github.com/san-kum/flyer/internal/trim"
)

type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	OK    lipgloss.Style
	Warn  lipgloss.Style
	Bad   lipgloss.Style
	Panel lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Foreground(t.Muted),
		Value: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		OK:    lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Warn:  lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Bad:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
	}
}

func (s Styles) row(label, value string) string {
	return s.Label.Render(fmt.Sprintf("%-12s", label)) + " " + value
}

// TrimSummary renders a trim result as a bordered panel.
func TrimSummary(res *trim.Result, s Styles) string {
	status := s.OK
	switch res.Status {
	case trim.MaxIterations:
		status = s.Warn
	case trim.Aborted:
		status = s.Bad
	}

	lines := []string{
		s.Title.Render(fmt.Sprintf("trim %.0f m / %.1f m/s", res.Target.Altitude, res.Target.Airspeed)),
		s.row("status", status.Render(res.Status.String())),
		s.row("pitch", s.Value.Render(fmt.Sprintf("%.3f°", res.Pitch()*180/math.Pi))),
		s.row("elevator", s.Value.Render(fmt.Sprintf("%.4f", res.Elevator()))),
		s.row("throttle", s.Value.Render(fmt.Sprintf("%.4f", res.Throttle()))),
		s.row("cost", s.Value.Render(fmt.Sprintf("%.3e", res.Cost))),
		s.row("iterations", s.Value.Render(fmt.Sprint(res.Iterations))),
	}
	return s.Panel.Render(strings.Join(lines, "\n"))
}

// RunSummary renders metrics, crashes and runway outcomes of a run.
func RunSummary(name string, res *experiment.Result, s Styles) string {
	lines := []string{
		s.Title.Render(name),
		s.row("steps", s.Value.Render(fmt.Sprint(res.Steps))),
		s.row("time", s.Value.Render(fmt.Sprintf("%.2f s", res.Time))),
	}

	keys := make([]string, 0, len(res.Metrics))
	for k := range res.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, s.row(k, s.Value.Render(fmt.Sprintf("%.4f", res.Metrics[k]))))
	}

	crashed := make(map[int]experiment.Crash, len(res.Crashes))
	for _, c := range res.Crashes {
		crashed[c.Vehicle] = c
	}
	for i, tr := range res.Tracks {
		state := s.OK.Render("ok")
		if c, ok := crashed[i]; ok {
			state = s.Bad.Render(fmt.Sprintf("crashed at %.2f s (%s)", c.Time, strings.Join(c.Violations, ", ")))
		} else if i < len(res.OnRunway) && res.OnRunway[i] {
			state = s.OK.Render("on runway")
		}
		lines = append(lines, s.row(tr.Name, state))
	}
	return s.Panel.Render(strings.Join(lines, "\n"))
}

// Sparkline renders values as a single row of block characters.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)
	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		idx := int((values[i*step] - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[min(max(idx, 0), len(chars)-1)])
	}
	return b.String()
}
