package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	pb "github.com/schollz/progressbar/v3"
)

var (
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("167"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func headingf(format string, a ...any) string {
	return styleHeading.Render(fmt.Sprintf(format, a...))
}

func successf(format string, a ...any) string {
	return styleSuccess.Render("✓ " + fmt.Sprintf(format, a...))
}

func errorf(format string, a ...any) string {
	return styleError.Render("✗ " + fmt.Sprintf(format, a...))
}

func dimf(format string, a ...any) string {
	return styleDim.Render(fmt.Sprintf(format, a...))
}

// newPagingSpinner returns a running spinner for the registry paging
// phase, or nil when progress output is suppressed.
func newPagingSpinner(quiet bool, message string) *spinner.Spinner {
	if quiet {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	return s
}

func stopSpinner(s *spinner.Spinner) {
	if s != nil {
		s.Stop()
	}
}

// newFetchBar returns a progress bar sized for total fetches, or nil when
// progress output is suppressed.
func newFetchBar(total int, quiet bool) *pb.ProgressBar {
	if quiet {
		return nil
	}
	bar := pb.NewOptions(
		total,
		pb.OptionSetDescription("Fetching GitHub stats"),
		pb.OptionSetWriter(os.Stderr),
		pb.OptionSetWidth(20),
		pb.OptionThrottle(65*time.Millisecond),
		pb.OptionShowCount(),
		pb.OptionSetTheme(
			pb.Theme{Saucer: "=", SaucerPadding: " ", BarStart: "[", BarEnd: "]"},
		),
		pb.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)
	bar.RenderBlank()
	return bar
}

func tickBar(bar *pb.ProgressBar) {
	if bar != nil {
		bar.Add(1)
	}
}

// barHolder lazily creates the fetch progress bar on the first completion
// callback, once the total number of fetches is known.
type barHolder struct {
	bar *pb.ProgressBar
}

func (h *barHolder) ensure(total int) {
	if h.bar == nil {
		h.bar = newFetchBar(total, false)
	}
}

func (h *barHolder) tick() {
	tickBar(h.bar)
}
