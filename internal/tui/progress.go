package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	stepStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#58A6FF"})
	okStyle   = freeStyle
)

// Progress prints one styled line per stage transition. It satisfies
// wiki.Observer.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	started time.Time
	now     func() time.Time
}

// NewProgress creates a Progress writing to w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w, now: time.Now}
}

// StageStarted prints "[i/n] name...".
func (p *Progress) StageStarted(name string, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = p.now()
	fmt.Fprintf(p.w, "%s %s...\n", stepStyle.Render(fmt.Sprintf("[%d/%d]", index+1, total)), name)
}

// StageFinished prints a check mark with the elapsed time, or a cross.
func (p *Progress) StageFinished(name string, _, _ int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		fmt.Fprintf(p.w, "%s %s\n", errorStyle.Render("✗"), name)
		return
	}
	elapsed := p.now().Sub(p.started).Round(100 * time.Millisecond)
	fmt.Fprintf(p.w, "%s %s %s\n", okStyle.Render("✓"), name, dimStyle.Render("("+elapsed.String()+")"))
}

// Done prints the closing line of a successful run.
func (p *Progress) Done(outputDir string, documents int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s wrote %d pages to %s\n", okStyle.Render("✓"), documents, outputDir)
}
