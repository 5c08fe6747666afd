package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianshen/agentwiki/internal/provider"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#EEEEEE"})
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"})
	freeStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"})
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"})
)

// FormatPrice renders per-token prices as dollars per million tokens.
func FormatPrice(p *provider.Pricing) string {
	if p == nil {
		return ""
	}
	if p.Total() == 0 {
		return "free"
	}
	return fmt.Sprintf("$%.2f/M in, $%.2f/M out", p.Prompt*1_000_000, p.Completion*1_000_000)
}

// formatContext formats a context window size for compact display.
func formatContext(n int) string {
	if n >= 1000 {
		if n%1000 == 0 {
			return fmt.Sprintf("%dk", n/1000)
		}
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}

// ProviderModels is the listing result of one provider.
type ProviderModels struct {
	Provider string
	Models   []provider.Model
	Err      error
}

// WriteModelList prints one section per provider: a header, then one line
// per model with its context size and price when known.
func WriteModelList(w io.Writer, results []ProviderModels) error {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(headerStyle.Render(r.Provider))
		b.WriteString("\n")
		if r.Err != nil {
			b.WriteString("  ")
			b.WriteString(errorStyle.Render("error: " + r.Err.Error()))
			b.WriteString("\n")
			continue
		}
		if len(r.Models) == 0 {
			b.WriteString("  ")
			b.WriteString(dimStyle.Render("no models"))
			b.WriteString("\n")
			continue
		}
		for _, m := range r.Models {
			b.WriteString("  ")
			b.WriteString(m.ID)
			var details []string
			if m.DisplayName != "" && m.DisplayName != m.ID {
				details = append(details, m.DisplayName)
			}
			if m.ContextLength > 0 {
				details = append(details, formatContext(m.ContextLength)+" ctx")
			}
			if len(details) > 0 {
				b.WriteString("  ")
				b.WriteString(dimStyle.Render(strings.Join(details, ", ")))
			}
			if price := FormatPrice(m.Pricing); price == "free" {
				b.WriteString("  ")
				b.WriteString(freeStyle.Render(price))
			} else if price != "" {
				b.WriteString("  ")
				b.WriteString(dimStyle.Render(price))
			}
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
