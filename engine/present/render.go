package present

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/WessleyAI/vincheck/engine/domain"
)

// Render writes v as plain text.
func Render(w io.Writer, v View) error {
	var b strings.Builder
	fmt.Fprintf(&b, "VIN: %s (%d/%d)\n", v.Input.Text, v.Input.Count, domain.VINLength)
	if v.Busy {
		b.WriteString("Decoding...\n")
	}
	if v.ErrorBanner != "" {
		fmt.Fprintf(&b, "! %s\n", v.ErrorBanner)
	}
	for _, p := range []*Panel{v.Vehicle, v.Recalls, v.Complaints} {
		if p != nil {
			renderPanel(&b, p)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderPanel(b *strings.Builder, p *Panel) {
	b.WriteString("\n")
	if p.Loading {
		fmt.Fprintf(b, "%s\n  %s\n", p.Title, p.Message)
		return
	}

	header := p.Title
	if p.Subtitle != "" {
		header += " - " + p.Subtitle
	}
	if p.Badge != "" {
		header += " (" + p.Badge + ")"
	}
	fmt.Fprintf(b, "%s %s\n", marker(p.Expanded), header)
	if !p.Expanded {
		return
	}

	if len(p.Rows) > 0 {
		tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
		for _, r := range p.Rows {
			fmt.Fprintf(tw, "    %s:\t%s\n", r.Label, r.Value)
		}
		tw.Flush()
	}
	if p.Message != "" {
		fmt.Fprintf(b, "    %s\n", p.Message)
	}
	for _, it := range p.Items {
		prefix := "   "
		if it.Toggle {
			prefix = "  " + marker(it.Expanded)
		}
		fmt.Fprintf(b, "%s %s %s  %s\n", prefix, it.Number, it.Date, it.Component)
		if it.Expanded {
			fmt.Fprintf(b, "        %s\n", it.Description)
		}
	}
}

func marker(expanded bool) string {
	if expanded {
		return "[-]"
	}
	return "[+]"
}
