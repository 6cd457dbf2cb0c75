package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"skincare-backend/internal/recommendation"
)

const fallbackBanner = "> Showing a starter routine while the recommendation service is unavailable."

// Markdown renders a result as a Markdown document.
func Markdown(res recommendation.Result, opts Options) string {
	v := BuildView(res, opts)
	var b strings.Builder

	if v.Greeting != "" {
		fmt.Fprintf(&b, "## %s\n\n", v.Greeting)
		b.WriteString("Here are your personalized skincare recommendations:\n\n")
	}
	if v.Fallback {
		b.WriteString(fallbackBanner + "\n\n")
	}
	if v.Summary != "" {
		b.WriteString("### Your Skin Analysis\n\n")
		b.WriteString(v.Summary + "\n\n")
	}

	if len(v.Products) > 0 {
		b.WriteString("### Recommended Products\n\n")
		for i, p := range v.Products {
			fmt.Fprintf(&b, "%d. **%s** - %s (Match: %s%%)\n", i+1, p.Name, p.Brand, p.MatchScore)
			fmt.Fprintf(&b, "   - **Category:** %s\n", p.Category)
			fmt.Fprintf(&b, "   - **Usage:** %s\n", p.Usage)
			fmt.Fprintf(&b, "   - **Why recommended:** %s\n", p.Reason)
			if len(p.Ingredients) > 0 {
				fmt.Fprintf(&b, "   - **Key ingredients:** %s\n", strings.Join(p.Ingredients, ", "))
			}
			fmt.Fprintf(&b, "   - **Price:** %s\n", p.Price)
			if p.Rating != "" {
				fmt.Fprintf(&b, "   - **Rating:** %s⭐\n", p.Rating)
			}
		}
		b.WriteString("\n")
	}

	writeList(&b, "Morning Routine", v.Morning, NoMorning)
	writeList(&b, "Evening Routine", v.Evening, NoEvening)
	if len(v.Tips) > 0 {
		writeList(&b, "Expert Tips", v.Tips, "")
	}
	if v.Timeline != "" {
		b.WriteString("### Expected Results Timeline\n\n")
		b.WriteString(v.Timeline + "\n\n")
	}

	if opts.Debug && len(res.Raw) > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, res.Raw, "", "  "); err == nil {
			b.WriteString("### Full API Response\n\n```json\n")
			b.WriteString(pretty.String())
			b.WriteString("\n```\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeList(b *strings.Builder, title string, items []string, empty string) {
	fmt.Fprintf(b, "### %s\n\n", title)
	if len(items) == 0 {
		b.WriteString(empty + "\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML renders a result as an HTML fragment. Raw HTML in service text is
// not passed through.
func HTML(res recommendation.Result, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(res, opts)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}
