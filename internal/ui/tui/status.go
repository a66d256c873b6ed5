package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/anhhoangdev/ldpctl/internal/orchestrate"
)

// RenderHealth renders a point-in-time health report for the status command.
// There is no program loop; watch mode repaints by calling this again.
// Styles degrade to plain text automatically when stdout is not a terminal.
func RenderHealth(platform, environment string, health []orchestrate.PhaseHealth) string {
	var b strings.Builder

	title := fmt.Sprintf("ldpctl: %s", platform)
	if environment != "" {
		title += fmt.Sprintf(" (%s)", environment)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString(" " + overallHealth(health))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("  Phases"))
	b.WriteString("\n")

	for _, h := range health {
		icon, style := healthIcon(h)

		name := h.Phase
		if h.Optional {
			name += " (optional)"
		}

		counts := fmt.Sprintf(" %d/%d resources", h.ResourcesPresent, h.ResourcesTotal)
		if h.ResourcesTotal == 0 {
			counts = ""
		}
		if len(h.Checks) > 0 {
			ok := 0
			for _, c := range h.Checks {
				if c.Satisfied {
					ok++
				}
			}
			counts += fmt.Sprintf(" %d/%d checks", ok, len(h.Checks))
		}

		fmt.Fprintf(&b, "    %s %s%s %s\n",
			style(icon),
			style(fmt.Sprintf("%-24s", name)),
			counts,
			dimStyle.Render(truncate(healthDetail(h), 56)),
		)
	}

	b.WriteString(footerStyle.Render(fmt.Sprintf("  checked at %s", time.Now().Format("15:04:05"))))
	b.WriteString("\n")

	return b.String()
}

func overallHealth(health []orchestrate.PhaseHealth) string {
	healthy := 0
	deployed := 0
	for _, h := range health {
		if h.Healthy() {
			healthy++
		}
		if h.Deployed() {
			deployed++
		}
	}

	switch {
	case len(health) == 0:
		return dimStyle.Render("no phases")
	case healthy == len(health):
		return readyStyle.Render("Healthy")
	case deployed == 0:
		return dimStyle.Render("Not deployed")
	default:
		return warningStyle.Render(fmt.Sprintf("%d/%d phases healthy", healthy, len(health)))
	}
}

func healthIcon(h orchestrate.PhaseHealth) (string, styleFunc) {
	switch {
	case h.Healthy():
		return checkMark, sf(readyStyle)
	case !h.Deployed():
		return pending, sf(dimStyle)
	case h.Optional:
		return warnMark, sf(warningStyle)
	default:
		return crossMark, sf(failedStyle)
	}
}

// healthDetail surfaces the most useful diagnosis for an unhealthy phase:
// the first missing resource, else the first failing check.
func healthDetail(h orchestrate.PhaseHealth) string {
	if h.Healthy() || !h.Deployed() {
		return ""
	}
	if len(h.MissingResources) > 0 {
		return "missing " + h.MissingResources[0]
	}
	for _, c := range h.Checks {
		if !c.Satisfied {
			return fmt.Sprintf("%s: %s", c.Check.DisplayName(), c.Detail)
		}
	}
	return ""
}
