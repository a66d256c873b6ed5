package tui

import (
	"fmt"
	"strings"

	"github.com/anhhoangdev/ldpctl/internal/util/preflight"
)

// RenderPreflight renders the doctor command's environment report: one line
// per check, required failures in red, optional ones as warnings.
func RenderPreflight(platform string, results *preflight.CheckResults) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("ldpctl: %s", platform)))
	if results.HasErrors() {
		b.WriteString(" " + failedStyle.Render("Not ready"))
	} else {
		b.WriteString(" " + readyStyle.Render("Ready"))
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("  Preflight"))
	b.WriteString("\n")

	for _, res := range results.Results {
		icon, style := preflightIcon(res)

		detail := res.Detail
		if res.Err != nil {
			detail = res.Err.Error()
		}

		fmt.Fprintf(&b, "    %s %s %s\n",
			style(icon),
			style(fmt.Sprintf("%-28s", res.Check.Name)),
			dimStyle.Render(truncate(detail, 64)),
		)
	}

	if results.HasErrors() {
		b.WriteString(footerStyle.Render("  fix the failed checks above, then run ldpctl deploy"))
		b.WriteString("\n")
	}

	return b.String()
}

func preflightIcon(res preflight.CheckResult) (string, styleFunc) {
	switch {
	case res.OK:
		return checkMark, sf(readyStyle)
	case res.Check.Required:
		return crossMark, sf(failedStyle)
	default:
		return warnMark, sf(warningStyle)
	}
}
