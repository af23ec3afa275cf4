package theme

import (
	"fmt"
	"io"
)

// Version identifies the report set this build posts.
const Version = "typeform-only v5 (daily/weekly/monthly; per-channel posting; headers; scheduled delivery)"

// Banner returns the help banner.
func Banner() string {
	const cyan = "\033[36m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	return cyan + "  ▆ ▃ ▇ ▂ ▅ ▁ ▄   " + reset + "recapbot\n" +
		yellow + "  ───────────────────────────────\n" + reset +
		"  daily, weekly and monthly form recaps for Slack\n"
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}

// StartLine is the one-line banner printed when a run starts.
func StartLine() string {
	return "[recapbot] starting " + Version
}

// PrintStart writes StartLine to w.
func PrintStart(w io.Writer) {
	fmt.Fprintln(w, StartLine())
}
