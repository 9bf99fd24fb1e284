// Package tableutil configures the tab-aligned writers used for gg tables.
package tableutil

import (
	"fmt"
	"io"

	"github.com/liggitt/tabwriter"
	"github.com/mattn/go-runewidth"
)

// New creates a tabwriter with gg's default spacing settings.
func New(out io.Writer, stripEscape bool) *tabwriter.Writer {
	var flags uint
	if stripEscape {
		flags = tabwriter.StripEscape
	}
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', flags)
}

// PrintHeaders writes a tab-separated header row unless disabled.
func PrintHeaders(w io.Writer, noHeaders bool, headers string) error {
	if noHeaders {
		return nil
	}
	_, err := fmt.Fprintln(w, headers)
	return err
}

// TruncateLeft shortens value to at most limit display columns, keeping the
// end. A limit of zero or less leaves value untouched.
func TruncateLeft(value string, limit int) string {
	if limit <= 0 || runewidth.StringWidth(value) <= limit {
		return value
	}
	runes := []rune(value)
	for len(runes) > 0 && runewidth.StringWidth(string(runes))+1 > limit {
		runes = runes[1:]
	}
	return "…" + string(runes)
}
