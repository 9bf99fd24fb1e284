// Package cliio holds the terminal input and output helpers of the gg CLI.
package cliio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/skaphos/gg/internal/tableutil"
)

// PromptYesNo writes prompt and reads a yes/no response from input. Anything
// but y or yes, including EOF, is a no.
func PromptYesNo(out io.Writer, in io.Reader, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	choice := strings.ToLower(strings.TrimSpace(line))
	return choice == "y" || choice == "yes", nil
}

// ConfirmOverwrite asks whether the file at path may be replaced.
func ConfirmOverwrite(out io.Writer, in io.Reader, path string) (bool, error) {
	return PromptYesNo(out, in, fmt.Sprintf("%s already exists. Overwrite? [y/N]: ", path))
}

// Table is a tab-aligned table. StripEscape hides tabwriter escape
// sequences, such as colors, from column width calculations.
type Table struct {
	Headers     []string
	Rows        [][]string
	NoHeaders   bool
	StripEscape bool
}

// Write renders the table to out.
func (t Table) Write(out io.Writer) error {
	w := tableutil.New(out, t.StripEscape)
	if err := tableutil.PrintHeaders(w, t.NoHeaders || len(t.Headers) == 0, strings.Join(t.Headers, "\t")); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
