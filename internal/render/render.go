package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/e-frolov/shortwave/internal/freq"
	"github.com/e-frolov/shortwave/internal/infer"
	"github.com/e-frolov/shortwave/internal/session"
)

var (
	fullStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FFF00")).Bold(true)
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F77700")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0077F7")).Bold(true)
)

// FormatKey renders an offset key as dash-joined knob positions.
func FormatKey(key []int) string {
	parts := make([]string, len(key))
	for i, off := range key {
		parts[i] = strconv.Itoa(off)
	}
	return strings.Join(parts, "-")
}

// Outcome writes a processed message's outcome to w.
func Outcome(w io.Writer, outcome session.Outcome, color bool) error {
	switch outcome.Kind {
	case session.Duplicate:
		_, err := fmt.Fprintf(w, "%s message %s was already processed\n",
			styled(labelStyle, "duplicate:", color), shortFingerprint(outcome.Message.Fingerprint))
		return err
	case session.FrequencyUpdated:
		_, err := fmt.Fprintf(w, "%s counted %d clear words\n",
			styled(labelStyle, "clear:", color), len(outcome.Counted))
		return err
	default:
		return suggestions(w, outcome.Suggestions, color)
	}
}

func suggestions(w io.Writer, candidates []infer.Candidate, color bool) error {
	if len(candidates) == 0 {
		_, err := fmt.Fprintf(w, "%s no length-compatible vocabulary; no suggestion\n",
			styled(labelStyle, "cipher:", color))
		return err
	}

	if _, err := fmt.Fprintf(w, "%s %d candidate keys\n",
		styled(labelStyle, "cipher:", color), len(candidates)); err != nil {
		return err
	}

	// Cells stay unstyled: escape codes would throw off the padded
	// column widths.
	headers := []string{"#", "KEY", "CONFIDENCE", "WEIGHT", "DECODES"}
	rows := make([][]string, 0, len(candidates))
	for i, cand := range candidates {
		badge := "partial"
		if cand.Complete == infer.Full {
			badge = "full"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			FormatKey(cand.Key),
			badge,
			strconv.FormatInt(cand.Weight, 10),
			decodes(cand),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	best := candidates[0]
	badge := styled(partialStyle, "partial evidence", color)
	if best.Complete == infer.Full {
		badge = styled(fullStyle, "fully corroborated", color)
	}
	_, err := fmt.Fprintf(w, "we think the code is %s (%s)\n", FormatKey(best.Key), badge)
	return err
}

func decodes(cand infer.Candidate) string {
	parts := make([]string, 0, len(cand.Words))
	for _, word := range cand.Words {
		if clear, ok := infer.Apply(cand.Key, word); ok {
			parts = append(parts, word+">"+clear)
		}
	}
	return strings.Join(parts, " ")
}

// TopTable writes the most frequent words of a namespace to w.
func TopTable(w io.Writer, ns freq.Namespace, entries []freq.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintf(w, "no %s words recorded yet\n", ns)
		return err
	}
	headers := []string{"WORD", "COUNT"}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{entry.Word, strconv.FormatInt(entry.Count, 10)})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// ShouldUseColor reports whether styled output is appropriate for w.
func ShouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func styled(style lipgloss.Style, text string, color bool) string {
	if !color {
		return text
	}
	return style.Render(text)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
