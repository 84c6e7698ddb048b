package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"cscan/internal/diag"
	"cscan/internal/source"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
// Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		prettyOne(w, d, fs, opts, p)
	}
}

type palette struct {
	err, warn, info *color.Color
	gutter, path    *color.Color
	note            *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		gutter: mk(color.FgBlue),
		path:   mk(color.Bold),
		note:   mk(color.FgGreen),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	sev := p.severity(d.Severity)
	f := lookupFile(fs, d.Primary.File)

	fmt.Fprintf(w, "%s: %s %s: %s\n",
		p.path.Sprint(location(fs, f, d.Primary, opts.PathMode)),
		sev.Sprint(d.Severity.String()),
		sev.Sprint(d.Code.ID()),
		d.Message)

	if f != nil && len(f.Content) > 0 {
		writeSnippet(w, f, d.Primary, opts.Context, p, sev)
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			nf := lookupFile(fs, n.Span.File)
			fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), location(fs, nf, n.Span, opts.PathMode), n.Msg)
		}
	}
}

func location(fs *source.FileSet, f *source.File, sp source.Span, mode PathMode) string {
	if f == nil {
		return "<unknown>"
	}
	pos := f.Position(sp.Start)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, f, mode), pos.Line, pos.Col)
}

func writeSnippet(w io.Writer, f *source.File, sp source.Span, context int8, p palette, mark *color.Color) {
	start, end := f.Position(sp.Start), f.Position(sp.End)
	lineCount := uint32(len(f.LineIdx) + 1)

	ctx := uint32(max(context, 0))
	first := start.Line - min(ctx, start.Line-1)
	last := min(start.Line+ctx, lineCount)
	gw := len(strconv.FormatUint(uint64(last), 10))

	var endCol uint32 // 0: до конца строки
	if end.Line == start.Line {
		endCol = end.Col
	}

	for ln := first; ln <= last; ln++ {
		text := f.GetLine(ln)
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", gw, ln), text)
		if ln != start.Line {
			continue
		}
		pad, width := underline(text, start.Col, endCol)
		fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", gw, ""), pad, mark.Sprint("^"+strings.Repeat("~", width-1)))
	}
}

// underline строит отступ до колонки col (табы сохраняются, широкие руны
// занимают две клетки) и ширину подчёркивания до endCol.
func underline(text string, col, endCol uint32) (pad string, width int) {
	runes := []rune(text)
	from := min(int(col)-1, len(runes))
	from = max(from, 0)
	to := len(runes)
	if endCol > col && int(endCol)-1 < to {
		to = int(endCol) - 1
	}

	var sb strings.Builder
	for _, r := range runes[:from] {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width = max(runewidth.StringWidth(string(runes[from:to])), 1)
	return sb.String(), width
}
