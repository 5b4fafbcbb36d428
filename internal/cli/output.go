package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"FeedDigest/internal/usecase"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow, color.Bold)
	promptColor  = color.New(color.FgCyan)
)

func printTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{Borders: tw.BorderNone}),
	)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("table rows: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}

// promptConfirmer reads the operator's answer from a line of input.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ usecase.Confirmer = (*promptConfirmer)(nil)

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm accepts "yes" in any case; other phrases must match exactly.
func (p *promptConfirmer) Confirm(prompt, expected string) (bool, error) {
	promptColor.Fprint(p.out, prompt)

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	answer := strings.TrimSpace(line)

	if expected == strings.ToLower(expected) {
		return strings.EqualFold(answer, expected), nil
	}
	return answer == expected, nil
}

func confirmerFor(yes bool, in io.Reader, out io.Writer) usecase.Confirmer {
	if yes {
		return usecase.AutoConfirm{}
	}
	return newPromptConfirmer(in, out)
}
