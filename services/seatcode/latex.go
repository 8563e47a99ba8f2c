package seatcodesvc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/seatcode"
)

const (
	imagesPerLine = 4
	latexPreamble = `\documentclass[a4paper,10pt]{article}
\usepackage[margin=1cm]{geometry}
\usepackage{graphicx}
\usepackage{caption}
\usepackage{subcaption}
\usepackage{tikz}

\setlength{\parindent}{0pt}
\pagestyle{empty} 

\begin{document}

`
	latexEnd = `\end{document}`
)

// LaTeXPrinter writes a LaTeX source laying the seat images 4 per line and compiles it with pdflatex.
type LaTeXPrinter struct {
	Bin     string
	Timeout time.Duration
}

var _ seatcode.Printer = (*LaTeXPrinter)(nil)

func NewLaTeXPrinter(conf *core.Config) *LaTeXPrinter {
	return &LaTeXPrinter{Bin: conf.Seatcode.LaTeXBin, Timeout: conf.Seatcode.Timeout}
}

// LaTeXSource returns the document including images, 4 per line.
func LaTeXSource(images []string) string {
	var b strings.Builder
	b.WriteString(latexPreamble)
	for i, img := range images {
		_, _ = fmt.Fprintf(&b, "  \\includegraphics[width=0.23\\textwidth]{%s}%%\n", img)
		if i < len(images)-1 {
			if i%imagesPerLine == imagesPerLine-1 {
				b.WriteString("  \\par\n")
			} else {
				b.WriteString("  \\hfill\n")
			}
		}
	}
	b.WriteString(latexEnd)
	return b.String()
}

// Print compiles the document in dir. The .tex file is left in place when compilation fails.
func (p LaTeXPrinter) Print(ctx context.Context, dir, classroomID string, images []string) (string, error) {
	name := seatcode.DocumentName(classroomID)
	texName := name + ".tex"
	if err := os.WriteFile(filepath.Join(dir, texName), []byte(LaTeXSource(images)), 0o644); err != nil {
		return "", errors.Wrap(err, "writing latex source")
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Bin, "-interaction=nonstopmode", texName)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return "", core.NewExternalToolError(p.Bin, "not found, please install a LaTeX distribution", "")
		case ctx.Err() == context.DeadlineExceeded:
			return "", core.NewExternalToolError(p.Bin, fmt.Sprintf("timed out after %s", timeout), tail(out))
		default:
			return "", core.NewExternalToolError(p.Bin, err.Error(), tail(out))
		}
	}

	pdf := filepath.Join(dir, name+".pdf")
	if _, err := os.Stat(pdf); err != nil {
		return "", core.NewExternalToolError(p.Bin, "no pdf produced", tail(out))
	}
	return pdf, nil
}

// tail keeps the end of the compiler output, where LaTeX reports errors.
func tail(out []byte) string {
	const max = 2000
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return string(out)
}
