package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nerdneilsfield/go-md-translator/internal/translator"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
)

// renderSummary 输出每个文件、每个语言的翻译结果
func renderSummary(w io.Writer, results []translator.Result) {
	if len(results) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"File", "Lang", "Chunks", "Chars", "Status", "Time", "Output"})

	var chars, failed, langs int
	for _, res := range results {
		chars += res.Chars
		for _, l := range res.Langs {
			langs++
			status := langStatus(res, l)
			if l.Err != nil {
				failed++
			}
			t.AppendRow(table.Row{
				filepath.Base(res.Source),
				l.Lang,
				res.Chunks,
				humanize.Comma(int64(res.Chars)),
				status,
				formatDuration(l.Duration),
				l.Output,
			})
		}
		if len(res.Langs) == 0 {
			t.AppendRow(table.Row{filepath.Base(res.Source), "-", res.Chunks, humanize.Comma(int64(res.Chars)), failColor.Sprint("input error"), "-", "-"})
			failed++
		}
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d files", len(results)),
		fmt.Sprintf("%d langs", langs),
		"",
		humanize.Comma(int64(chars)),
		fmt.Sprintf("%d failed", failed),
		"", "",
	})
	t.Render()
}

// langStatus 单个语言的状态文本
func langStatus(res translator.Result, l translator.LangResult) string {
	switch {
	case res.DryRun:
		return warnColor.Sprint("dry run")
	case l.Err != nil:
		return failColor.Sprint("failed")
	case len(l.Issues) > 0:
		issues := make([]string, len(l.Issues))
		for i, issue := range l.Issues {
			issues[i] = issue.String()
		}
		return warnColor.Sprint("check: " + strings.Join(issues, "; "))
	default:
		return okColor.Sprint("ok")
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(10 * time.Millisecond).String()
}
