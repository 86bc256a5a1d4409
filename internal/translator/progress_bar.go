package translator

import (
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-runewidth"
)

const progressMessageWidth = 32

// charUnits 以字符数显示进度，千位分隔
var charUnits = progress.Units{
	Notation: " chars",
	Formatter: func(value int64) string {
		return humanize.Comma(value)
	},
	NotationPosition: progress.UnitsNotationPositionAfter,
}

// ProgressBar 基于 go-pretty 的终端进度条，每个文档一个总进度加每个语言一个进度
type ProgressBar struct {
	pw   progress.Writer
	once sync.Once
}

// NewProgressBar 创建进度条，输出到 w
func NewProgressBar(w io.Writer) *ProgressBar {
	pw := progress.NewWriter()
	pw.SetOutputWriter(w)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Colors = progress.StyleColorsExample
	pw.Style().Options.PercentFormat = "%4.1f%%"
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Percentage = true
	pw.Style().Visibility.Speed = true
	pw.Style().Visibility.Value = true
	pw.SetTrackerLength(30)
	pw.SetUpdateFrequency(200 * time.Millisecond)
	pw.SetAutoStop(false)

	return &ProgressBar{pw: pw}
}

// Track 添加一个进度条目并在首次调用时开始渲染
func (pb *ProgressBar) Track(name string, total int) Progress {
	pb.once.Do(func() {
		go pb.pw.Render()
		for !pb.pw.IsRenderInProgress() {
			time.Sleep(time.Millisecond)
		}
	})

	t := &progress.Tracker{
		Message: runewidth.FillRight(runewidth.Truncate(name, progressMessageWidth, "…"), progressMessageWidth),
		Total:   int64(total),
		Units:   charUnits,
	}
	pb.pw.AppendTracker(t)
	return &barTracker{t: t}
}

// Done 标记条目完成或失败
func (pb *ProgressBar) Done(p Progress, err error) {
	bt, ok := p.(*barTracker)
	if !ok {
		return
	}
	if err != nil {
		bt.t.MarkAsErrored()
		return
	}
	bt.t.MarkAsDone()
}

// Stop 停止渲染并等待最后一帧输出
func (pb *ProgressBar) Stop() {
	pb.pw.Stop()
	for pb.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}

type barTracker struct {
	t *progress.Tracker
}

func (b *barTracker) Add(chars int) {
	b.t.Increment(int64(chars))
}
