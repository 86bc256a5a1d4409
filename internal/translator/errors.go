package translator

import (
	"errors"
	"fmt"
)

// ErrEmptyResult 翻译服务返回了空结果，按失败处理并重试
var ErrEmptyResult = errors.New("empty translation result")

// InputError 输入文件不存在或不是普通文件，不重试
type InputError struct {
	Path   string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %s", e.Path, e.Reason)
}

// TranslateError 文本块在用尽重试次数后仍然翻译失败
type TranslateError struct {
	SourceFile string
	TargetLang string
	Chunk      int
	Attempts   int
	Err        error
}

func (e *TranslateError) Error() string {
	file := e.SourceFile
	if file == "" {
		file = "<memory>"
	}
	return fmt.Sprintf("translate %s to %s: chunk %d failed after %d attempts: %v",
		file, e.TargetLang, e.Chunk, e.Attempts, e.Err)
}

func (e *TranslateError) Unwrap() error {
	return e.Err
}
