package console

import (
	"bufio"
	stderrors "errors"
	"io"
	"os"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ErrInterrupted is returned by a LineReader whose prompt was aborted with
// Ctrl-C.
var ErrInterrupted = stderrors.New("console: prompt interrupted")

// LineReader prompts for and reads one command line. It returns io.EOF at
// the end of input.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// NewReader returns a line-editing reader when in is a terminal liner can
// drive, and a plain reader otherwise.
func NewReader(in *os.File, out io.Writer) LineReader {
	if term.IsTerminal(int(in.Fd())) && liner.TerminalSupported() {
		return NewLinerReader()
	}
	return NewPlainReader(in, out)
}

type plainReader struct {
	out  io.Writer
	scan *bufio.Scanner
}

// NewPlainReader reads lines from in and writes prompts to out.
func NewPlainReader(in io.Reader, out io.Writer) LineReader {
	return &plainReader{out: out, scan: bufio.NewScanner(in)}
}

func (r *plainReader) ReadLine(prompt string) (string, error) {
	if _, err := io.WriteString(r.out, prompt); err != nil {
		return "", err
	}
	if !r.scan.Scan() {
		if err := r.scan.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scan.Text(), nil
}

func (r *plainReader) Close() error { return nil }

type linerReader struct {
	st *liner.State
}

// NewLinerReader edits lines on the controlling terminal with history. Ctrl-C
// aborts the prompt with ErrInterrupted.
func NewLinerReader() LineReader {
	st := liner.NewLiner()
	st.SetCtrlCAborts(true)
	return &linerReader{st: st}
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	line, err := r.st.Prompt(prompt)
	if stderrors.Is(err, liner.ErrPromptAborted) {
		return "", ErrInterrupted
	}
	if err != nil {
		return "", err
	}
	if line != "" {
		r.st.AppendHistory(line)
	}
	return line, nil
}

func (r *linerReader) Close() error { return r.st.Close() }
