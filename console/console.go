package console

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/simhost/errors"
)

// DefaultPrompt is shown before each command.
const DefaultPrompt = "simhost> "

// Scheduler is the part of the process table the console drives.
type Scheduler interface {
	WriteList(w io.Writer) error
	Clear() (int, error)
	Kill(n int) error
}

// Exit ends the read-eval loop with a process exit code.
type Exit struct {
	Code int
}

func (e *Exit) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// Console executes operator commands against a Scheduler.
type Console struct {
	sched  Scheduler
	out    io.Writer
	log    *zap.Logger
	prompt string
}

// Option configures a Console.
type Option func(*Console)

// WithPrompt replaces DefaultPrompt.
func WithPrompt(p string) Option {
	return func(c *Console) { c.prompt = p }
}

// WithLogger sets the console's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Console) { c.log = l }
}

func New(s Scheduler, out io.Writer, opts ...Option) *Console {
	c := &Console{sched: s, out: out, prompt: DefaultPrompt}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = Logger()
	}
	return c
}

const help = `Available commands:
  list       list the processes holding a processor
  clear      free processors held by processes that no longer exist
  kill <n>   interrupt the process holding processor <n>
  help       show this list
  quit       leave the console
  exit [n]   leave the console with exit code n
`

// Execute runs one tokenized command. Operator mistakes are returned as
// invalid-input errors; quit and exit return an *Exit.
func (c *Console) Execute(args []string) error {
	if len(args) == 0 {
		return nil
	}
	c.log.Debug("console command", zap.Strings("args", args))
	switch args[0] {
	case "list":
		return c.sched.WriteList(c.out)
	case "clear":
		n, err := c.sched.Clear()
		if err != nil {
			return err
		}
		if n > 0 {
			fmt.Fprintf(c.out, "%d defunct processes cleared\n", n)
		}
		return nil
	case "kill":
		if len(args) < 2 {
			return errors.InvalidInput(errors.PhaseConsole, "missing process id")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.InvalidInput(errors.PhaseConsole, fmt.Sprintf("invalid process id '%s'", args[1]))
		}
		return c.sched.Kill(n)
	case "quit":
		return &Exit{}
	case "exit":
		if len(args) < 2 {
			return &Exit{}
		}
		code, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.InvalidInput(errors.PhaseConsole, fmt.Sprintf("invalid exit code '%s'", args[1]))
		}
		return &Exit{Code: code}
	case "help":
		_, err := io.WriteString(c.out, help)
		return err
	default:
		return errors.InvalidInput(errors.PhaseConsole, fmt.Sprintf("command '%s' not found", args[0]))
	}
}

type readResult struct {
	err  error
	line string
}

// Run reads and executes commands until quit, exit, end of input or ctx is
// done. Each value received on interrupts abandons the current line and
// prompts again: the line the pending read returns is discarded.
func (c *Console) Run(ctx context.Context, r LineReader, interrupts <-chan os.Signal) error {
	results := make(chan readResult, 1)
	pending := false
	discard := false
	prompt := c.prompt
	for {
		if !pending {
			pending = true
			go func(prompt string) {
				line, err := r.ReadLine(prompt)
				results <- readResult{line: line, err: err}
			}(prompt)
			prompt = c.prompt
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-interrupts:
			c.interrupted()
			io.WriteString(c.out, c.prompt)
			// the prompt is already shown for the read that replaces this one
			discard = pending
			prompt = ""

		case res := <-results:
			pending = false
			switch {
			case stderrors.Is(res.err, ErrInterrupted):
				discard = false
				prompt = c.prompt
				c.interrupted()
				continue
			case stderrors.Is(res.err, io.EOF):
				return &Exit{}
			case res.err != nil:
				return errors.Wrap(errors.PhaseConsole, errors.KindResourceUnavailable, res.err, "unable to read command")
			}
			if discard {
				discard = false
				c.log.Debug("input discarded after interrupt", zap.String("line", res.line))
				continue
			}
			err := c.Execute(Split(res.line))
			if err == nil {
				continue
			}
			var exit *Exit
			if stderrors.As(err, &exit) {
				return exit
			}
			fmt.Fprintln(c.out, diagnostic(err))
		}
	}
}

func (c *Console) interrupted() {
	c.log.Debug("console interrupted")
	io.WriteString(c.out, "\n*** SIGINT ***\n")
}

func diagnostic(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Kind == errors.KindInvalidInput {
		return e.Detail
	}
	return err.Error()
}
