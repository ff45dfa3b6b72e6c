// Package command runs insert, remove, search and print scripts against an
// engine and renders the results as text reports.
package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KevoDB/dnadb/pkg/common/log"
	"github.com/KevoDB/dnadb/pkg/engine"
	"github.com/KevoDB/dnadb/pkg/engine/interfaces"
)

// Command names accepted in scripts
const (
	CmdInsert = "insert"
	CmdRemove = "remove"
	CmdSearch = "search"
	CmdPrint  = "print"
)

// ErrMissingSequence is logged when an insert is the last line of input
var ErrMissingSequence = errors.New("insert has no sequence line")

// LineReader yields input one line at a time. ReadLine returns io.EOF once
// the input is exhausted.
type LineReader interface {
	ReadLine() (string, error)
}

// Processor dispatches commands to an engine and writes reports to out.
// Core failures abandon the command that hit them and are logged; only
// engine closure and output failures stop a run.
type Processor struct {
	eng    interfaces.Engine
	out    io.Writer
	logger log.Logger
}

// NewProcessor creates a processor writing reports to out
func NewProcessor(eng interfaces.Engine, out io.Writer, logger log.Logger) *Processor {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Processor{
		eng:    eng,
		out:    out,
		logger: logger.WithField("component", "command"),
	}
}

// Run executes every command read from r
func (p *Processor) Run(r io.Reader) error {
	return p.RunLines(NewScanner(r))
}

// RunLines executes every command read from src
func (p *Processor) RunLines(src LineReader) error {
	for lineNo := 1; ; lineNo++ {
		line, err := src.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read command: %w", err)
		}

		if err := p.Exec(line, src); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
}

// Exec executes one command line. An insert pulls its sequence from src.
func (p *Processor) Exec(line string, src LineReader) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	var err error
	switch fields[0] {
	case CmdInsert:
		err = p.insert(fields[1:], src)
	case CmdRemove:
		err = p.withID(fields, p.remove)
	case CmdSearch:
		err = p.withID(fields, p.search)
	case CmdPrint:
		err = p.print()
	default:
		err = p.printf("%s is not a command\n", fields[0])
	}

	return p.settle(fields[0], err)
}

// settle decides whether a command error ends the run
func (p *Processor) settle(cmd string, err error) error {
	if err == nil {
		return nil
	}

	var werr *writeError
	if errors.As(err, &werr) || errors.Is(err, engine.ErrEngineClosed) {
		return err
	}

	p.logger.WithField("command", cmd).Error("command abandoned: %v", err)
	return nil
}

func (p *Processor) insert(args []string, src LineReader) error {
	// The payload line belongs to this command even when the header is bad
	sequence, err := src.ReadLine()
	if err == io.EOF {
		return ErrMissingSequence
	}
	if err != nil {
		return fmt.Errorf("failed to read sequence: %w", err)
	}

	if len(args) < 2 {
		p.logger.Warn("usage: insert <id> <length>, got %q", strings.Join(args, " "))
		return nil
	}
	id := args[0]
	declared, err := strconv.Atoi(args[1])
	if err != nil {
		p.logger.Warn("invalid length %q for %s", args[1], id)
		return nil
	}

	result, err := p.eng.Insert(id, declared, sequence)
	if result.LengthMismatch() {
		if werr := p.printf("Warning: Actual sequence length (%d) does not match given length (%d)\n",
			result.ActualLength, result.DeclaredLength); werr != nil {
			return werr
		}
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, engine.ErrExists):
		return p.printf("SequenceID %s exists\n", id)
	case errors.Is(err, engine.ErrBucketFull):
		return p.printf("Bucket full. Sequence %s could not be inserted\n", id)
	default:
		return err
	}
}

func (p *Processor) withID(fields []string, fn func(id string) error) error {
	if len(fields) < 2 {
		p.logger.Warn("usage: %s <id>", fields[0])
		return nil
	}
	return fn(fields[1])
}

func (p *Processor) remove(id string) error {
	sequence, err := p.eng.Remove(id)
	if errors.Is(err, engine.ErrNotFound) {
		return p.printf("SequenceID %s not found\n", id)
	}
	if err != nil {
		return err
	}
	return p.printf("Sequence Removed %s:\n%s\n", id, sequence)
}

func (p *Processor) search(id string) error {
	sequence, err := p.eng.Search(id)
	if errors.Is(err, engine.ErrNotFound) {
		return p.printf("SequenceID %s not found\n", id)
	}
	if err != nil {
		return err
	}
	return p.printf("Sequence Found: %s\n", sequence)
}

func (p *Processor) print() error {
	report, err := p.eng.Print()
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("Sequence IDs:")
	if len(report.Entries) == 0 {
		b.WriteString(" none")
	}
	b.WriteByte('\n')
	for _, e := range report.Entries {
		fmt.Fprintf(&b, "%s: hash slot [%d]\n", e.ID, e.Slot)
	}

	b.WriteString("Free Block List:")
	if len(report.FreeBlocks) == 0 {
		b.WriteString(" none")
	}
	b.WriteByte('\n')
	for i, fb := range report.FreeBlocks {
		fmt.Fprintf(&b, "[Block %d] Starting Byte Location: %d, Size %d bytes\n", i+1, fb.Offset, fb.Length)
	}

	return p.printf("%s", b.String())
}

// writeError marks a failure of the report writer
type writeError struct {
	err error
}

func (e *writeError) Error() string { return "failed to write report: " + e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

func (p *Processor) printf(format string, args ...interface{}) error {
	if _, err := fmt.Fprintf(p.out, format, args...); err != nil {
		return &writeError{err: err}
	}
	return nil
}

// Scanner adapts an io.Reader to a LineReader
type Scanner struct {
	s *bufio.Scanner
}

// NewScanner creates a Scanner over r. Lines may be as long as the
// longest sequence a script carries.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 64*1024*1024)
	return &Scanner{s: s}
}

// ReadLine returns the next line without its terminator
func (s *Scanner) ReadLine() (string, error) {
	if s.s.Scan() {
		return strings.TrimSuffix(s.s.Text(), "\r"), nil
	}
	if err := s.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
