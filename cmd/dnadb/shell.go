package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/KevoDB/dnadb/pkg/command"
)

const (
	shellPrompt    = "dnadb> "
	sequencePrompt = "sequence> "
)

// Command completer for readline
var completer = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".stats"),
	readline.PcItem(".exit"),
	readline.PcItem(command.CmdInsert),
	readline.PcItem(command.CmdRemove),
	readline.PcItem(command.CmdSearch),
	readline.PcItem(command.CmdPrint),
)

const shellHelp = `
Commands:
  .help                  - Show this help message
  .stats                 - Show store statistics
  .exit                  - Exit the shell

  insert ID LENGTH       - Store a sequence; it is read from the next prompt
  remove ID              - Remove a sequence and show it
  search ID              - Show the sequence stored under ID
  print                  - List identifiers and free blocks
`

var shellCmd = &cobra.Command{
	Use:   "shell <hash-table-size> <memory-file>",
	Short: "Run commands interactively",
	Long: `The shell command opens the memory file and reads commands from an
interactive prompt with history and completion. An insert asks for its
sequence on the following prompt.

Example:
  dnadb shell 64 memory.bin`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

// promptReader reads an insert's sequence from the shell under its own prompt
type promptReader struct {
	rl *readline.Instance
}

func (r *promptReader) ReadLine() (string, error) {
	r.rl.SetPrompt(sequencePrompt)
	defer r.rl.SetPrompt(shellPrompt)

	line, err := r.rl.Readline()
	if err == readline.ErrInterrupt {
		return "", io.EOF
	}
	return line, err
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	eng, closeEngine, err := openEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	out := cmd.OutOrStdout()
	proc := command.NewProcessor(eng, out, logger)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".dnadb_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(out, "dnadb %s on %s (%d hash slots)\n", version, cfg.MemoryFile, cfg.TableSize)
	fmt.Fprintln(out, "Enter .help for usage hints.")

	src := &promptReader{rl: rl}
	for {
		line, readErr := rl.Readline()
		if readErr == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if readErr == io.EOF {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read input: %w", readErr)
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case ".help":
			fmt.Fprint(out, shellHelp)
			continue
		case ".stats":
			printStats(out, eng.GetStats())
			continue
		case ".exit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		if err := proc.Exec(line, src); err != nil {
			return err
		}
	}
}
