package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/redisdown"
)

const shellHelp = `
Commands:
  .help                   - Show this help message
  .exit                   - Exit the shell
  .stats                  - Print store metrics

  PUT key value           - Store a value (queued while a batch is open)
  GET key                 - Print the value of a key
  DEL key                 - Delete a key (queued while a batch is open)

  SCAN [LIMIT n]          - List all records in key order
  SCAN RANGE start end    - List records in [start, end)
  RSCAN [LIMIT n]         - List all records in reverse key order

  BATCH                   - Start queueing PUT and DEL
  COMMIT                  - Apply the queued operations atomically
  ROLLBACK                - Drop the queued operations
`

var completer = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".exit"),
	readline.PcItem(".stats"),
	readline.PcItem("PUT"),
	readline.PcItem("GET"),
	readline.PcItem("DEL"),
	readline.PcItem("SCAN",
		readline.PcItem("RANGE"),
		readline.PcItem("LIMIT"),
	),
	readline.PcItem("RSCAN",
		readline.PcItem("LIMIT"),
	),
	readline.PcItem("BATCH"),
	readline.PcItem("COMMIT"),
	readline.PcItem("ROLLBACK"),
)

var errExit = errors.New("exit")

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive shell on the location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          fmt.Sprintf("redisdown:%s> ", store.Location()),
			HistoryFile:     filepath.Join(os.TempDir(), ".redisdown_history"),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			AutoComplete:    completer,
		})
		if err != nil {
			return err
		}
		defer rl.Close()

		sh := &shell{s: store, w: rl.Stdout()}
		fmt.Fprintf(sh.w, "redisdown v%s on %s\nEnter .help for usage hints.\n", Version, store.Location())
		for {
			if sh.batch != nil {
				rl.SetPrompt(fmt.Sprintf("redisdown:%s[%d]> ", store.Location(), sh.batch.Len()))
			} else {
				rl.SetPrompt(fmt.Sprintf("redisdown:%s> ", store.Location()))
			}
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if line == "" {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			err = sh.exec(ctx, line)
			cancel()
			if errors.Is(err, errExit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(sh.w, "Error: %s\n", err)
			}
		}
	},
}

// shell runs one line at a time against a store. An open batch collects
// PUT and DEL until COMMIT or ROLLBACK.
type shell struct {
	s     *redisdown.Store
	w     io.Writer
	batch *redisdown.Batch
}

func (sh *shell) exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, ".") {
		switch strings.ToLower(line) {
		case ".help":
			fmt.Fprint(sh.w, shellHelp)
		case ".exit", ".quit":
			return errExit
		case ".stats":
			if metrics == nil {
				return errors.New("metrics are not enabled")
			}
			metrics.WritePrometheus(sh.w)
		default:
			return fmt.Errorf("unknown command %q", line)
		}
		return nil
	}

	parts := strings.Fields(line)
	switch strings.ToUpper(parts[0]) {
	case "PUT":
		if len(parts) < 3 {
			return errors.New("usage: PUT key value")
		}
		// the value keeps its inner spaces
		value := strings.TrimSpace(line[len(parts[0]):])
		value = strings.TrimSpace(value[len(parts[1]):])
		if sh.batch != nil {
			sh.batch.Put(parts[1], value)
			return nil
		}
		if err := sh.s.Put(ctx, parts[1], value); err != nil {
			return err
		}
		fmt.Fprintln(sh.w, "OK")
	case "GET":
		if len(parts) != 2 {
			return errors.New("usage: GET key")
		}
		return doGet(ctx, sh.s, sh.w, parts[1])
	case "DEL", "DELETE":
		if len(parts) != 2 {
			return errors.New("usage: DEL key")
		}
		if sh.batch != nil {
			sh.batch.Delete(parts[1])
			return nil
		}
		if err := sh.s.Delete(ctx, parts[1]); err != nil {
			return err
		}
		fmt.Fprintln(sh.w, "OK")
	case "SCAN", "RSCAN":
		opts, err := parseShellScan(parts[1:])
		if err != nil {
			return err
		}
		opts.Reverse = strings.EqualFold(parts[0], "RSCAN")
		return doScan(ctx, sh.s, sh.w, opts)
	case "BATCH":
		if sh.batch != nil {
			return errors.New("a batch is already open")
		}
		sh.batch = sh.s.NewBatch()
	case "COMMIT":
		if sh.batch == nil {
			return errors.New("no open batch")
		}
		n := sh.batch.Len()
		if err := sh.batch.Write(ctx); err != nil {
			return err
		}
		sh.batch = nil
		fmt.Fprintf(sh.w, "applied %d operations\n", n)
	case "ROLLBACK":
		if sh.batch == nil {
			return errors.New("no open batch")
		}
		sh.batch = nil
	default:
		return fmt.Errorf("unknown command %q", parts[0])
	}
	return nil
}

func parseShellScan(args []string) (redisdown.IteratorOptions, error) {
	opts := redisdown.IteratorOptions{HighWaterMark: viper.GetInt("hwm")}
	for len(args) > 0 {
		switch strings.ToUpper(args[0]) {
		case "RANGE":
			if len(args) < 3 {
				return opts, errors.New("usage: SCAN RANGE start end")
			}
			opts.Gte, opts.Lt = args[1], args[2]
			args = args[3:]
		case "LIMIT":
			if len(args) < 2 {
				return opts, errors.New("usage: SCAN LIMIT n")
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return opts, fmt.Errorf("invalid limit %q", args[1])
			}
			opts.Limit = n
			args = args[2:]
		default:
			return opts, fmt.Errorf("unexpected %q", args[0])
		}
	}
	return opts, nil
}
