// repl.go — the interactive stepper loop.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"

	formulize "github.com/ericdai5/formulize-sub006"
)

const (
	historyFile = ".formulize_history"
	prompt      = "==> "
)

const replHelp = `stepper commands:
  n, next          step forward one position
  b, back          step backward one position
  c, checkpoint    run to the next checkpoint
  o, boundary      run to the next structural boundary
  i VAR INDEX      run until VAR's last checkpoint value equals INDEX
  play [MS]        auto-advance every MS milliseconds (default 250)
  pause            stop auto-advance
  vars             show the variable snapshot at the cursor
  list             show the script with the current highlight
  r, reset         restart from the initial state
  h, help          this text
  q, quit          exit
`

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }

func runREPL(src string, initial formulize.Bindings, log *logrus.Logger) error {
	runner := formulize.NewRunner(formulize.NewEvaluator())
	runner.SetLogger(log)
	if err := runner.Refresh(src, initial); err != nil {
		return err
	}

	fmt.Printf("Formulize %s stepper. Ctrl+D or 'q' exits, 'h' for help.\n", formulize.Version)
	printState(src, runner)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	histPath := filepath.Join(os.TempDir(), historyFile)
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		input, err := line.Prompt(prompt)
		if err != nil { // io.EOF or liner.ErrPromptAborted
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		switch fields[0] {
		case "q", "quit", "exit":
			return nil
		case "h", "help":
			fmt.Print(replHelp)
			continue
		case "n", "next":
			runner.StepForward()
		case "b", "back":
			runner.StepBackward()
		case "c", "checkpoint":
			runner.StepToCheckpoint()
		case "o", "boundary":
			runner.StepToBoundary()
		case "i":
			if len(fields) != 3 {
				fmt.Println(red("usage: i VAR INDEX"))
				continue
			}
			idx, err := strconv.Atoi(fields[2])
			if err != nil {
				fmt.Println(red("INDEX must be an integer"))
				continue
			}
			runner.StepToIndex(fields[1], idx)
		case "play":
			ms := 250
			if len(fields) > 1 {
				if v, err := strconv.Atoi(fields[1]); err == nil && v > 0 {
					ms = v
				}
			}
			runner.Play(time.Duration(ms) * time.Millisecond)
			fmt.Println(blue("playing; 'pause' to stop"))
			continue
		case "pause":
			runner.Pause()
		case "vars":
			printVars(runner)
			continue
		case "list":
			printListing(src, runner)
			continue
		case "r", "reset":
			if err := runner.Refresh(src, initial); err != nil {
				fmt.Println(red(err.Error()))
				continue
			}
		default:
			fmt.Println(red("unknown command; 'h' for help"))
			continue
		}
		printState(src, runner)
	}
}

func printState(src string, r *formulize.Runner) {
	if msg := r.Err(); msg != "" {
		fmt.Println(red(msg))
		return
	}
	st, ok := r.Current()
	if !ok {
		return
	}
	cursor, total := r.Cursor(), len(r.History())
	marker := ""
	if st.Final {
		marker = " " + green("[complete]")
	} else if st.Checkpoint {
		marker = " " + blue("[checkpoint]")
	}
	excerpt := strings.TrimSpace(src[st.Start:min(st.End, len(src))])
	if excerpt == "" {
		excerpt = "(end of script)"
	}
	fmt.Printf("[%d/%d]%s %s\n", cursor, total-1, marker, excerpt)
}

func printVars(r *formulize.Runner) {
	st, ok := r.Current()
	if !ok {
		fmt.Println(red("no state"))
		return
	}
	for _, sym := range st.Vars.Symbols() {
		fmt.Printf("  %-12s %g\n", sym, st.Vars[sym])
	}
}

func printListing(src string, r *formulize.Runner) {
	st, ok := r.Current()
	if !ok {
		return
	}
	off := 0
	for _, raw := range strings.Split(src, "\n") {
		end := off + len(raw)
		if st.Start >= off && st.Start <= end && st.End > st.Start {
			fmt.Println(green("> " + raw))
		} else {
			fmt.Println("  " + raw)
		}
		off = end + 1
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
