package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/deanSLAC/eiwyg/pkg/session"
	"github.com/deanSLAC/eiwyg/pkg/widget"
)

// runInteractive drives the readline command loop until quit or EOF.
func runInteractive(dash Dashboard, widgets []widget.Widget, sess *session.Session) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "eiwyg> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	byID := make(map[string]widget.Widget, len(widgets))
	for _, w := range widgets {
		byID[w.ID()] = w
	}

	out := rl.Stdout()
	fmt.Fprintf(out, "%s - %d widgets. Type 'help' for commands.\n", dash.Title, len(widgets))

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help", "?":
			printHelp(out)

		case "list", "l":
			for _, w := range widgets {
				fmt.Fprintf(out, "  %-12s %s\n", w.ID(), w.Render())
			}

		case "state", "s":
			fmt.Fprintf(out, "session: %s\n", sess.State())

		case "put", "p":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: put <pv> <value>")
				continue
			}
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				fmt.Fprintf(out, "bad value %q\n", args[1])
				continue
			}
			if err := sess.Put(args[0], value); err != nil {
				fmt.Fprintf(out, "put failed: %v\n", err)
			}

		case "move", "m":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: move <widget-id> <target>")
				continue
			}
			m, ok := byID[args[0]].(*widget.Motor)
			if !ok {
				fmt.Fprintf(out, "%q is not a motor widget\n", args[0])
				continue
			}
			target, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				fmt.Fprintf(out, "bad target %q\n", args[1])
				continue
			}
			if err := m.Move(target); err != nil {
				fmt.Fprintf(out, "move failed: %v\n", err)
			}

		case "select":
			if len(args) != 2 {
				fmt.Fprintln(out, "usage: select <widget-id> <index>")
				continue
			}
			e, ok := byID[args[0]].(*widget.EnumSelector)
			if !ok {
				fmt.Fprintf(out, "%q is not an enum selector\n", args[0])
				continue
			}
			index, err := strconv.Atoi(args[1])
			if err != nil {
				fmt.Fprintf(out, "bad index %q\n", args[1])
				continue
			}
			if err := e.Select(index); err != nil {
				fmt.Fprintf(out, "select failed: %v\n", err)
			}

		case "quit", "q", "exit":
			return nil

		default:
			fmt.Fprintf(out, "unknown command %q, try 'help'\n", cmd)
		}
	}
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `Commands:
  list, l                   render all widgets
  state, s                  show session state
  put <pv> <value>          write a value to a PV
  move <widget-id> <target> move a motor widget
  select <widget-id> <idx>  set an enum selector
  help, ?                   this help
  quit, q                   exit
`)
}
