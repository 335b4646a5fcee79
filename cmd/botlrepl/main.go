// Command botlrepl is an interactive top-level for the engine package: a
// readline-driven query/solutions loop built around engine.Solutions'
// synchronous Next/Bindings, since one Engine only ever runs one query at
// a time (no goroutine needed to cancel).
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/rzubek/botl/engine"
	"github.com/rzubek/botl/term"
)

var (
	consultFiles = flag.String("consult-files", "", "Comma-separated files to consult, in order")
	query        = flag.String("query", "", "Initial query to issue")
	interactive  = flag.Bool("interactive", true, "Whether the REPL is interactive")
)

type inputState int

const (
	readingQuery inputState = iota
	enumerateSolutions
)

type ctx struct {
	interrupt chan os.Signal
	engine    *engine.Engine
	readline  *readline.Instance
}

func main() {
	flag.Parse()
	if !*interactive && len(*query) == 0 {
		log.Fatal("No query provided for non-interactive REPL")
	}

	c := ctx{}
	c.interrupt = make(chan os.Signal, 1)
	signal.Notify(c.interrupt, syscall.SIGINT)

	c.engine = engine.New()
	for _, file := range strings.Split(*consultFiles, ",") {
		if len(file) == 0 {
			continue
		}
		consultFile(c.engine, file)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 "?- ",
		HistoryFile:            "/tmp/botlrepl-history",
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer rl.Close()
	c.readline = rl

	c.mainLoop()
}

func consultFile(e *engine.Engine, filename string) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		log.Print(err)
		return
	}
	if err := e.Compile(string(bs)); err != nil {
		log.Print(err)
		return
	}
}

func (c ctx) mainLoop() {
	state := readingQuery
	var solutions *engine.Solutions
	if len(*query) > 0 {
		solutions = c.startQuery(*query)
		state = enumerateSolutions
	}
	if !*interactive {
		hasSolutions := false
		for solutions != nil && solutions.Next() {
			hasSolutions = true
			printSolution(solutions.Bindings(), true)
		}
		if !hasSolutions {
			printSolution(nil, false)
		}
		return
	}
	for {
		switch state {
		default:
			log.Print("Invalid state: ", state)
			return
		case readingQuery:
			q, isClose := c.readQuery()
			if isClose {
				return
			}
			solutions = c.startQuery(q)
			state = enumerateSolutions
		case enumerateSolutions:
			if isClose := c.solutionState(solutions); isClose {
				state = readingQuery
			}
		}
	}
}

func (c ctx) startQuery(q string) *engine.Solutions {
	solutions, err := c.engine.Query(q)
	if err != nil {
		log.Print(err)
		return nil
	}
	return solutions
}

func (c ctx) readQuery() (string, bool) {
	c.readline.SetPrompt("?- ")
	var lines []string
	for {
		line, err := c.readline.Readline()
		if err != nil {
			return "", true
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		lines = append(lines, line)
		if !strings.HasSuffix(line, ".") {
			c.readline.SetPrompt("|  ")
			continue
		}
		break
	}
	query := strings.Join(lines, " ")
	c.readline.SaveHistory(query)
	return query[:len(query)-1], false
}

func printSolution(bindings map[string]term.Term, ok bool) bool {
	if !ok {
		fmt.Println("false.")
		return true
	}
	if len(bindings) == 0 {
		fmt.Println("true")
	} else {
		fmt.Println(bindings)
	}
	return false
}

// solutionState runs one step of enumeration. A query here can't be
// interrupted mid-solve: one Engine only ever runs one Machine at a time,
// so a runaway query is bounded by Engine.StepLimit instead of by a
// ctrl-C. The interrupt channel still closes an idle prompt between
// solutions.
func (c ctx) solutionState(solutions *engine.Solutions) bool {
	if solutions == nil {
		return true
	}
	if !solutions.Next() {
		if err := solutions.Err(); err != nil {
			log.Print(err)
		} else {
			printSolution(nil, false)
		}
		return true
	}
	printSolution(bindingsOf(solutions), true)
	select {
	case <-c.interrupt:
		solutions.Close()
		return true
	default:
	}
	if isClose := c.readCommand(); isClose {
		solutions.Close()
		return true
	}
	return false
}

func bindingsOf(solutions *engine.Solutions) map[string]term.Term {
	out := map[string]term.Term{}
	for name, t := range solutions.Bindings() {
		out[name] = t
	}
	return out
}

func (c ctx) readCommand() bool {
	for {
		c.readline.SetPrompt("")
		line, err := c.readline.Readline()
		if err != nil {
			log.Fatal(err)
			return true
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if line == ";" {
			return false
		}
		if line == "." || line == "" {
			return true
		}
		log.Print("Expecting '.' or ';'")
	}
}
