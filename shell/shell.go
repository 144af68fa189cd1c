// Package shell is an interactive console for configuring and running
// identification experiments without restarting the binary.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"github.com/Tiramister/CSAR/config"
	"github.com/Tiramister/CSAR/runner"
)

type ShellController struct {
	l   *readline.Instance
	out io.Writer

	cfg *config.Config

	lastAgg     *runner.Aggregate
	lastResults []runner.TrialResult
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("uniform"),
		readline.PcItem("graphic",
			readline.PcItem("cycle"),
			readline.PcItem("path"),
			readline.PcItem("complete"),
			readline.PcItem("edges"),
		),
		readline.PcItem("family",
			readline.PcItem("normal"),
			readline.PcItem("bernoulli"),
		),
		readline.PcItem("means"),
		readline.PcItem("stddev"),
		readline.PcItem("delta"),
		readline.PcItem("reps"),
		readline.PcItem("threads"),
		readline.PcItem("budget"),
		readline.PcItem("seeds"),
		readline.PcItem("run"),
		readline.PcItem("show"),
		readline.PcItem("hist"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func NewShellController(cfg *config.Config) *ShellController {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mcsar>\033[0m ",
		HistoryFile:     "/tmp/csar_readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		AutoComplete:        completer(),
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	return &ShellController{l: l, out: l.Stderr(), cfg: cfg}
}

func (sc *ShellController) showMessage(msg string) {
	io.WriteString(sc.out, msg)
	io.WriteString(sc.out, "\n")
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func usage(w io.Writer) {
	io.WriteString(w, "commands:\n")
	io.WriteString(w, "uniform <arms> <rank> - identify the top <rank> of <arms> arms\n")
	io.WriteString(w, "graphic <cycle|path|complete> <vertices> - identify a max spanning tree\n")
	io.WriteString(w, "graphic edges <0-1,1-2,...> - same, on an explicit edge list\n")
	io.WriteString(w, "family <normal|bernoulli> - reward distribution family\n")
	io.WriteString(w, "means <m1,m2,...> - true means, or 'linear' for n, n-1, ..., 1\n")
	io.WriteString(w, "stddev <s> - reward stddev (normal family)\n")
	io.WriteString(w, "delta <d> - confidence budget, in (0,1)\n")
	io.WriteString(w, "reps <n> - number of independent trials\n")
	io.WriteString(w, "threads <n> - worker goroutines; 0 = NumCPU\n")
	io.WriteString(w, "budget <n> - per-trial round cap; 0 = unlimited\n")
	io.WriteString(w, "seeds <path> - load/store per-trial seeds at <path>\n")
	io.WriteString(w, "run - run the configured experiment\n")
	io.WriteString(w, "show - show the current configuration\n")
	io.WriteString(w, "hist - histogram of sample counts from the last run\n")
	io.WriteString(w, "exit - leave the shell\n")
}

func (sc *ShellController) setUniform(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: uniform <arms> <rank>")
	}
	arms, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	rank, err := strconv.Atoi(args[1])
	if err != nil {
		return err
	}
	sc.cfg.Matroid = "uniform"
	sc.cfg.Arms = arms
	sc.cfg.Rank = rank
	return nil
}

func (sc *ShellController) setGraphic(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: graphic <shape> <vertices> | graphic edges <list>")
	}
	sc.cfg.Matroid = "graphic"
	if args[0] == "edges" {
		sc.cfg.Edges = args[1]
		return nil
	}
	vertices, err := strconv.Atoi(args[1])
	if err != nil {
		return err
	}
	sc.cfg.Shape = args[0]
	sc.cfg.Vertices = vertices
	sc.cfg.Edges = ""
	return nil
}

func (sc *ShellController) runExperiment() error {
	if err := sc.cfg.Validate(); err != nil {
		return err
	}
	ex, err := runner.New(sc.cfg)
	if err != nil {
		return err
	}
	if basis := ex.TrueBasis(); len(basis) > 0 {
		sc.showMessage(fmt.Sprintf("true basis: %v", basis))
	} else {
		sc.showMessage("instance has no full-rank basis")
	}

	agg, results, err := ex.Run(context.Background())
	if err != nil {
		return err
	}
	sc.lastAgg = agg
	sc.lastResults = results
	sc.showMessage(agg.String())
	return nil
}

func (sc *ShellController) showConfig() {
	c := sc.cfg
	var ss strings.Builder
	switch c.Matroid {
	case "uniform":
		fmt.Fprintf(&ss, "matroid: uniform (%d arms, rank %d)\n", c.Arms, c.Rank)
	case "graphic":
		if c.Edges != "" {
			fmt.Fprintf(&ss, "matroid: graphic (edges %s)\n", c.Edges)
		} else {
			fmt.Fprintf(&ss, "matroid: graphic (%s on %d vertices)\n", c.Shape, c.Vertices)
		}
	}
	fmt.Fprintf(&ss, "rewards: %s, means %s", c.Family, c.Means)
	if c.Family == "normal" {
		fmt.Fprintf(&ss, ", stddev %g", c.Stddev)
	}
	fmt.Fprintf(&ss, "\ndelta: %g\n", c.Delta)
	fmt.Fprintf(&ss, "repetitions: %d, threads: %d, budget: %d\n",
		c.Repetitions, c.Threads, c.MaxRounds)
	if c.SeedFile != "" {
		fmt.Fprintf(&ss, "seed file: %s\n", c.SeedFile)
	}
	sc.showMessage(strings.TrimRight(ss.String(), "\n"))
}

func (sc *ShellController) showHistogram() error {
	if len(sc.lastResults) == 0 {
		return errors.New("no finished run yet; use `run` first")
	}
	return runner.PullHistogram(sc.out, sc.lastResults)
}

func setInt(dst *int, args []string, what string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <n>", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, args []string, what string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <x>", what)
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return err
	}
	*dst = x
	return nil
}

func (sc *ShellController) handle(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	var err error
	switch cmd {
	case "uniform":
		err = sc.setUniform(args)
	case "graphic":
		err = sc.setGraphic(args)
	case "family":
		if len(args) != 1 {
			err = errors.New("usage: family <normal|bernoulli>")
		} else {
			sc.cfg.Family = args[0]
		}
	case "means":
		if len(args) != 1 {
			err = errors.New("usage: means <m1,m2,...|linear>")
		} else {
			sc.cfg.Means = args[0]
		}
	case "stddev":
		err = setFloat(&sc.cfg.Stddev, args, "stddev")
	case "delta":
		err = setFloat(&sc.cfg.Delta, args, "delta")
	case "reps":
		err = setInt(&sc.cfg.Repetitions, args, "reps")
	case "threads":
		err = setInt(&sc.cfg.Threads, args, "threads")
	case "budget":
		err = setInt(&sc.cfg.MaxRounds, args, "budget")
	case "seeds":
		if len(args) != 1 {
			err = errors.New("usage: seeds <path>")
		} else {
			sc.cfg.SeedFile = args[0]
		}
	case "run":
		err = sc.runExperiment()
	case "show":
		sc.showConfig()
	case "hist":
		err = sc.showHistogram()
	case "help":
		usage(sc.out)
	case "exit", "quit":
		return true
	default:
		err = fmt.Errorf("unknown command %q; try `help`", cmd)
	}
	if err != nil {
		sc.showError(err)
	}
	return false
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		if sc.handle(strings.TrimSpace(line)) {
			sig <- syscall.SIGINT
			break
		}
	}
	log.Debug().Msg("exiting readline loop")
}
