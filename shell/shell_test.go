package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/Tiramister/CSAR/config"
)

func testController(t *testing.T) (*ShellController, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	if err := cfg.Load(nil); err != nil {
		t.Fatal(err)
	}
	out := &bytes.Buffer{}
	return &ShellController{out: out, cfg: cfg}, out
}

func TestSetters(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)

	is.True(!sc.handle("uniform 8 3"))
	is.Equal(sc.cfg.Matroid, "uniform")
	is.Equal(sc.cfg.Arms, 8)
	is.Equal(sc.cfg.Rank, 3)

	sc.handle("graphic complete 5")
	is.Equal(sc.cfg.Matroid, "graphic")
	is.Equal(sc.cfg.Shape, "complete")
	is.Equal(sc.cfg.Vertices, 5)

	sc.handle("graphic edges 0-1,1-2,2-0")
	is.Equal(sc.cfg.Edges, "0-1,1-2,2-0")

	sc.handle("means 5,4,3")
	sc.handle("delta 0.01")
	sc.handle("reps 42")
	sc.handle("budget 1000")
	is.Equal(sc.cfg.Means, "5,4,3")
	is.Equal(sc.cfg.Delta, 0.01)
	is.Equal(sc.cfg.Repetitions, 42)
	is.Equal(sc.cfg.MaxRounds, 1000)
}

func TestBadCommandsReport(t *testing.T) {
	is := is.New(t)
	sc, out := testController(t)

	for _, line := range []string{
		"uniform 8",
		"delta lots",
		"frobnicate",
		"hist", // nothing has run yet
	} {
		out.Reset()
		is.True(!sc.handle(line))
		is.True(strings.HasPrefix(out.String(), "Error: "))
	}
}

func TestRunAndHist(t *testing.T) {
	is := is.New(t)
	sc, out := testController(t)

	sc.handle("uniform 3 1")
	sc.handle("means 5,1,1")
	sc.handle("reps 10")
	sc.handle("run")
	output := out.String()
	is.True(strings.Contains(output, "true basis: [0]"))
	is.True(strings.Contains(output, "trials: 10"))

	out.Reset()
	sc.handle("hist")
	is.True(out.Len() > 0)
}

func TestExit(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	is.True(sc.handle("exit"))
	is.True(sc.handle("quit"))
	is.True(!sc.handle(""))
}
