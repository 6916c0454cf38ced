package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/phil-mansfield/nonaffine"
	"github.com/phil-mansfield/nonaffine/io"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
	stderr    *os.File
}

// Fatal reports err, closes the files inside FileGroup so that the profile
// is flushed, and exits.
func (fg *FileGroup) Fatal(err error) {
	fg.report(err)
	fg.Close()
	os.Exit(1)
}

// report logs err. If the log has been redirected to a file, err is also
// written to stderr.
func (fg *FileGroup) report(err error) {
	log.Print(err.Error())
	if fg.log != nil && fg.stderr != nil {
		fmt.Fprintf(fg.stderr, "Error: %s\n", err.Error())
	}
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	// The main function figures out which mode is being run, does basic
	// input sanitization and calls the secondary main function for that
	// mode. Every failure ends the process through log.Fatal or
	// FileGroup.Fatal.

	var (
		deltaStr, batchStr, exampleConfig, synthesize string
	)
	vars := map[string]*string{
		"Delta":         &deltaStr,
		"Batch":         &batchStr,
		"ExampleConfig": &exampleConfig,
		"Synthesize":    &synthesize,
	}

	shared := io.DefaultDeltaWrapper().Delta
	var (
		cutoff2     float64
		deformation string
		rate        float64
		snapshots   int
	)

	flag.StringVar(
		&deltaStr, "Delta", "",
		"Configuration file for [Delta] mode.",
	)
	flag.StringVar(
		&batchStr, "Batch", "",
		"Configuration file for [Batch] mode.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. Accepted arguments are 'Delta' and 'Batch'.",
	)
	flag.StringVar(
		&synthesize, "Synthesize", "",
		"Writes a small example trajectory of four particles on a unit "+
			"square to the given file.",
	)

	flag.IntVar(
		&shared.Threads, "Threads", runtime.NumCPU(),
		"Number of threads used. Default is the number of logical cores.",
	)
	flag.Float64Var(
		&cutoff2, "Cutoff2", float64(nonaffine.DefaultCutoff2),
		"Squared neighbor distance.",
	)
	flag.StringVar(
		&shared.Index, "Index", "AllPairs",
		"Neighbor search method, AllPairs or Grid.",
	)
	flag.BoolVar(
		&shared.Strict, "Strict", false,
		"Fail on coincident particles in the final snapshot.",
	)
	flag.StringVar(
		&shared.OnDegenerate, "OnDegenerate", "Error",
		"Result if no particle has neighbors: Error, Zero or NaN.",
	)
	flag.StringVar(
		&shared.ParticleOutput, "Particles", "",
		"Writes per-particle contributions to the given file.",
	)
	flag.StringVar(&shared.LogFile, "Log", "",
		"Location to write log statements to. Default is stderr.")
	flag.StringVar(&shared.ProfileFile, "PProf", "",
		"Location to write profile to. Default is no profiling.")

	flag.StringVar(
		&deformation, "Deformation", "Bulge",
		"Deformation used by [Synthesize]: Dilation, Shear or Bulge.",
	)
	flag.Float64Var(
		&rate, "Rate", 0.05, "Deformation per snapshot used by [Synthesize].",
	)
	flag.IntVar(
		&snapshots, "Snapshots", 5, "Snapshots written by [Synthesize].",
	)

	flag.Usage = func() {
		fmt.Fprintf(
			os.Stderr, "Usage: %s [flags] trajectory initial_step interval\n"+
				"       %s -Delta config | -Batch config | "+
				"-ExampleConfig type | -Synthesize file\n",
			os.Args[0], os.Args[0],
		)
		flag.PrintDefaults()
	}

	flag.Parse()
	shared.Cutoff2 = cutoff2

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "":
		args := flag.Args()
		if len(args) != 3 {
			flag.Usage()
			log.Fatal("Expected a trajectory, an initial step and an interval.")
		}
		shared.Input = args[0]
		shared.InitialStep, err = parseStep("initial_step", args[1])
		if err != nil {
			log.Fatal(err.Error())
		}
		shared.Interval, err = parseStep("interval", args[2])
		if err != nil {
			log.Fatal(err.Error())
		}
		if err := shared.Check(); err != nil {
			log.Fatal(err.Error())
		}
		deltaMain(&shared)

	case "Delta":
		con, err := io.ReadDeltaConfig(deltaStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		deltaMain(con)

	case "Batch":
		con, err := io.ReadBatchConfig(batchStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		batchMain(con)

	case "ExampleConfig":
		switch exampleConfig {
		case "Delta":
			fmt.Println(io.ExampleDeltaFile)
		case "Batch":
			fmt.Println(io.ExampleBatchFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Delta' and 'Batch'.",
			)
		}

	case "Synthesize":
		synthesizeMain(synthesize, deformation, float32(rate), snapshots)

	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive error
// if the user provided more than one mode flag. An empty name means that the
// trajectory and steps were given as arguments.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", nil
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but nonaffine "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func parseStep(name, s string) (int, error) {
	n, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return 0, fmt.Errorf("Cannot parse %s '%s': %s", name, s, err.Error())
	}
	return int(n), nil
}

// setupFiles redirects logging and starts profiling if requested.
func setupFiles(con *io.SharedConfig) *FileGroup {
	fg := &FileGroup{stderr: os.Stderr}

	if con.ValidLogFile() {
		var err error
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	if con.ValidProfileFile() {
		var err error
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			fg.Fatal(err)
		}
		pprof.StartCPUProfile(fg.prof)
	}

	return fg
}

// options converts shared configuration values into calculation options.
func options(
	fg *FileGroup, con *io.SharedConfig,
) ([]nonaffine.FinderOption, []nonaffine.DeltaOption, nonaffine.Degenerate) {
	index, err := nonaffine.ParseIndexType(con.Index)
	if err != nil {
		fg.Fatal(err)
	}
	degenerate, err := nonaffine.ParseDegenerate(con.OnDegenerate)
	if err != nil {
		fg.Fatal(err)
	}

	fOpts := []nonaffine.FinderOption{
		nonaffine.Cutoff2(float32(con.Cutoff2)),
		nonaffine.Index(index),
	}
	dOpts := []nonaffine.DeltaOption{
		nonaffine.Threads(con.Threads),
		nonaffine.OnDegenerate(degenerate),
	}
	if con.Strict {
		dOpts = append(dOpts, nonaffine.Strict())
	}
	return fOpts, dOpts, degenerate
}

func deltaMain(con *io.DeltaConfig) {
	fg := setupFiles(&con.SharedConfig)
	defer fg.Close()

	fOpts, dOpts, degenerate := options(fg, &con.SharedConfig)
	step := nonaffine.Step{Initial: con.InitialStep, Interval: con.Interval}

	log.Printf(
		"Reading %s: initial step %d, final step %d",
		con.Input, step.Initial, step.Final(),
	)
	p, err := nonaffine.ProfileFile(con.Input, step, fOpts, dOpts)
	if err != nil {
		fg.Fatal(err)
	}

	delta, err := p.Delta(degenerate)
	if err != nil {
		fg.Fatal(err)
	}

	s := p.Summarize()
	log.Printf(
		"%d of %d particles have neighbors (%.3g on average). "+
			"Contributions: mean %.4g, std %.4g, range [%.4g, %.4g]",
		s.WithNeighbors, s.Particles, s.MeanNeighbors,
		s.Mean, s.StdDev, s.Min, s.Max,
	)

	if con.ValidParticleOutput() {
		if err := nonaffine.WriteProfile(con.ParticleOutput, p); err != nil {
			fg.Fatal(err)
		}
	}

	printDelta(delta)
}

func batchMain(con *io.BatchConfig) {
	fg := setupFiles(&con.SharedConfig)
	defer fg.Close()

	fOpts, dOpts, _ := options(fg, &con.SharedConfig)
	steps, err := nonaffine.ReadSteps(con.Steps)
	if err != nil {
		fg.Fatal(err)
	}

	b := &nonaffine.Batch{
		Input: con.Input, Steps: steps, FinderOpts: fOpts, DeltaOpts: dOpts,
	}
	if err := b.Run(); err != nil {
		fg.Fatal(err)
	}
	if err := b.Write(con.Output); err != nil {
		fg.Fatal(err)
	}
	for i, delta := range b.Deltas {
		if delta >= nonaffine.AnomalyThreshold {
			warnAnomaly(delta, steps[i])
		}
	}

	if con.ValidPlotFile() {
		b.Plot(con.PlotFile)
	}
}

func synthesizeMain(fname, name string, rate float32, snapshots int) {
	if snapshots < 2 {
		log.Fatalf("Need at least 2 snapshots, but %d were requested.", snapshots)
	}
	def, err := nonaffine.ParseDeformation(name, rate)
	if err != nil {
		log.Fatal(err.Error())
	}
	hd, snaps := nonaffine.SquareTrajectory(snapshots, 5, def)

	w, err := io.Create(fname)
	if err != nil {
		log.Fatal(err.Error())
	}
	if err := io.WriteTrajectory(w, hd, snaps); err != nil {
		log.Fatal(err.Error())
	}
	if err := w.Close(); err != nil {
		log.Fatal(err.Error())
	}
}

// printDelta writes delta to stdout in plain decimal notation.
func printDelta(delta float32) {
	if delta >= nonaffine.AnomalyThreshold {
		fmt.Fprintf(
			os.Stderr, "Warning: delta = %s is anomalously large.\n",
			formatDelta(delta),
		)
	}
	fmt.Println(formatDelta(delta))
}

func warnAnomaly(delta float32, step nonaffine.Step) {
	fmt.Fprintf(
		os.Stderr, "Warning: delta = %s for initial step %d, interval %d "+
			"is anomalously large.\n",
		formatDelta(delta), step.Initial, step.Interval,
	)
}

func formatDelta(delta float32) string {
	return strconv.FormatFloat(float64(delta), 'f', -1, 32)
}
