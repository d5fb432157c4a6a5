package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/scarv/xcsim/axi"
	"github.com/scarv/xcsim/config"
	"github.com/scarv/xcsim/cosim"
	"github.com/scarv/xcsim/dut/agent"
	"github.com/scarv/xcsim/mem"
	"github.com/scarv/xcsim/mem/srec"
	"github.com/scarv/xcsim/monitoring"
	"github.com/scarv/xcsim/sim"
	"github.com/scarv/xcsim/wave"
)

// Process exit codes of the run command.
const (
	ExitPass    = 0
	ExitFail    = 1
	ExitTimeout = 2
	ExitError   = 3
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the design under test until it passes, fails or times out.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			atexit.Exit(runSimulation(cmd))
		},
	}

	flags := cmd.Flags()
	flags.StringP("image", "m", "", "S-record memory image to load")
	flags.StringP("wave", "w", "",
		"record signals, .vcd for a VCD file, otherwise a sqlite database")
	flags.Uint64("timeout", 0, "maximum number of steps, 0 for no limit")
	flags.String("pass-address", "", "hex read address that ends the run with a pass")
	flags.String("fail-address", "", "hex read address that ends the run with a fail")
	flags.String("uart-address", "", "hex address of the byte output device")
	flags.Uint64("reset-steps", 0, "number of steps the design is held in reset")
	flags.String("bus-log", "", "log every bus transaction to a file, - for stderr")
	flags.Bool("monitor", false, "serve the monitoring page while running")
	flags.Int("monitor-port", 0, "port of the monitoring server, 0 for any")
	flags.Bool("open-browser", false, "open the monitoring page in a browser")
	flags.String("env-file", "", "read the configuration from this env file")
	flags.Int64("seed", 1, "seed of the bus agent")
	flags.Int("reads", 1000, "number of checked reads the bus agent issues")
	flags.Int("writes", 1000, "number of writes the bus agent issues")

	return cmd
}

// loadConfig layers the defaults, the env file and environment, and the
// flags that were set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Defaults()
	flags := cmd.Flags()

	envFile, _ := flags.GetString("env-file")

	vars, err := config.ReadEnv(envFile)
	if err != nil {
		return cfg, err
	}

	err = cfg.ApplyEnv(vars)
	if err != nil {
		return cfg, err
	}

	if flags.Changed("image") {
		cfg.Image, _ = flags.GetString("image")
	}

	if flags.Changed("wave") {
		cfg.Wave, _ = flags.GetString("wave")
	}

	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetUint64("timeout")
	}

	if flags.Changed("reset-steps") {
		cfg.ResetSteps, _ = flags.GetUint64("reset-steps")
	}

	addresses := []struct {
		flag  string
		value *uint32
	}{
		{"pass-address", &cfg.PassAddress},
		{"fail-address", &cfg.FailAddress},
		{"uart-address", &cfg.UARTAddress},
	}

	for _, a := range addresses {
		if !flags.Changed(a.flag) {
			continue
		}

		s, _ := flags.GetString(a.flag)

		*a.value, err = config.ParseAddress(s)
		if err != nil {
			return cfg, fmt.Errorf("--%s: %w", a.flag, err)
		}
	}

	return cfg, cfg.Validate()
}

func loadImage(path string) (*mem.Storage, error) {
	if path == "" {
		return mem.NewStorage(), nil
	}

	return srec.Load(path)
}

func openBusLog(path string, stderr io.Writer) (*log.Logger, func(), error) {
	if path == "-" {
		return log.New(stderr, "", 0), func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open bus log: %w", err)
	}

	return log.New(f, "", 0), func() { f.Close() }, nil
}

// runSimulation runs the design and returns the process exit code.
//
//nolint:funlen
func runSimulation(cmd *cobra.Command) int {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	flags := cmd.Flags()

	fail := func(err error) int {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fail(err)
	}

	storage, err := loadImage(cfg.Image)
	if err != nil {
		return fail(err)
	}

	transactor := axi.MakeBuilder().
		WithStorage(storage).
		WithTrapAddress(cfg.UARTAddress).
		WithOutput(stdout).
		Build("Bus")

	seed, _ := flags.GetInt64("seed")
	reads, _ := flags.GetInt("reads")
	writes, _ := flags.GetInt("writes")

	agentBuilder := agent.MakeBuilder().
		WithSeed(seed).
		WithReads(reads).
		WithWrites(writes).
		WithPassAddress(cfg.PassAddress).
		WithFailAddress(cfg.FailAddress).
		WithUARTAddress(cfg.UARTAddress)
	if cfg.Image != "" {
		agentBuilder = agentBuilder.WithImage(storage.Clone())
	}

	model := agentBuilder.Build("Agent")

	simBuilder := cosim.MakeBuilder().
		WithSpec(cfg.Spec()).
		WithModel(model).
		WithTransactor(transactor)

	if cfg.Wave != "" {
		recorder, err := wave.Create(cfg.Wave)
		if err != nil {
			return fail(err)
		}

		defer func() {
			err := recorder.Close()
			if err != nil {
				fmt.Fprintf(stderr, "Error: close wave: %v\n", err)
			}
		}()

		simBuilder = simBuilder.WithRecorder(recorder)
	}

	simulation := simBuilder.Build("Sim")

	busLogPath, _ := flags.GetString("bus-log")
	if busLogPath != "" {
		logger, closeLog, err := openBusLog(busLogPath, stderr)
		if err != nil {
			return fail(err)
		}
		defer closeLog()

		transactor.AcceptHook(axi.NewBusLogger(logger, simulation))
	}

	tracer := axi.NewLatencyTracer(simulation)
	transactor.AcceptHook(tracer)

	var monitor *runMonitor

	withMonitor, _ := flags.GetBool("monitor")
	if withMonitor {
		monitor, err = startMonitor(cmd, simulation, cfg)
		if err != nil {
			return fail(err)
		}

		defer func() {
			_ = monitor.StopServer(context.Background())
		}()
	}

	outcome, err := simulation.Run(commandContext(cmd))

	if monitor != nil {
		monitor.finish()
	}

	if err != nil {
		var protocolErr *axi.ProtocolError
		if errors.As(err, &protocolErr) {
			fmt.Fprintf(stdout, "ERROR: %v\n", err)
			return ExitError
		}

		return fail(err)
	}

	printOutcome(stdout, outcome)
	printSummary(stderr, simulation, model, tracer)

	return exitCode(outcome.Result)
}

// runMonitor is the monitor of one run and the progress bars it shows.
type runMonitor struct {
	*monitoring.Monitor

	bars []*monitoring.ProgressBar
}

// finish takes the bars of the ended run off the page.
func (m *runMonitor) finish() {
	for _, bar := range m.bars {
		m.CompleteProgressBar(bar)
	}
}

func startMonitor(
	cmd *cobra.Command,
	simulation *cosim.Simulation,
	cfg config.Config,
) (*runMonitor, error) {
	flags := cmd.Flags()
	port, _ := flags.GetInt("monitor-port")
	openBrowser, _ := flags.GetBool("open-browser")

	monitor := monitoring.NewMonitor().WithPortNumber(port)
	monitor.RegisterSimulation(simulation)
	monitor.RegisterTrap(simulation.Transactor().Trap())

	steps := monitor.CreateProgressBar("Steps", cfg.Timeout)
	simulation.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		if ctx.Pos == sim.HookPosAfterStep {
			steps.IncrementFinished(1)
		}
	}))

	requests := monitor.TrackQueues(simulation.Transactor(), 0)

	url, err := monitor.StartServer()
	if err != nil {
		return nil, err
	}

	if openBrowser {
		err = monitoring.OpenBrowser(url)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Cannot open browser: %v\n", err)
		}
	}

	return &runMonitor{
		Monitor: monitor,
		bars:    []*monitoring.ProgressBar{steps, requests},
	}, nil
}

func printOutcome(w io.Writer, outcome cosim.Outcome) {
	switch outcome.Result {
	case cosim.ResultPass:
		fmt.Fprintf(w, "PASS: read of 0x%08X at step %d\n",
			outcome.Address, outcome.Step)
	case cosim.ResultFail:
		fmt.Fprintf(w, "FAIL: read of 0x%08X at step %d\n",
			outcome.Address, outcome.Step)
	default:
		fmt.Fprintf(w, "TIMEOUT: no pass or fail address read after %d steps\n",
			outcome.Step+1)
	}
}

func printSummary(
	w io.Writer,
	simulation *cosim.Simulation,
	model *agent.Agent,
	tracer *axi.LatencyTracer,
) {
	for _, state := range simulation.PortStates() {
		s := state.Stats
		fmt.Fprintf(w,
			"%s: %d reads, %d writes, %d read stalls, %d write stalls\n",
			state.Name, s.ReadsResponded, s.WritesCommitted,
			s.ReadRspStalls, s.WriteAddrStalls+s.WriteRspStalls)
	}

	r := tracer.ReadLatency()
	wr := tracer.WriteLatency()
	fmt.Fprintf(w, "read latency: avg %.2f, max %d steps\n", r.Average(), r.Max)
	fmt.Fprintf(w, "write latency: avg %.2f, max %d steps\n", wr.Average(), wr.Max)

	st := model.Stats()
	fmt.Fprintf(w, "%s: %d fetches, %d reads, %d writes, %d mismatches\n",
		model.Name(), st.Fetches, st.Reads, st.Writes, st.Mismatches)
}

func exitCode(r cosim.Result) int {
	switch r {
	case cosim.ResultPass:
		return ExitPass
	case cosim.ResultFail:
		return ExitFail
	default:
		return ExitTimeout
	}
}
