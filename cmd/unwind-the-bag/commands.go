package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/colorfulnotion/securethebag/bag"
	"github.com/colorfulnotion/securethebag/bagerrors"
	"github.com/colorfulnotion/securethebag/common"
	"github.com/colorfulnotion/securethebag/config"
	"github.com/colorfulnotion/securethebag/ledger"
	"github.com/colorfulnotion/securethebag/log"
	"github.com/colorfulnotion/securethebag/puzzles"
	"github.com/colorfulnotion/securethebag/storage"
	"github.com/colorfulnotion/securethebag/targets"
	"github.com/colorfulnotion/securethebag/telemetry"
	"github.com/colorfulnotion/securethebag/types"
	"github.com/colorfulnotion/securethebag/unwind"
	"github.com/spf13/cobra"
)

type app struct {
	cfg      types.CommandConfig
	out      io.Writer
	shutdown telemetry.ShutdownFunc
}

// bagInputs is everything a tree is derived from.
type bagInputs struct {
	genesis common.Hash
	assetID common.Hash
	targets []types.Target
	wrapper puzzles.Wrapper
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	var rootCmd = &cobra.Command{
		Use:   "unwind-the-bag",
		Short: "Secure-the-bag commitment tree builder and unwinder",
		Long: `Rebuilds the commitment tree of a secured bag of CATs from its target list
and lists, root side first, the coins that still have to be spent before a
recipient's coin exists.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup(cmd.Context()) },
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var unwindCmd = &cobra.Command{
		Use:   "unwind",
		Short: "List the coins to spend to unwind the bag down to each target",
		RunE:  a.run(a.runUnwind),
	}
	addBagFlags(unwindCmd, &a.cfg)
	unwindCmd.Flags().StringArrayVarP(&a.cfg.UnwindTargets, "unwind-target-puzzle-hash", "u", nil, "Inner puzzle hash of a target to unwind (repeatable)")
	unwindCmd.Flags().DurationVar(&a.cfg.QueryTimeout, "query-timeout", unwind.DefaultQueryTimeout, "Timeout for each full node query")
	unwindCmd.Flags().IntVar(&a.cfg.Concurrency, "concurrency", 4, "Targets resolved in parallel")
	unwindCmd.Flags().BoolVar(&a.cfg.DryRun, "dry-run", false, "Resolve against an empty ledger instead of the full node")
	unwindCmd.Flags().BoolVar(&a.cfg.JSONOutput, "json", false, "Print results as JSON")
	unwindCmd.MarkFlagRequired("unwind-target-puzzle-hash")

	var buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the commitment tree and print its root",
		RunE:  a.run(func(context.Context) error { return a.runBuild() }),
	}
	addBagFlags(buildCmd, &a.cfg)

	var treeCmd = &cobra.Command{
		Use:   "tree",
		Short: "Render the commitment tree",
		RunE:  a.run(func(context.Context) error { return a.runTree() }),
	}
	addBagFlags(treeCmd, &a.cfg)
	treeCmd.Flags().IntVar(&a.cfg.MaxChildren, "max-children", 10, "Children shown per node (0 = all)")

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.cfg.ChiaRoot, "chia-root", "", "Node root directory (default $CHIA_ROOT or ~/.chia/mainnet)")
	rootCmd.PersistentFlags().StringVar(&a.cfg.LogLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&a.cfg.LogJson, "log-json", false, "Log as JSON")
	rootCmd.PersistentFlags().StringVar(&a.cfg.DebugModules, "debug", "", "Debug modules to enable, e.g. unwind_mod,ledger_mod or all")
	rootCmd.PersistentFlags().StringVar(&a.cfg.OTLPEndpoint, "otlp-endpoint", "", "OTLP/HTTP endpoint for traces, e.g. http://localhost:4318")

	rootCmd.AddCommand(unwindCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(treeCmd)
	return rootCmd
}

func addBagFlags(cmd *cobra.Command, cfg *types.CommandConfig) {
	cmd.Flags().StringVarP(&cfg.GenesisCoinID, "genesis-coin-id", "g", "", "ID of the coin that was spent to create the secured bag")
	cmd.Flags().StringVarP(&cfg.TailHash, "tail-hash", "t", "", "TAIL hash / asset id of the CAT (zero hash for a plain bag)")
	cmd.Flags().StringVarP(&cfg.TargetsPath, "secure-the-bag-targets-path", "p", "", "CSV file of targets (inner puzzle hash, amount)")
	cmd.Flags().IntVar(&cfg.LeafWidth, "leaf-width", bag.DefaultWidth, "Children per batch")
	cmd.Flags().StringVar(&cfg.LookupDB, "lookup-db", "", "LevelDB directory caching built lookups")
	cmd.MarkFlagRequired("genesis-coin-id")
	cmd.MarkFlagRequired("tail-hash")
	cmd.MarkFlagRequired("secure-the-bag-targets-path")
}

func (a *app) setup(ctx context.Context) error {
	var err error
	if a.cfg.LogJson {
		err = log.InitJSONLogger(a.cfg.LogLevel, os.Stderr)
	} else {
		err = log.InitLogger(a.cfg.LogLevel)
	}
	if err != nil {
		return err
	}
	log.EnableModules(a.cfg.DebugModules)

	a.shutdown, err = telemetry.InitTracing(ctx, a.cfg.OTLPEndpoint, "unwind-the-bag", Version)
	if err != nil {
		return err
	}
	log.Debug(log.CLIMonitoring, "command config", "cfg", a.cfg.String())
	return nil
}

// run wraps a subcommand so the tracer provider is flushed on every exit,
// errors and the race warning included. Cobra skips post-run hooks when
// RunE fails.
func (a *app) run(fn func(ctx context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if terr := a.teardown(); terr != nil && err == nil {
				err = terr
			}
		}()
		return fn(cmd.Context())
	}
}

func (a *app) teardown() error {
	if a.shutdown == nil {
		return nil
	}
	shutdown := a.shutdown
	a.shutdown = nil
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return shutdown(ctx)
}

func (a *app) inputs() (*bagInputs, error) {
	genesis, err := common.ParseHash(a.cfg.GenesisCoinID)
	if err != nil {
		return nil, fmt.Errorf("--genesis-coin-id: %w", err)
	}
	assetID, err := common.ParseHash(a.cfg.TailHash)
	if err != nil {
		return nil, fmt.Errorf("--tail-hash: %w", err)
	}
	ts, err := targets.Read(a.cfg.TargetsPath)
	if err != nil {
		return nil, err
	}
	wrapper, err := puzzles.NewCachedWrapper(puzzles.NewWrapper(assetID), bag.NodeCount(len(ts), max(a.cfg.LeafWidth, 2))+1)
	if err != nil {
		return nil, err
	}
	return &bagInputs{genesis: genesis, assetID: assetID, targets: ts, wrapper: wrapper}, nil
}

// loadTree builds the tree, or loads it from --lookup-db when it was built
// before with the same inputs.
func (a *app) loadTree(in *bagInputs) (*bag.Tree, error) {
	if a.cfg.LookupDB == "" {
		return bag.NewTree(in.targets, a.cfg.LeafWidth, in.wrapper, in.genesis)
	}

	db, err := storage.NewPersistenceStore(a.cfg.LookupDB)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	store := storage.NewLookupStore(db)
	key := storage.LookupKey(in.genesis, in.assetID, targets.Digest(in.targets), a.cfg.LeafWidth)

	l, found, err := store.Load(key)
	if err != nil {
		log.Warn(log.StorageMonitoring, "stored lookup unusable, rebuilding", "key", key, "err", err)
	} else if found {
		return bag.TreeFromLookup(l, in.wrapper)
	}

	tree, err := bag.NewTree(in.targets, a.cfg.LeafWidth, in.wrapper, in.genesis)
	if err != nil {
		return nil, err
	}
	if err := store.Save(key, tree.Lookup); err != nil {
		return nil, err
	}
	return tree, nil
}

func (a *app) oracle() (ledger.Oracle, error) {
	if a.cfg.DryRun {
		return ledger.NewMemory(), nil
	}
	root, err := config.ResolveRoot(a.cfg.ChiaRoot)
	if err != nil {
		return nil, err
	}
	nodeCfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	tlsCfg, err := nodeCfg.TLSConfig()
	if err != nil {
		return nil, err
	}
	log.Debug(log.LedgerMonitoring, "using full node", "url", nodeCfg.RPCURL(), "root", root)
	return ledger.NewFullNode(nodeCfg.RPCURL(), ledger.WithTLSConfig(tlsCfg)), nil
}

func (a *app) runBuild() error {
	in, err := a.inputs()
	if err != nil {
		return err
	}
	tree, err := a.loadTree(in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "targets:          %d\n", len(in.targets))
	fmt.Fprintf(a.out, "targets digest:   %s\n", targets.Digest(in.targets))
	fmt.Fprintf(a.out, "root puzzle hash: %s\n", tree.Root)
	fmt.Fprintf(a.out, "root outer hash:  %s\n", tree.RootOuter)
	fmt.Fprintf(a.out, "total amount:     %d\n", tree.RootAmount)
	fmt.Fprintf(a.out, "root coin id:     %s\n", tree.RootCoinID)
	fmt.Fprintf(a.out, "depth:            %d\n", tree.Lookup.Depth())
	fmt.Fprintf(a.out, "nodes:            %d\n", tree.Lookup.Len())
	return nil
}

func (a *app) runTree() error {
	in, err := a.inputs()
	if err != nil {
		return err
	}
	tree, err := a.loadTree(in)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, bag.Render(tree.Lookup, a.cfg.MaxChildren))
	return nil
}

func (a *app) runUnwind(ctx context.Context) error {
	in, err := a.inputs()
	if err != nil {
		return err
	}
	unwindTargets := make([]common.Hash, len(a.cfg.UnwindTargets))
	for i, s := range a.cfg.UnwindTargets {
		if unwindTargets[i], err = common.ParseHash(s); err != nil {
			return fmt.Errorf("--unwind-target-puzzle-hash: %w", err)
		}
	}
	tree, err := a.loadTree(in)
	if err != nil {
		return err
	}
	oracle, err := a.oracle()
	if err != nil {
		return err
	}

	r := unwind.NewResolver(oracle, in.wrapper, unwind.WithQueryTimeout(a.cfg.QueryTimeout))
	results, err := r.UnwindAll(ctx, in.genesis, tree.Lookup, unwindTargets, a.cfg.Concurrency)
	if stats, ok := oracle.(*ledger.FullNode); ok {
		log.Debug(log.LedgerMonitoring, "full node stats", "stats", stats.GetStats())
	}
	if err != nil {
		if bagerrors.IsTransient(err) {
			return fmt.Errorf("%w (retry the unwind)", err)
		}
		return err
	}

	if a.cfg.JSONOutput {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			a.printResult(res)
		}
	}

	for _, res := range results {
		if warning := res.Warning(); warning != nil {
			return warning
		}
	}
	return nil
}

func (a *app) printResult(res *unwind.Result) {
	fmt.Fprintf(a.out, "target %s: %s\n", res.Target, res.State)
	if res.State == unwind.StateFoundSpentConflict {
		fmt.Fprintln(a.out, raceWarning)
		fmt.Fprintf(a.out, "spent coin: %s\n", res.SpentCoin)
		return
	}
	for _, id := range res.Plan {
		fmt.Fprintln(a.out, id)
	}
}
