/*
	The launcher wires together the safety-rules CLI: flags, logging setup,
	the secure store at the data directory, and the operator commands
	(keygen, state, init).
*/

package launcher

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-safetyrules/flags"
	"github.com/rony4d/go-safetyrules/integration"
	"github.com/rony4d/go-safetyrules/inter"
	"github.com/rony4d/go-safetyrules/inter/validatorpk"
	"github.com/rony4d/go-safetyrules/logger"
	"github.com/rony4d/go-safetyrules/safetyrules"
	"github.com/rony4d/go-safetyrules/secstore"
)

var (
	// Git SHA1 commit hash of the release (set via linker flags).
	gitCommit = ""

	app = flags.NewApp(gitCommit, "the safety-rules operator command line interface")
)

func init() {
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.SafetyFlags()...)
	app.Commands = []cli.Command{
		{
			Name:   "keygen",
			Usage:  "Provision the secure store: author identity, consensus key, waypoint",
			Action: keygen,
			Flags: []cli.Flag{
				cli.Uint64Flag{
					Name:  "author",
					Usage: "Validator ID of this node",
				},
				cli.StringFlag{
					Name:  "waypoint",
					Usage: "Trust anchor in <version>:<hex> form",
				},
			},
		},
		{
			Name:   "state",
			Usage:  "Print the consensus-state snapshot of the local store",
			Action: state,
		},
		{
			Name:      "init",
			Usage:     "Run epoch initialization against an RLP-encoded epoch-change proof file",
			Action:    initialize,
			ArgsUsage: "<proof-file>",
		},
	}
}

// Launch runs the CLI with the given arguments.
func Launch(args []string) error {
	return app.Run(args)
}

func makeLogger(ctx *cli.Context) (*logrus.Logger, error) {
	log, err := logger.New(
		ctx.GlobalInt("log.verbosity"),
		ctx.GlobalString("log.format"),
		ctx.GlobalBool("log.color"),
	)
	if err != nil {
		return nil, err
	}
	if dsn := ctx.GlobalString("sentry.dsn"); dsn != "" {
		if err := logger.AddSentryHook(log, dsn); err != nil {
			return nil, err
		}
	}
	return log, nil
}

func openStore(ctx *cli.Context) (*secstore.LevelDBStore, error) {
	datadir := ctx.GlobalString("datadir")
	if datadir == "" {
		return nil, fmt.Errorf("--datadir is required")
	}
	return secstore.NewLevelDBStore(filepath.Join(datadir, "secure"))
}

func makeConfig(ctx *cli.Context) (safetyrules.Config, error) {
	preset, err := integration.GetPresetByName(ctx.GlobalString("preset"))
	if err != nil {
		return safetyrules.Config{}, err
	}
	cfg := preset.Config
	// explicit flags override the preset
	if ctx.GlobalIsSet("verify-proposal-signature") {
		cfg.VerifyVoteProposalSignature = ctx.GlobalBool("verify-proposal-signature")
	}
	if ctx.GlobalIsSet("export-consensus-key") {
		cfg.ExportConsensusKey = ctx.GlobalBool("export-consensus-key")
	}
	if ctx.GlobalIsSet("decoupled-execution") {
		cfg.DecoupledExecution = ctx.GlobalBool("decoupled-execution")
	}
	return cfg, nil
}

func makeEngine(ctx *cli.Context) (*safetyrules.SafetyRules, *secstore.LevelDBStore, error) {
	log, err := makeLogger(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	engine, err := safetyrules.NewFromStore(store, cfg, log)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return engine, store, nil
}

func keygen(ctx *cli.Context) error {
	log, err := makeLogger(ctx)
	if err != nil {
		return err
	}
	waypoint, err := inter.WaypointFromString(ctx.String("waypoint"))
	if err != nil {
		return err
	}
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	author := idx.ValidatorID(ctx.Uint64("author"))
	if _, err := safetyrules.InitializeStorage(store, log, author, priv, waypoint); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "author: %d\nconsensus public key: %s\nwaypoint: %s\n",
		author, validatorpk.FromEd25519(pub).String(), waypoint.String())
	return nil
}

func state(ctx *cli.Context) error {
	engine, store, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshot, err := engine.ConsensusState()
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

func initialize(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: the proof file")
	}
	raw, err := ioutil.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	var proof inter.EpochChangeProof
	if err := rlp.DecodeBytes(raw, &proof); err != nil {
		return fmt.Errorf("decoding proof: %w", err)
	}

	engine, store, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := engine.Initialize(&proof); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "initialized")
	return nil
}
