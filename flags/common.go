package flags

import (
	cli "gopkg.in/urfave/cli.v1"
)

// CommonFlags returns the base set of CLI flags shared across commands.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "datadir",
			Usage: "Data directory holding the secure safety store",
			Value: "~/.safetyrules",
		},
		cli.StringFlag{
			Name:  "log.format",
			Usage: "Log output format (text|json)",
			Value: "text",
		},
		cli.IntFlag{
			Name:  "log.verbosity",
			Usage: "Logging verbosity (0=fatal,1=error,2=warn,3=info,4=debug,5=trace)",
			Value: 3,
		},
		cli.BoolFlag{
			Name:  "log.color",
			Usage: "Enable colored log output",
		},
		cli.StringFlag{
			Name:  "sentry.dsn",
			Usage: "Sentry DSN for error reporting (disabled when empty)",
		},
	}
}

// SafetyFlags returns the knobs of the safety-rules engine itself.
func SafetyFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "preset",
			Usage: "Configuration preset (default|onchain|exported|decoupled)",
			Value: "default",
		},
		cli.BoolFlag{
			Name:  "verify-proposal-signature",
			Usage: "Require execution-layer signatures on vote proposals",
		},
		cli.BoolFlag{
			Name:  "export-consensus-key",
			Usage: "Export the consensus key from storage instead of handle-mode signing",
		},
		cli.BoolFlag{
			Name:  "decoupled-execution",
			Usage: "Order blocks without execution results (ordering-only votes)",
		},
	}
}
