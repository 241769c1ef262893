package flags

import (
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

// NewApp creates the skeleton cli application shared by the safety-rules
// commands.
func NewApp(gitCommit, usage string) *cli.App {
	app := cli.NewApp()
	app.Name = "safetyrules"
	app.Usage = usage
	app.Version = "0.1.0"
	if gitCommit != "" {
		app.Version += "-" + gitCommit[:8]
	}
	app.Writer = os.Stdout
	return app
}
