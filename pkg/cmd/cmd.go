// Package cmd is the entrypoint to cli
package cmd

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brevdev/fleet/pkg/cmd/exec"
	"github.com/brevdev/fleet/pkg/cmd/ls"
	"github.com/brevdev/fleet/pkg/cmd/role"
	"github.com/brevdev/fleet/pkg/cmd/up"
	"github.com/brevdev/fleet/pkg/cmd/util"
	"github.com/brevdev/fleet/pkg/cmd/version"
	"github.com/brevdev/fleet/pkg/config"
	"github.com/brevdev/fleet/pkg/logging"
	"github.com/brevdev/fleet/pkg/process"
	"github.com/brevdev/fleet/pkg/terminal"
)

func NewDefaultFleetCommand() *cobra.Command {
	t := terminal.New()
	fs := afero.NewOsFs()

	var conf config.AllConfig = config.GlobalConfig
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	fileConf, err := config.LoadFileConfig(fs, home)
	if err != nil {
		t.Errprint(err, "ignoring config file")
	} else {
		conf = fileConf
	}

	log, err := logging.New(conf.GetLogLevel())
	if err != nil {
		t.Errprint(err, "falling back to info logging")
		log, _ = logging.New("info")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return NewFleetCommand(t, &util.Env{
		Fs:       fs,
		Config:   conf,
		Log:      log,
		Executor: process.OSExecutor{},
	})
}

func NewFleetCommand(t *terminal.Terminal, env *util.Env) *cobra.Command {
	cmds := &cobra.Command{
		Use:   "fleet",
		Short: "run commands across a fleet of hosts",
		Long: `
      fleet runs shell commands across the hosts of a topology, selected by role or
      name, one after another or all at once. It can also bring the hosts up as
      throwaway Vagrant guests and destroy them afterwards.`,
		SilenceUsage: true,
		Run:          runHelp,
	}
	cmds.PersistentFlags().StringVarP(&env.TopologyPath, "topology", "t", env.Config.GetTopologyPath(), "path to the topology file")

	cmds.AddCommand(ls.NewCmdLs(t, env))
	cmds.AddCommand(role.NewCmdRole(t, env))
	cmds.AddCommand(exec.NewCmdExec(t, env))
	cmds.AddCommand(up.NewCmdUp(t, env))
	cmds.AddCommand(version.NewCmdVersion(t))

	return cmds
}

func runHelp(cmd *cobra.Command, _ []string) {
	_ = cmd.Help()
}
