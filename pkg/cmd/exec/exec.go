// Package exec runs a shell command on hosts that already exist
package exec

import (
	"github.com/spf13/cobra"

	"github.com/brevdev/fleet/pkg/cmd/util"
	"github.com/brevdev/fleet/pkg/dispatch"
	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/brevdev/fleet/pkg/terminal"
)

var (
	execLong    = "Execute a command on the hosts of the topology over ssh, using each host's ssh_config profile"
	execExample = `  # Run on every host, one after another
  fleet exec "uptime"

  # Run on the hosts with the web role at the same time
  fleet exec web "systemctl restart nginx" --parallel`
)

func NewCmdExec(t *terminal.Terminal, env *util.Env) *cobra.Command {
	var parallel bool
	cmd := &cobra.Command{
		Use:                   "exec [filter] <command>",
		DisableFlagsInUseLine: true,
		Short:                 "Execute a command on hosts",
		Long:                  execLong,
		Example:               execExample,
		Args:                  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Last argument is the command, an optional filter precedes it
			command := args[len(args)-1]
			filter := ""
			if len(args) == 2 {
				filter = args[0]
			}
			if command == "" {
				return breverrors.NewValidationError("command is required")
			}
			if !cmd.Flags().Changed("parallel") {
				parallel = env.Config.GetParallel()
			}
			err := RunExec(cmd, t, env, filter, command, parallel)
			if err != nil {
				return breverrors.WrapAndTrace(err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&parallel, "parallel", "p", false, "run on all matched hosts at once")

	return cmd
}

func RunExec(cmd *cobra.Command, t *terminal.Terminal, env *util.Env, filter string, command string, parallel bool) (err error) {
	topo, hosts, err := env.LoadTopology()
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	if err := env.ConnectProfiles(hosts, topo.ProfilePaths()); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	defer func() {
		if cerr := util.CloseAll(hosts); cerr != nil && err == nil {
			err = breverrors.WrapAndTrace(cerr)
		}
	}()

	d := dispatch.New[util.HostOutput](env.Log)
	result, err := d.Dispatch(cmd.Context(), hosts, filter, dispatch.Options{Parallel: parallel}, util.RunCommand(command))
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	util.PrintOutputs(t, result)
	return nil
}
