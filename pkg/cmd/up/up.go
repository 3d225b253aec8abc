// Package up brings up the topology's guests, optionally runs a command on them and
// tears them down again
package up

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brevdev/fleet/pkg/cmd/util"
	"github.com/brevdev/fleet/pkg/dispatch"
	"github.com/brevdev/fleet/pkg/entity"
	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/brevdev/fleet/pkg/provision"
	"github.com/brevdev/fleet/pkg/sshexec"
	"github.com/brevdev/fleet/pkg/terminal"
	"github.com/brevdev/fleet/pkg/topology"
)

var (
	upLong    = "Provision every host of the topology that names a box with Vagrant, run an optional command on them, then destroy them"
	upExample = `  # Bring the guests up, run the smoke test on the web hosts in parallel, destroy them
  fleet up web --parallel -- ./smoke-test.sh

  # A single argument after -- is passed to the shell as it stands
  fleet up -- "uptime | tee /tmp/uptime"

  # Bring the guests up and leave them running
  fleet up --keep`
)

type upOptions struct {
	parallel bool
	keep     bool
	filter   string
	command  string
}

func NewCmdUp(t *terminal.Terminal, env *util.Env) *cobra.Command {
	opts := upOptions{}
	cmd := &cobra.Command{
		Use:                   "up [filter] [-- command]",
		DisableFlagsInUseLine: true,
		Short:                 "Provision guests and run a command on them",
		Long:                  upLong,
		Example:               upExample,
		Args: func(cmd *cobra.Command, args []string) error {
			positional := args
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				positional = args[:dash]
			}
			if len(positional) > 1 {
				return breverrors.NewValidationError("at most one filter may precede --")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				opts.command = commandFromArgs(args[dash:])
				args = args[:dash]
			}
			if len(args) > 0 {
				opts.filter = args[0]
			}
			if !cmd.Flags().Changed("parallel") {
				opts.parallel = env.Config.GetParallel()
			}
			err := RunUp(cmd, t, env, opts)
			if err != nil {
				return breverrors.WrapAndTrace(err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.parallel, "parallel", "p", false, "run the command on all matched hosts at once")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "leave the guests running and keep their ssh-config profiles")
	return cmd
}

func RunUp(cmd *cobra.Command, t *terminal.Terminal, env *util.Env, opts upOptions) (err error) {
	ctx := cmd.Context()
	topo, hosts, err := env.LoadTopology()
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	configs := topo.HostConfigs()
	names := provisionOrder(topo, configs)
	if len(names) == 0 {
		return breverrors.NewValidationError("no host in the topology names a box to provision")
	}

	workDir := env.Config.GetWorkDir()
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "fleet-"+uuid.NewString())
	}
	hv := provision.NewVagrantCLI(env.Fs, workDir, env.Config.GetVagrantBinary(), env.Executor, env.Log)
	session := provision.NewSession(env.Fs, hv, env.Log, provision.Options{})
	log := env.Log.With(zap.String("session", session.ID()))

	defer func() {
		if opts.keep {
			displayProfiles(t, workDir, session)
			return
		}
		if cerr := session.Cleanup(ctx); cerr != nil {
			log.Error("cleanup failed", zap.Error(cerr))
			if err == nil {
				err = breverrors.WrapAndTrace(cerr)
			}
		}
	}()

	t.Vprint(t.Green("Provisioning %s", strings.Join(names, ", ")))
	if err := session.Provision(ctx, names, configs); err != nil {
		return breverrors.WrapAndTrace(err)
	}

	provisioned := make([]*entity.Host, 0, len(names))
	for _, h := range hosts {
		if _, ok := configs[h.Name]; ok {
			provisioned = append(provisioned, h)
		}
	}
	missing := session.Attach(provisioned, func(p provision.Profile) entity.Connection {
		return sshexec.NewConn(p.Info, p.Path, env.Executor)
	})
	if len(missing) > 0 {
		log.Warn("hosts without a profile", zap.Strings("hosts", missing))
	}
	defer func() {
		if cerr := util.CloseAll(provisioned); cerr != nil && err == nil {
			err = breverrors.WrapAndTrace(cerr)
		}
	}()

	if opts.command == "" {
		return nil
	}
	d := dispatch.New[util.HostOutput](env.Log)
	result, err := d.Dispatch(ctx, provisioned, opts.filter, dispatch.Options{Parallel: opts.parallel}, util.RunCommand(opts.command))
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	util.PrintOutputs(t, result)
	return nil
}

// commandFromArgs turns the words after -- into one shell command. A single word is taken
// as a shell snippet as it stands; several words are quoted one by one so their
// boundaries survive the remote shell.
func commandFromArgs(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return shellescape.QuoteCommand(args)
}

// provisionOrder keeps the topology's name order for the hosts that have a box.
func provisionOrder(topo topology.Topology, configs map[string]provision.HostConfig) []string {
	var names []string
	for _, name := range topo.Names() {
		if _, ok := configs[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func displayProfiles(t *terminal.Terminal, workDir string, session *provision.Session) {
	t.Vprint(t.Yellow("Guests left running, destroy them with `vagrant destroy --force` in %s", workDir))
	for _, p := range session.Profiles() {
		t.Vprintf("%s\t%s\n", p.Host, p.Path)
	}
}
