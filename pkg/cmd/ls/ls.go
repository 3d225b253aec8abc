// Package ls lists the hosts of the topology
package ls

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/brevdev/fleet/pkg/cmd/util"
	"github.com/brevdev/fleet/pkg/entity"
	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/brevdev/fleet/pkg/selector"
	"github.com/brevdev/fleet/pkg/terminal"
	"github.com/brevdev/fleet/pkg/topology"
)

var (
	lsLong    = "List the hosts of the topology, optionally narrowed by a role or a name prefix"
	lsExample = `  # List every host
  fleet ls

  # Hosts carrying the web role, or whose name starts with "web" if none does
  fleet ls web`
)

func NewCmdLs(t *terminal.Terminal, env *util.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "ls [filter]",
		DisableFlagsInUseLine: true,
		Short:                 "List hosts",
		Long:                  lsLong,
		Example:               lsExample,
		Args:                  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) > 0 {
				filter = args[0]
			}
			err := RunLs(t, env, filter)
			if err != nil {
				return breverrors.WrapAndTrace(err)
			}
			return nil
		},
	}
	return cmd
}

func RunLs(t *terminal.Terminal, env *util.Env, filter string) error {
	topo, hosts, err := env.LoadTopology()
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	hosts = selector.Resolve(hosts, filter)
	if len(hosts) == 0 {
		t.Vprint(t.Yellow("no hosts match %q", filter))
		return nil
	}
	displayHostsTable(t, topo, hosts)
	return nil
}

func displayHostsTable(t *terminal.Terminal, topo topology.Topology, hosts []*entity.Host) {
	ta := table.NewWriter()
	ta.SetOutputMirror(t.Out())
	ta.Style().Options = getFleetTableOptions()
	header := table.Row{"NAME", "ROLES", "VM HOSTNAME", "IP", "SOURCE"}
	ta.AppendHeader(header)
	for _, h := range hosts {
		hostRow := []table.Row{{
			h.Name, strings.Join(h.Roles, ","), h.VMHostname, h.IP, source(topo.HostSpecs[h.Name]),
		}}
		ta.AppendRows(hostRow)
	}
	ta.Render()
}

func source(spec topology.HostSpec) string {
	if spec.SSHConfig != "" {
		return spec.SSHConfig
	}
	return spec.Box
}

func getFleetTableOptions() table.Options {
	options := table.OptionsDefault
	options.DrawBorder = false
	options.SeparateColumns = false
	options.SeparateRows = false
	options.SeparateHeader = false
	return options
}
