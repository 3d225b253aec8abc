// Package role prints the single host that carries a role
package role

import (
	"github.com/spf13/cobra"

	"github.com/brevdev/fleet/pkg/cmd/util"
	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/brevdev/fleet/pkg/selector"
	"github.com/brevdev/fleet/pkg/terminal"
)

func NewCmdRole(t *terminal.Terminal, env *util.Env) *cobra.Command {
	var optional bool
	cmd := &cobra.Command{
		Use:                   "role <role>",
		DisableFlagsInUseLine: true,
		Short:                 "Print the host that carries a role",
		Long:                  "Print the one host that carries a role. Fails when no host or more than one host carries it.",
		Example:               "  fleet role master",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := RunRole(t, env, args[0], optional)
			if err != nil {
				return breverrors.WrapAndTrace(err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&optional, "optional", false, "succeed with no output when no host carries the role")
	return cmd
}

func RunRole(t *terminal.Terminal, env *util.Env, role string, optional bool) error {
	_, hosts, err := env.LoadTopology()
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	if optional {
		h, err := selector.AtMostOneWithRole(hosts, role)
		if err != nil {
			return breverrors.WrapAndTrace(err)
		}
		if h != nil {
			t.Vprint(h.Name)
		}
		return nil
	}
	h, err := selector.OnlyWithRole(hosts, role)
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	t.Vprint(h.Name)
	return nil
}
