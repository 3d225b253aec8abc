package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brevdev/fleet/pkg/terminal"
)

// Version is set at build time with -ldflags "-X github.com/brevdev/fleet/pkg/cmd/version.Version=...".
var Version = ""

func BuildVersionString() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	return fmt.Sprintf("Current version: %s", v)
}

func NewCmdVersion(t *terminal.Terminal) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the fleet version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			t.Vprint(BuildVersionString())
		},
	}
	return cmd
}
