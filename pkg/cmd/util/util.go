package util

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/brevdev/fleet/pkg/config"
	"github.com/brevdev/fleet/pkg/dispatch"
	"github.com/brevdev/fleet/pkg/entity"
	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/brevdev/fleet/pkg/process"
	"github.com/brevdev/fleet/pkg/sshexec"
	"github.com/brevdev/fleet/pkg/terminal"
	"github.com/brevdev/fleet/pkg/topology"
)

// Env carries what every command needs. TopologyPath is bound to the root flag.
type Env struct {
	Fs           afero.Fs
	Config       config.AllConfig
	Log          *zap.Logger
	Executor     process.Executor
	TopologyPath string
}

func (e *Env) LoadTopology() (topology.Topology, []*entity.Host, error) {
	topo, err := topology.Load(e.Fs, e.TopologyPath)
	if err != nil {
		return topology.Topology{}, nil, breverrors.WrapAndTrace(err, "loading topology", e.TopologyPath)
	}
	hosts, err := topo.Hosts()
	if err != nil {
		return topology.Topology{}, nil, breverrors.WrapAndTrace(err)
	}
	return topo, hosts, nil
}

// ConnectProfiles gives every host listed in paths a Connector that opens an ssh
// connection from the profile file at that path.
func (e *Env) ConnectProfiles(hosts []*entity.Host, paths map[string]string) error {
	for _, h := range hosts {
		path, ok := paths[h.Name]
		if !ok {
			continue
		}
		text, err := afero.ReadFile(e.Fs, path)
		if err != nil {
			return breverrors.WrapAndTrace(err)
		}
		info, err := sshexec.ParseProfile(h.Name, string(text))
		if err != nil {
			return breverrors.WrapAndTrace(err)
		}
		h.SetConnector(sshConnector(info, path, e.Executor))
	}
	return nil
}

func sshConnector(info entity.ConnectionInfo, path string, executor process.Executor) entity.Connector {
	return func() entity.Connection {
		return sshexec.NewConn(info, path, executor)
	}
}

func CloseAll(hosts []*entity.Host) error {
	var result error
	for _, h := range hosts {
		if err := h.CloseConnection(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

type HostOutput struct {
	Host   string
	Output string
}

// RunCommand is the dispatch work that runs command over the host's ssh connection.
func RunCommand(command string) dispatch.WorkFunc[HostOutput] {
	return func(ctx context.Context, h *entity.Host) (HostOutput, error) {
		conn, ok := h.Connection().(*sshexec.Conn)
		if !ok {
			return HostOutput{}, breverrors.NewValidationError(fmt.Sprintf("host %s has no ssh connection; give it an ssh_config profile", h.Name))
		}
		out, err := conn.Run(ctx, command)
		if err != nil {
			return HostOutput{Host: h.Name, Output: out}, err
		}
		return HostOutput{Host: h.Name, Output: out}, nil
	}
}

func PrintOutputs(t *terminal.Terminal, result dispatch.Result[HostOutput]) {
	if result.IsNoOp() {
		t.Vprint(t.Yellow("no hosts matched, nothing was run"))
		return
	}
	values := result.Values()
	for _, v := range values {
		if len(values) > 1 {
			t.Vprint(t.Green("=== %s ===", v.Host))
		}
		t.Vprintf("%s", v.Output)
	}
}
