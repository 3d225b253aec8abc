package topology

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brevdev/fleet/pkg/entity"
	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/brevdev/fleet/pkg/provision"
)

const sample = `
hypervisor: vagrant
hosts:
  web2:
    roles: [web]
    box: ubuntu/jammy64
  web1:
    roles: [master, web]
    box: ubuntu/jammy64
    box_url: https://boxes.example.com/jammy.box
    vmhostname: web1.local
    ip: 10.0.0.11
  db1:
    roles: [" db ", db]
    ssh_config: /etc/fleet/db1.ssh
`

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/fleet/topology.yaml", []byte(sample), 0o644))

	topo, err := Load(fs, "/etc/fleet/topology.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"db1", "web1", "web2"}, topo.Names())

	hosts, err := topo.Hosts()
	require.NoError(t, err)
	assert.Equal(t, []string{"db1", "web1", "web2"}, entity.HostNames(hosts))
	assert.Equal(t, []string{"db"}, hosts[0].Roles)
	assert.Equal(t, "web1.local", hosts[1].VMHostname)
	assert.Equal(t, "10.0.0.11", hosts[1].IP)
	assert.True(t, hosts[1].HasRole("master"))

	assert.Equal(t, map[string]provision.HostConfig{
		"web1": {Box: "ubuntu/jammy64", BoxURL: "https://boxes.example.com/jammy.box"},
		"web2": {Box: "ubuntu/jammy64"},
	}, topo.HostConfigs())
	assert.Equal(t, map[string]string{"db1": "/etc/fleet/db1.ssh"}, topo.ProfilePaths())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nope.yaml")
	require.Error(t, err)
}

func TestParseDefaultsHypervisor(t *testing.T) {
	topo, err := Parse([]byte("hosts:\n  web1: {box: b}\n"))
	require.NoError(t, err)
	assert.Equal(t, HypervisorVagrant, topo.Hypervisor)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no hosts", "hypervisor: vagrant\n", "no hosts"},
		{"unknown hypervisor", "hypervisor: docker\nhosts:\n  web1: {box: b}\n", "unsupported hypervisor"},
		{"no box or profile", "hosts:\n  web1: {roles: [web]}\n", "host web1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			var verr breverrors.ValidationError
			require.True(t, breverrors.As(err, &verr))
			assert.Contains(t, verr.Error(), tt.want)
		})
	}

	_, err := Parse([]byte("hosts: [web1]"))
	require.Error(t, err)
}
