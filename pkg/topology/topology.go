// Package topology loads the host inventory a fleet run works against.
package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/brevdev/fleet/pkg/entity"
	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/brevdev/fleet/pkg/provision"
)

const HypervisorVagrant = "vagrant"

// HostSpec is one entry of the hosts map.
type HostSpec struct {
	Roles      []string `yaml:"roles"`
	Box        string   `yaml:"box"`
	BoxURL     string   `yaml:"box_url"`
	VMHostname string   `yaml:"vmhostname"`
	IP         string   `yaml:"ip"`
	// SSHConfig is the path of an ssh-config profile for hosts that already exist.
	SSHConfig string `yaml:"ssh_config"`
}

type Topology struct {
	Hypervisor string              `yaml:"hypervisor"`
	HostSpecs  map[string]HostSpec `yaml:"hosts"`
}

func Load(fs afero.Fs, path string) (Topology, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Topology{}, breverrors.WrapAndTrace(err)
	}
	return Parse(data)
}

func Parse(data []byte) (Topology, error) {
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Topology{}, breverrors.WrapAndTrace(fmt.Errorf("invalid topology: %w", err))
	}
	if t.Hypervisor == "" {
		t.Hypervisor = HypervisorVagrant
	}
	if err := t.Validate(); err != nil {
		return Topology{}, err
	}
	return t, nil
}

func (t Topology) Validate() error {
	if t.Hypervisor != HypervisorVagrant {
		return breverrors.NewValidationError(fmt.Sprintf("unsupported hypervisor %q", t.Hypervisor))
	}
	if len(t.HostSpecs) == 0 {
		return breverrors.NewValidationError("topology defines no hosts")
	}
	for _, name := range t.Names() {
		if strings.TrimSpace(name) == "" {
			return breverrors.NewValidationError("topology contains a host with an empty name")
		}
		spec := t.HostSpecs[name]
		if spec.Box == "" && spec.SSHConfig == "" {
			return breverrors.NewValidationError(fmt.Sprintf("host %s needs a box or an ssh_config profile", name))
		}
	}
	return nil
}

// Names returns the host names in sorted order.
func (t Topology) Names() []string {
	names := make([]string, 0, len(t.HostSpecs))
	for name := range t.HostSpecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hosts builds one entity.Host per entry, in Names order.
func (t Topology) Hosts() ([]*entity.Host, error) {
	hosts := make([]*entity.Host, 0, len(t.HostSpecs))
	for _, name := range t.Names() {
		spec := t.HostSpecs[name]
		h, err := entity.NewHost(name, spec.Roles...)
		if err != nil {
			return nil, breverrors.WrapAndTrace(err)
		}
		h.VMHostname = spec.VMHostname
		h.IP = spec.IP
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// HostConfigs returns the provisioning input for every host that names a box.
func (t Topology) HostConfigs() map[string]provision.HostConfig {
	configs := make(map[string]provision.HostConfig, len(t.HostSpecs))
	for name, spec := range t.HostSpecs {
		if spec.Box == "" {
			continue
		}
		configs[name] = provision.HostConfig{Box: spec.Box, BoxURL: spec.BoxURL}
	}
	return configs
}

// ProfilePaths maps host names to their static ssh-config profile paths.
func (t Topology) ProfilePaths() map[string]string {
	paths := map[string]string{}
	for name, spec := range t.HostSpecs {
		if spec.SSHConfig != "" {
			paths[name] = spec.SSHConfig
		}
	}
	return paths
}
