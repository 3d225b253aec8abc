package sshexec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"

	"github.com/brevdev/fleet/pkg/entity"
	breverrors "github.com/brevdev/fleet/pkg/errors"
)

const defaultPort = 22

// ParseProfile reads an ssh_config document such as the one printed by
// `vagrant ssh-config <name>` and returns the connection details for alias. An empty
// alias picks the first explicitly named host.
func ParseProfile(alias string, text string) (entity.ConnectionInfo, error) {
	cfg, err := ssh_config.Decode(strings.NewReader(text))
	if err != nil {
		return entity.ConnectionInfo{}, breverrors.WrapAndTrace(fmt.Errorf("failed to parse ssh config for %s: %w", alias, err))
	}

	for _, hostBlock := range cfg.Hosts {
		for _, name := range namedPatterns(hostBlock.Patterns) {
			if alias != "" && name != alias {
				continue
			}
			info, err := buildInfo(name, collectKVs(hostBlock.Nodes))
			if err != nil {
				return entity.ConnectionInfo{}, breverrors.WrapAndTrace(err)
			}
			return info, nil
		}
	}
	if alias == "" {
		return entity.ConnectionInfo{}, breverrors.WrapAndTrace(fmt.Errorf("no host entries found in ssh config"))
	}
	return entity.ConnectionInfo{}, breverrors.WrapAndTrace(fmt.Errorf("host %s not found in ssh config", alias))
}

func buildInfo(alias string, kvs map[string]string) (entity.ConnectionInfo, error) {
	hostname := kvs["hostname"]
	if hostname == "" {
		return entity.ConnectionInfo{}, fmt.Errorf("missing HostName for %s", alias)
	}

	user := kvs["user"]
	if user == "" {
		return entity.ConnectionInfo{}, fmt.Errorf("missing User for %s", alias)
	}

	port := defaultPort
	if portStr := kvs["port"]; portStr != "" {
		parsed, err := strconv.Atoi(portStr)
		if err != nil {
			return entity.ConnectionInfo{}, fmt.Errorf("invalid Port for %s: %s", alias, portStr)
		}
		port = parsed
	}

	options := map[string]string{}
	for k, v := range kvs {
		if isCoreField(k) {
			continue
		}
		options[k] = v
	}

	return entity.ConnectionInfo{
		Alias:        alias,
		Hostname:     hostname,
		User:         user,
		Port:         port,
		IdentityFile: kvs["identityfile"],
		Options:      options,
	}, nil
}

func namedPatterns(patterns []*ssh_config.Pattern) []string {
	var names []string
	for _, p := range patterns {
		name := strings.TrimSpace(p.String())
		// skip wildcards
		if name == "" || strings.ContainsAny(name, "*?!") {
			continue
		}
		names = append(names, name)
	}
	return names
}

// keys are lowercased; values lose surrounding quotes
func collectKVs(nodes []ssh_config.Node) map[string]string {
	result := map[string]string{}
	for _, node := range nodes {
		kv, ok := node.(*ssh_config.KV)
		if !ok {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv.Key))
		value := strings.Trim(strings.TrimSpace(kv.Value), `"`)
		if key == "" {
			continue
		}
		result[key] = value
	}
	return result
}

func isCoreField(key string) bool {
	switch key {
	case "hostname", "user", "port", "identityfile":
		return true
	default:
		return false
	}
}
