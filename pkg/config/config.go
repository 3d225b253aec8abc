package config

import (
	"os"
	"strconv"
)

type EnvVarName string // should be caps with underscore

const (
	vagrantBinary EnvVarName = "FLEET_VAGRANT_BIN"
	workDir       EnvVarName = "FLEET_WORKDIR"
	logLevel      EnvVarName = "FLEET_LOG_LEVEL"
	topologyPath  EnvVarName = "FLEET_TOPOLOGY"
	parallel      EnvVarName = "FLEET_PARALLEL"
)

type ConstantsConfig struct{}

func NewConstants() *ConstantsConfig {
	return &ConstantsConfig{}
}

func (c ConstantsConfig) GetVagrantBinary() string {
	return getEnvOrDefault(vagrantBinary, "vagrant")
}

// GetWorkDir is where the Vagrantfile is written. Empty means a fresh directory per run.
func (c ConstantsConfig) GetWorkDir() string {
	return getEnvOrDefault(workDir, "")
}

func (c ConstantsConfig) GetLogLevel() string {
	return getEnvOrDefault(logLevel, "info")
}

func (c ConstantsConfig) GetTopologyPath() string {
	return getEnvOrDefault(topologyPath, "topology.yaml")
}

func (c ConstantsConfig) GetParallel() bool {
	return parseBool(getEnvOrDefault(parallel, "false"))
}

func getEnvOrDefault(envVarName EnvVarName, defaultVal string) string {
	val := os.Getenv(string(envVarName))
	if val == "" {
		return defaultVal
	}
	return val
}

func parseBool(val string) bool {
	enabled, err := strconv.ParseBool(val)
	if err != nil {
		return false
	}
	return enabled
}

var GlobalConfig = NewConstants()

type AllConfig interface {
	GetVagrantBinary() string
	GetWorkDir() string
	GetLogLevel() string
	GetTopologyPath() string
	GetParallel() bool
}

var (
	_ AllConfig = ConstantsConfig{}
	_ AllConfig = &FileConfig{}
)
