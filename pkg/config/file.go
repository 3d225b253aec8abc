package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	breverrors "github.com/brevdev/fleet/pkg/errors"
)

const (
	keyVagrantBinary = "vagrant_bin"
	keyWorkDir       = "workdir"
	keyLogLevel      = "log_level"
	keyTopology      = "topology"
	keyParallel      = "parallel"
)

// FileConfig layers an optional config.yaml from /etc/fleet/ or ~/.fleet under the
// environment. Environment variables win, then the file, then the built-in defaults.
type FileConfig struct {
	ConstantsConfig
	v *viper.Viper
}

func LoadFileConfig(fs afero.Fs, home string) (*FileConfig, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName("config")
	v.AddConfigPath("/etc/fleet/")
	if home != "" {
		v.AddConfigPath(filepath.Join(home, ".fleet"))
	}
	v.SetEnvPrefix("fleet")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !breverrors.As(err, &notFound) {
			return nil, breverrors.WrapAndTrace(err)
		}
	}
	return &FileConfig{v: v}, nil
}

// Used returns the config file that was read, or "" when there was none.
func (f *FileConfig) Used() string {
	return f.v.ConfigFileUsed()
}

func (f *FileConfig) GetVagrantBinary() string {
	return f.get(vagrantBinary, keyVagrantBinary, f.ConstantsConfig.GetVagrantBinary())
}

func (f *FileConfig) GetWorkDir() string {
	return f.get(workDir, keyWorkDir, f.ConstantsConfig.GetWorkDir())
}

func (f *FileConfig) GetLogLevel() string {
	return f.get(logLevel, keyLogLevel, f.ConstantsConfig.GetLogLevel())
}

func (f *FileConfig) GetTopologyPath() string {
	return f.get(topologyPath, keyTopology, f.ConstantsConfig.GetTopologyPath())
}

func (f *FileConfig) GetParallel() bool {
	return parseBool(f.get(parallel, keyParallel, "false"))
}

func (f *FileConfig) get(env EnvVarName, key string, defaultVal string) string {
	if f.v.IsSet(key) {
		defaultVal = f.v.GetString(key)
	}
	return getEnvOrDefault(env, defaultVal)
}
