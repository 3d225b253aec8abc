package provision

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/brevdev/fleet/pkg/process"
)

// Hypervisor is the lifecycle contract a virtualization tool has to satisfy.
type Hypervisor interface {
	// Up creates and starts every described guest.
	Up(ctx context.Context, descriptors []Descriptor) error
	// SSHConfig returns the connection profile for one guest.
	SSHConfig(ctx context.Context, name string) (string, error)
	// Destroy tears down every guest from the most recent Up.
	Destroy(ctx context.Context) error
	// User is the login user of the provisioned guests.
	User() string
}

const (
	DefaultVagrantBinary = "vagrant"
	vagrantUser          = "vagrant"
	vagrantfileName      = "Vagrantfile"
)

// VagrantCLI drives the vagrant binary from a working directory that holds the
// generated Vagrantfile.
type VagrantCLI struct {
	fs       afero.Fs
	workDir  string
	binary   string
	executor process.Executor
	log      *zap.Logger
}

var _ Hypervisor = &VagrantCLI{}

func NewVagrantCLI(fs afero.Fs, workDir string, binary string, executor process.Executor, log *zap.Logger) *VagrantCLI {
	if binary == "" {
		binary = DefaultVagrantBinary
	}
	if executor == nil {
		executor = process.OSExecutor{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &VagrantCLI{
		fs:       fs,
		workDir:  workDir,
		binary:   binary,
		executor: executor,
		log:      log.Named("vagrant"),
	}
}

func (v *VagrantCLI) VagrantfilePath() string {
	return filepath.Join(v.workDir, vagrantfileName)
}

func (v *VagrantCLI) Up(ctx context.Context, descriptors []Descriptor) error {
	doc, err := RenderVagrantfile(descriptors)
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	if err := v.fs.MkdirAll(v.workDir, 0o755); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	if err := afero.WriteFile(v.fs, v.VagrantfilePath(), doc, 0o644); err != nil {
		return breverrors.WrapAndTrace(err)
	}
	v.log.Debug("wrote Vagrantfile", zap.String("path", v.VagrantfilePath()), zap.Int("hosts", len(descriptors)))

	_, err = v.run(ctx, "vagrant up", "", "up")
	return err
}

func (v *VagrantCLI) SSHConfig(ctx context.Context, name string) (string, error) {
	out, err := v.run(ctx, "vagrant ssh-config", name, "ssh-config", name)
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

func (v *VagrantCLI) Destroy(ctx context.Context) error {
	_, err := v.run(ctx, "vagrant destroy", "", "destroy", "--force")
	return err
}

func (v *VagrantCLI) User() string {
	return vagrantUser
}

// run returns a *ProvisioningError for both launch failures and non-zero exits.
func (v *VagrantCLI) run(ctx context.Context, op string, host string, args ...string) (process.Output, error) {
	argv := append([]string{v.binary}, args...)
	out, err := v.executor.Run(ctx, process.Command{Argv: argv, Dir: v.workDir})
	if err != nil {
		return out, &breverrors.ProvisioningError{Op: op, Host: host, Output: out.Combined, Err: err}
	}
	if !out.Success() {
		return out, &breverrors.ProvisioningError{Op: op, Host: host, ExitCode: out.ExitCode, Output: out.Combined}
	}
	return out, nil
}
