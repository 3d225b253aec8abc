// Package provision brings up ephemeral guests through a Hypervisor, keeps one
// connection profile per guest in a temporary file and tears everything down again.
package provision

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/brevdev/fleet/pkg/entity"
	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/brevdev/fleet/pkg/sshexec"
)

type Options struct {
	// TempDir holds the per-host profile files. Empty means the OS temp dir.
	TempDir string
	// Rand feeds the generated MAC addresses. Defaults to crypto/rand.
	Rand io.Reader
}

// Profile is the connection profile of one provisioned guest. Path is a temporary file
// owned by the Session until Cleanup.
type Profile struct {
	Host string
	Path string
	Info entity.ConnectionInfo
}

type Session struct {
	id   string
	fs   afero.Fs
	hv   Hypervisor
	log  *zap.Logger
	opts Options

	mu       sync.Mutex
	state    State
	profiles *orderedmap.OrderedMap[string, Profile]
}

func NewSession(fs afero.Fs, hv Hypervisor, log *zap.Logger, opts Options) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Rand == nil {
		opts.Rand = rand.Reader
	}
	id := uuid.New().String()
	return &Session{
		id:       id,
		fs:       fs,
		hv:       hv,
		log:      log.Named("provision").With(zap.String("session", id)),
		opts:     opts,
		state:    Unprovisioned,
		profiles: orderedmap.New[string, Profile](),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) User() string {
	return s.hv.User()
}

func (s *Session) Profile(name string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles.Get(name)
}

// Profiles returns the profiles in provisioning order.
func (s *Session) Profiles() []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	profiles := make([]Profile, 0, s.profiles.Len())
	for pair := s.profiles.Oldest(); pair != nil; pair = pair.Next() {
		profiles = append(profiles, pair.Value)
	}
	return profiles
}

func (s *Session) transition(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.canTransitionTo(next) {
		return breverrors.NewInvalidArgumentError("provisioning session cannot go from %s to %s", s.state, next)
	}
	s.log.Debug("state change", zap.Stringer("from", s.state), zap.Stringer("to", next))
	s.state = next
	return nil
}

// Provision brings up names using the per-host config and records a connection profile
// for each of them. On failure the session is Failed; guests that already came up are
// not rolled back and profile files written so far are released by Cleanup.
func (s *Session) Provision(ctx context.Context, names []string, hosts map[string]HostConfig) error {
	if len(names) == 0 {
		return breverrors.NewInvalidArgumentError("no hosts to provision")
	}
	for _, name := range names {
		if _, ok := hosts[name]; !ok {
			return breverrors.NewValidationError(fmt.Sprintf("no configuration for host %s", name))
		}
	}

	if err := s.transition(Provisioning); err != nil {
		return err
	}

	if err := s.provision(ctx, names, hosts); err != nil {
		s.log.Error("provisioning failed", zap.Error(err))
		if terr := s.transition(Failed); terr != nil {
			return multierror.Append(err, terr)
		}
		return err
	}
	return s.transition(Provisioned)
}

func (s *Session) provision(ctx context.Context, names []string, hosts map[string]HostConfig) error {
	descriptors := make([]Descriptor, 0, len(names))
	for _, name := range names {
		mac, err := RandomMAC(s.opts.Rand)
		if err != nil {
			return breverrors.WrapAndTrace(err)
		}
		cfg := hosts[name]
		descriptors = append(descriptors, Descriptor{
			Name:     name,
			Hostname: name,
			Box:      cfg.Box,
			BoxURL:   cfg.BoxURL,
			MAC:      mac,
		})
		s.log.Debug("created descriptor", zap.String("host", name), zap.String("mac", mac))
	}

	if err := s.hv.Up(ctx, descriptors); err != nil {
		return breverrors.WrapAndTrace(err)
	}

	s.log.Debug("collecting ssh-config per guest")
	for _, name := range names {
		if err := s.captureProfile(ctx, name); err != nil {
			return breverrors.WrapAndTrace(err)
		}
	}
	return nil
}

func (s *Session) captureProfile(ctx context.Context, name string) error {
	text, err := s.hv.SSHConfig(ctx, name)
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}

	f, err := afero.TempFile(s.fs, s.opts.TempDir, name+"-ssh-config-")
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	profile := Profile{Host: name, Path: f.Name()}
	s.setProfile(profile)

	_, werr := f.WriteString(text)
	cerr := f.Close()
	if werr != nil {
		return breverrors.WrapAndTrace(werr)
	}
	if cerr != nil {
		return breverrors.WrapAndTrace(cerr)
	}

	info, err := sshexec.ParseProfile(name, text)
	if err != nil {
		return breverrors.WrapAndTrace(err)
	}
	profile.Info = info
	s.setProfile(profile)
	return nil
}

func (s *Session) setProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles.Set(p.Host, p)
}

// Cleanup removes every profile file, then destroys all guests. Every removal is
// attempted; all failures are returned together and the profiles that could not be
// removed stay recorded. The session ends Destroyed even when destroy exits non-zero,
// and Failed only when the tool could not be run at all. On a Destroyed session Cleanup
// only retries the remaining removals.
func (s *Session) Cleanup(ctx context.Context) error {
	switch s.State() {
	case Unprovisioned:
		return nil
	case Destroyed:
		if err := s.releaseProfiles(); err != nil {
			return breverrors.WrapAndTrace(err)
		}
		return nil
	}
	if err := s.transition(Destroying); err != nil {
		return err
	}

	result := s.releaseProfiles()

	s.log.Info("Destroying vagrant boxes")
	final := Destroyed
	if err := s.hv.Destroy(ctx); err != nil {
		result = multierror.Append(result, err)
		if !toolRan(err) {
			final = Failed
		}
	}
	if err := s.transition(final); err != nil {
		result = multierror.Append(result, err)
	}

	if result != nil {
		return breverrors.WrapAndTrace(result)
	}
	return nil
}

// releaseProfiles removes every recorded profile file and keeps only the ones whose
// removal failed.
func (s *Session) releaseProfiles() error {
	var result error
	kept := orderedmap.New[string, Profile]()
	s.log.Debug("removing temporary ssh-config files per guest")
	for _, p := range s.Profiles() {
		if err := s.fs.Remove(p.Path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("failed to remove profile", zap.String("host", p.Host), zap.String("path", p.Path), zap.Error(err))
			result = multierror.Append(result, breverrors.Wrap(err, fmt.Sprintf("removing profile for %s", p.Host)))
			kept.Set(p.Host, p)
		}
	}
	s.mu.Lock()
	s.profiles = kept
	s.mu.Unlock()
	return result
}

// toolRan reports whether err came from a tool that started and exited non-zero.
func toolRan(err error) bool {
	var perr *breverrors.ProvisioningError
	return breverrors.As(err, &perr) && perr.Err == nil
}

// Attach gives every host that has a profile a Connector built on connect, so the host
// can reopen its connection after a release. It returns the names of hosts without a
// profile.
func (s *Session) Attach(hosts []*entity.Host, connect func(Profile) entity.Connection) []string {
	var missing []string
	for _, h := range hosts {
		p, ok := s.Profile(h.Name)
		if !ok {
			missing = append(missing, h.Name)
			continue
		}
		h.SetConnector(func() entity.Connection { return connect(p) })
	}
	return missing
}
