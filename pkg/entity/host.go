package entity

import (
	"strings"
	"sync"

	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/samber/lo"
)

// Connection is the transport handle a Host owns while work runs against it.
type Connection interface {
	Close() error
}

// Connector opens a fresh Connection for a host. It may return nil when the host cannot
// be reached.
type Connector func() Connection

// Host is a named machine in the topology. Name is the primary identity; VMHostname and
// IP are secondary identities used for prefix lookups.
type Host struct {
	Name       string
	VMHostname string
	IP         string
	Roles      []string

	mu      sync.Mutex
	conn    Connection
	connect Connector
}

func NewHost(name string, roles ...string) (*Host, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, breverrors.NewInvalidArgumentError("host name cannot be empty")
	}
	return &Host{
		Name:  name,
		Roles: NormalizeRoles(roles),
	}, nil
}

// NormalizeRoles trims every role, drops empty ones and removes duplicates. The first
// occurrence keeps its position.
func NormalizeRoles(roles []string) []string {
	trimmed := lo.FilterMap(roles, func(r string, _ int) (string, bool) {
		r = strings.TrimSpace(r)
		return r, r != ""
	})
	return lo.Uniq(trimmed)
}

func (h *Host) HasRole(role string) bool {
	return lo.Contains(h.Roles, strings.TrimSpace(role))
}

// Identities returns name, vm hostname and ip in lookup precedence, skipping unset ones.
func (h *Host) Identities() []string {
	return lo.Compact([]string{h.Name, h.VMHostname, h.IP})
}

func (h *Host) String() string {
	return h.Name
}

func (h *Host) SetConnection(c Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conn = c
}

// SetConnector installs the dial function used whenever the connection slot is empty,
// including after CloseConnection.
func (h *Host) SetConnector(connect Connector) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connect = connect
}

// Connection returns the current handle, opening one through the Connector when the
// slot is empty.
func (h *Host) Connection() Connection {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil && h.connect != nil {
		h.conn = h.connect()
	}
	return h.conn
}

// CloseConnection releases the host's connection handle, if any. Calling it again is a
// no-op. The Connector is kept, so the next Connection call opens a new handle.
func (h *Host) CloseConnection() error {
	h.mu.Lock()
	conn := h.conn
	h.conn = nil
	h.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return breverrors.WrapAndTrace(err, "closing connection to", h.Name)
	}
	return nil
}

func HostNames(hosts []*Host) []string {
	return lo.Map(hosts, func(h *Host, _ int) string {
		return h.Name
	})
}

// ConnectionInfo is the parsed form of a connection profile produced by the hypervisor.
type ConnectionInfo struct {
	Alias        string
	Hostname     string
	User         string
	Port         int
	IdentityFile string
	Options      map[string]string
}
