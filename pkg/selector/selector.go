// Package selector narrows a host sequence by role or by name. Every function is pure:
// inputs are never mutated and results keep the input order.
package selector

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/brevdev/fleet/pkg/entity"
	breverrors "github.com/brevdev/fleet/pkg/errors"
)

// WithRole returns the hosts carrying role. An empty role means no filter and returns
// hosts unchanged.
func WithRole(hosts []*entity.Host, role string) []*entity.Host {
	role = strings.TrimSpace(role)
	if role == "" {
		return hosts
	}
	return lo.Filter(hosts, func(h *entity.Host, _ int) bool {
		return h.HasRole(role)
	})
}

// WithName returns the hosts whose name, vm hostname or ip starts with name. An empty
// name means no filter and returns hosts unchanged.
func WithName(hosts []*entity.Host, name string) []*entity.Host {
	if name == "" {
		return hosts
	}
	return lo.Filter(hosts, func(h *entity.Host, _ int) bool {
		return matchesName(h, name)
	})
}

func matchesName(h *entity.Host, name string) bool {
	for _, id := range h.Identities() {
		if strings.HasPrefix(id, name) {
			return true
		}
	}
	return false
}

// OnlyWithRole returns the single host carrying role.
func OnlyWithRole(hosts []*entity.Host, role string) (*entity.Host, error) {
	matches, err := requiredRole(hosts, role)
	if err != nil {
		return nil, err
	}
	if len(matches) != 1 {
		return nil, &breverrors.AmbiguousSelectionError{Role: role, Matches: entity.HostNames(matches)}
	}
	return matches[0], nil
}

// AtMostOneWithRole returns the host carrying role, or nil when there is none.
func AtMostOneWithRole(hosts []*entity.Host, role string) (*entity.Host, error) {
	matches, err := requiredRole(hosts, role)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, &breverrors.AmbiguousSelectionError{Role: role, Matches: entity.HostNames(matches)}
	}
}

// an empty role would match every host
func requiredRole(hosts []*entity.Host, role string) ([]*entity.Host, error) {
	if strings.TrimSpace(role) == "" {
		return nil, breverrors.NewInvalidArgumentError("role cannot be empty")
	}
	return WithRole(hosts, role), nil
}

// Resolve applies filter as a role first and, only when no host carries that role, as a
// name prefix against the original hosts.
func Resolve(hosts []*entity.Host, filter string) []*entity.Host {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return hosts
	}
	byRole := WithRole(hosts, filter)
	if len(byRole) > 0 {
		return byRole
	}
	return WithName(hosts, filter)
}

type Kind int

const (
	KindNone Kind = iota
	KindRole
	KindName
)

// Criterion is a reusable selection rule.
type Criterion struct {
	kind  Kind
	value string
}

func None() Criterion { return Criterion{} }

func ByRole(role string) Criterion { return Criterion{kind: KindRole, value: role} }

func ByName(prefix string) Criterion { return Criterion{kind: KindName, value: prefix} }

func (c Criterion) Kind() Kind { return c.kind }

func (c Criterion) Value() string { return c.value }

func (c Criterion) Apply(hosts []*entity.Host) []*entity.Host {
	switch c.kind {
	case KindRole:
		return WithRole(hosts, c.value)
	case KindName:
		return WithName(hosts, c.value)
	default:
		return hosts
	}
}

func (c Criterion) String() string {
	switch c.kind {
	case KindRole:
		return fmt.Sprintf("role=%s", c.value)
	case KindName:
		return fmt.Sprintf("name=%s*", c.value)
	default:
		return "all"
	}
}
