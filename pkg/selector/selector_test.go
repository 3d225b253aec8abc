package selector

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brevdev/fleet/pkg/entity"
	breverrors "github.com/brevdev/fleet/pkg/errors"
)

func mustHost(t *testing.T, name string, roles ...string) *entity.Host {
	t.Helper()
	h, err := entity.NewHost(name, roles...)
	require.NoError(t, err)
	return h
}

func exampleHosts(t *testing.T) []*entity.Host {
	return []*entity.Host{
		mustHost(t, "web1", "master"),
		mustHost(t, "web2", "agent"),
	}
}

func TestEndToEndExample(t *testing.T) {
	hosts := exampleHosts(t)

	require.Equal(t, []string{"web2"}, entity.HostNames(WithRole(hosts, "agent")))

	master, err := OnlyWithRole(hosts, "master")
	require.NoError(t, err)
	require.Equal(t, "web1", master.Name)

	_, err = OnlyWithRole(hosts, "missing")
	var ambiguous *breverrors.AmbiguousSelectionError
	require.True(t, breverrors.As(err, &ambiguous))
	require.Empty(t, ambiguous.Matches)
}

func randomHosts(r *rand.Rand, n int) []*entity.Host {
	roles := []string{"master", "agent", "database", "dashboard"}
	hosts := make([]*entity.Host, 0, n)
	for i := 0; i < n; i++ {
		var hr []string
		for _, role := range roles {
			if r.Intn(2) == 0 {
				hr = append(hr, role)
			}
		}
		h, _ := entity.NewHost(fmt.Sprintf("host%02d", i), hr...)
		h.IP = fmt.Sprintf("10.0.%d.%d", r.Intn(3), i)
		hosts = append(hosts, h)
	}
	return hosts
}

func TestIdentityLaws(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		hosts := randomHosts(r, r.Intn(8))
		assert.Equal(t, hosts, WithRole(hosts, ""))
		assert.Equal(t, hosts, WithName(hosts, ""))
		assert.Equal(t, hosts, None().Apply(hosts))
		assert.Equal(t, hosts, Resolve(hosts, ""))
	}
}

func TestWithRoleIsSoundCompleteAndOrdered(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		hosts := randomHosts(r, r.Intn(10))
		for _, role := range []string{"master", "agent", "database", "dashboard", "missing"} {
			got := WithRole(hosts, role)

			var want []*entity.Host
			for _, h := range hosts {
				if h.HasRole(role) {
					want = append(want, h)
				}
			}
			if diff := cmp.Diff(entity.HostNames(want), entity.HostNames(got)); diff != "" {
				t.Fatalf("WithRole(%s) mismatch (-want +got):\n%s", role, diff)
			}
		}
	}
}

func TestWithRoleTrimsRole(t *testing.T) {
	hosts := exampleHosts(t)
	assert.Equal(t, []string{"web1"}, entity.HostNames(WithRole(hosts, " master ")))
}

func TestWithNameMatchesAnyIdentityPrefix(t *testing.T) {
	a := mustHost(t, "alpha")
	a.VMHostname = "vm-alpha.local"
	b := mustHost(t, "beta")
	b.IP = "192.168.1.20"
	c := mustHost(t, "gamma")
	hosts := []*entity.Host{a, b, c}

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{"by name", "al", []string{"alpha"}},
		{"by vm hostname", "vm-", []string{"alpha"}},
		{"by ip", "192.168", []string{"beta"}},
		{"no match", "delta", []string{}},
		{"prefix not substring", "pha", []string{}},
		{"several", "", []string{"alpha", "beta", "gamma"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entity.HostNames(WithName(hosts, tt.prefix)))
		})
	}
}

func TestOnlyWithRole(t *testing.T) {
	hosts := []*entity.Host{
		mustHost(t, "web1", "master", "agent"),
		mustHost(t, "web2", "agent"),
		mustHost(t, "db1", "database"),
	}

	h, err := OnlyWithRole(hosts, "database")
	require.NoError(t, err)
	assert.Equal(t, "db1", h.Name)

	_, err = OnlyWithRole(hosts, "agent")
	var ambiguous *breverrors.AmbiguousSelectionError
	require.True(t, breverrors.As(err, &ambiguous))
	assert.Equal(t, []string{"web1", "web2"}, ambiguous.Matches)
	assert.Contains(t, err.Error(), "agent")
	assert.Contains(t, err.Error(), "web1, web2")

	_, err = OnlyWithRole(hosts, "")
	var invalid *breverrors.InvalidArgumentError
	require.True(t, breverrors.As(err, &invalid))
}

func TestAtMostOneWithRole(t *testing.T) {
	hosts := []*entity.Host{
		mustHost(t, "web1", "agent"),
		mustHost(t, "web2", "agent"),
		mustHost(t, "db1", "database"),
	}

	h, err := AtMostOneWithRole(hosts, "dashboard")
	require.NoError(t, err)
	assert.Nil(t, h)

	h, err = AtMostOneWithRole(hosts, "database")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "db1", h.Name)

	_, err = AtMostOneWithRole(hosts, "agent")
	var ambiguous *breverrors.AmbiguousSelectionError
	require.True(t, breverrors.As(err, &ambiguous))

	_, err = AtMostOneWithRole(hosts, " ")
	var invalid *breverrors.InvalidArgumentError
	require.True(t, breverrors.As(err, &invalid))
}

func TestCountRulesAgainstRandomHosts(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		hosts := randomHosts(r, r.Intn(6))
		count := len(WithRole(hosts, "master"))

		one, oneErr := OnlyWithRole(hosts, "master")
		most, mostErr := AtMostOneWithRole(hosts, "master")
		switch count {
		case 0:
			require.Error(t, oneErr)
			require.NoError(t, mostErr)
			require.Nil(t, most)
		case 1:
			require.NoError(t, oneErr)
			require.NoError(t, mostErr)
			require.Same(t, one, most)
		default:
			require.Error(t, oneErr)
			require.Error(t, mostErr)
		}
	}
}

func TestResolvePrefersRoleOverName(t *testing.T) {
	agent := mustHost(t, "master-box", "agent")
	master := mustHost(t, "other", "master")
	hosts := []*entity.Host{agent, master}

	assert.Equal(t, []string{"other"}, entity.HostNames(Resolve(hosts, "master")))
	assert.Equal(t, []string{"master-box"}, entity.HostNames(Resolve(hosts, "master-")))
	assert.Empty(t, Resolve(hosts, "nothing"))
}

func TestResolveTrimsFilter(t *testing.T) {
	hosts := exampleHosts(t)

	assert.Equal(t, []string{"web1"}, entity.HostNames(Resolve(hosts, " master ")))
	assert.Equal(t, []string{"web2"}, entity.HostNames(Resolve(hosts, "web2\t")))
	assert.Equal(t, entity.HostNames(hosts), entity.HostNames(Resolve(hosts, "   ")))
}

func TestCriterion(t *testing.T) {
	hosts := exampleHosts(t)

	assert.Equal(t, []string{"web1"}, entity.HostNames(ByRole("master").Apply(hosts)))
	assert.Equal(t, []string{"web2"}, entity.HostNames(ByName("web2").Apply(hosts)))
	assert.Equal(t, "role=master", ByRole("master").String())
	assert.Equal(t, "name=web*", ByName("web").String())
	assert.Equal(t, "all", None().String())
	assert.Equal(t, KindNone, None().Kind())
}

func TestSelectorsDoNotMutateInput(t *testing.T) {
	hosts := exampleHosts(t)
	before := entity.HostNames(hosts)
	_ = WithRole(hosts, "agent")
	_ = WithName(hosts, "web2")
	_, _ = OnlyWithRole(hosts, "master")
	assert.Equal(t, before, entity.HostNames(hosts))
}
