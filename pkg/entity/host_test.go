package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	breverrors "github.com/brevdev/fleet/pkg/errors"
)

type countingConn struct {
	closed int
	err    error
}

func (c *countingConn) Close() error {
	c.closed++
	return c.err
}

func TestNewHostRejectsEmptyName(t *testing.T) {
	_, err := NewHost("  ")
	require.Error(t, err)

	var invalid *breverrors.InvalidArgumentError
	assert.True(t, breverrors.As(err, &invalid))
}

func TestNewHostNormalizesRoles(t *testing.T) {
	h, err := NewHost("web1", " master", "agent", "", "master ", "database")
	require.NoError(t, err)
	assert.Equal(t, []string{"master", "agent", "database"}, h.Roles)
	assert.True(t, h.HasRole("agent"))
	assert.True(t, h.HasRole(" agent "))
	assert.False(t, h.HasRole("dashboard"))
}

func TestHostWithoutRoles(t *testing.T) {
	h, err := NewHost("web1")
	require.NoError(t, err)
	assert.Empty(t, h.Roles)
	assert.False(t, h.HasRole("master"))
}

func TestIdentitiesSkipsUnset(t *testing.T) {
	h := &Host{Name: "web1", IP: "10.0.0.4"}
	assert.Equal(t, []string{"web1", "10.0.0.4"}, h.Identities())
}

func TestCloseConnectionIsIdempotent(t *testing.T) {
	h := &Host{Name: "web1"}
	require.NoError(t, h.CloseConnection())

	conn := &countingConn{}
	h.SetConnection(conn)
	require.NoError(t, h.CloseConnection())
	require.NoError(t, h.CloseConnection())
	assert.Equal(t, 1, conn.closed)
	assert.Nil(t, h.Connection())
}

func TestConnectorReopensAfterClose(t *testing.T) {
	h := &Host{Name: "web1"}
	var opened []*countingConn
	h.SetConnector(func() Connection {
		c := &countingConn{}
		opened = append(opened, c)
		return c
	})

	first := h.Connection()
	assert.Same(t, first, h.Connection())
	require.Len(t, opened, 1)

	require.NoError(t, h.CloseConnection())
	assert.Equal(t, 1, opened[0].closed)

	second := h.Connection()
	require.Len(t, opened, 2)
	assert.NotSame(t, first, second)
	assert.Zero(t, opened[1].closed)
}

func TestConnectorReturningNilLeavesSlotEmpty(t *testing.T) {
	h := &Host{Name: "web1"}
	h.SetConnector(func() Connection { return nil })
	assert.Nil(t, h.Connection())
	require.NoError(t, h.CloseConnection())
}

func TestCloseConnectionReportsHost(t *testing.T) {
	h := &Host{Name: "web1"}
	h.SetConnection(&countingConn{err: breverrors.New("broken pipe")})
	err := h.CloseConnection()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web1")
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestHostNames(t *testing.T) {
	hosts := []*Host{{Name: "web1"}, {Name: "web2"}}
	assert.Equal(t, []string{"web1", "web2"}, HostNames(hosts))
	assert.Empty(t, HostNames(nil))
}
