package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Always use Is and As; %+v prints the stack added by WrapAndTrace.

func Test_errorNew(t *testing.T) {
	err := New("my error")
	assert.Equal(t, "my error", err.Error())

	assert.True(t, Is(err, err))
	otherErr := New("other error")
	assert.False(t, Is(err, otherErr))

	wrappedErr := Wrap(err, "wrap message")
	assert.True(t, Is(wrappedErr, err))
	assert.Equal(t, "wrap message: my error", wrappedErr.Error())
}

func Test_WrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
}

func Test_WrapAndTraceKeepsChain(t *testing.T) {
	err := New("my error")

	wrap1 := WrapAndTrace(Errorf("wrap 1: %w", err))
	wrap2 := WrapAndTrace(wrap1, "context")

	assert.True(t, Is(wrap2, err))
	assert.Contains(t, wrap2.Error(), "[error]")
	assert.Contains(t, wrap2.Error(), "context")
	assert.Equal(t, err, Root(wrap2))
}

func Test_JoinError(t *testing.T) {
	err1 := New("my error 1")
	err2 := New("my error 2")

	joinedErr := Join(err1, err2)
	assert.Equal(t, "my error 1\nmy error 2", joinedErr.Error())
	assert.True(t, Is(joinedErr, err1))
	assert.True(t, Is(joinedErr, err2))
	assert.Nil(t, Join(nil, nil))
}

func Test_AmbiguousSelectionMessage(t *testing.T) {
	none := &AmbiguousSelectionError{Role: "master"}
	assert.Equal(t, "There should be one host with master defined!", none.Error())

	many := &AmbiguousSelectionError{Role: "master", Matches: []string{"web1", "web2"}}
	assert.Equal(t, "There should be only one host with master defined, but I found 2 (web1, web2)", many.Error())

	var target *AmbiguousSelectionError
	require.True(t, As(WrapAndTrace(many), &target))
	assert.Equal(t, []string{"web1", "web2"}, target.Matches)
}

func Test_ProvisioningErrorMessage(t *testing.T) {
	exit := &ProvisioningError{Op: "vagrant up", ExitCode: 1, Output: "boom\n"}
	assert.Equal(t, "vagrant up failed with exit status 1\noutput:\nboom", exit.Error())

	cause := New("executable file not found")
	launch := &ProvisioningError{Op: "vagrant ssh-config", Host: "web1", Err: cause}
	assert.Equal(t, "vagrant ssh-config web1 failed: executable file not found", launch.Error())
	assert.True(t, Is(launch, cause))
}

func Test_InvalidArgumentIsFleetError(t *testing.T) {
	var err error = NewInvalidArgumentError("role cannot be %s", "empty")
	fe, ok := err.(FleetError)
	require.True(t, ok)
	assert.Equal(t, "role cannot be empty", fe.Error())
	assert.NotEmpty(t, fe.Directive())
	fmt.Printf("%+v\n", WrapAndTrace(err))
}
