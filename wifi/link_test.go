package wifi

import (
	"testing"
	"time"

	"github.com/hope-iot/circuit5/hardware/radio"
	"github.com/hope-iot/circuit5/log2"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLink(t testing.TB, m *radio.Mock) *Link {
	l := NewLink(m, log2.NewTest(t, log2.LDebug))
	l.Poll = time.Millisecond
	return l
}

func TestJoinAfterPolls(t *testing.T) {
	t.Parallel()

	m := &radio.Mock{StationScript: []radio.Status{
		radio.StatusIdle,
		radio.StatusConnectFailed,
		radio.StatusConnected,
	}}
	l := testLink(t, m)
	require.NoError(t, l.Join(NewRecord("MyNet", "secret"), time.Second))
	assert.True(t, l.IsUp())
	assert.NotEmpty(t, l.LocalIP())
}

func TestJoinTimeout(t *testing.T) {
	t.Parallel()

	m := &radio.Mock{StationScript: []radio.Status{radio.StatusConnectFailed}}
	l := testLink(t, m)
	err := l.Join(NewRecord("MyNet", "secret"), 5*time.Millisecond)
	assert.True(t, errors.IsTimeout(err), "err=%v", err)
	assert.False(t, l.IsUp())
}

func TestJoinNoRadio(t *testing.T) {
	t.Parallel()

	m := &radio.Mock{Absent: true}
	l := testLink(t, m)
	err := l.Join(NewRecord("MyNet", "secret"), time.Second)
	assert.Equal(t, ErrNoRadio, err)
}
