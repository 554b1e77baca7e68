//go:build unix
// +build unix

package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableConn(fd int) (*Conn, *mockSocket) {
	m := &mockSocket{}
	return newConn(m, fd, "", 16), m
}

// checkMapping asserts the parallel-slice invariant: equal effective
// lengths and conns[i] matching pfds[i+1].
func checkMapping(t *testing.T, tbl *connTable) {
	t.Helper()
	require.Equal(t, len(tbl.conns)+1, len(tbl.pfds))
	for i, c := range tbl.conns {
		assert.Equal(t, int32(c.fd), tbl.pfds[i+1].Fd)
	}
}

func TestRegisterKeepsSlicesAligned(t *testing.T) {
	tbl := newConnTable(5)
	require.Equal(t, 1, len(tbl.pfds))
	assert.Equal(t, int32(5), tbl.pfds[0].Fd)

	for _, fd := range []int{10, 11, 12} {
		c, _ := tableConn(fd)
		tbl.register(c)
	}

	assert.Equal(t, 3, tbl.size())
	checkMapping(t, tbl)
	for i := 1; i < len(tbl.pfds); i++ {
		assert.Equal(t, int16(readEvents), tbl.pfds[i].Events)
	}
}

func TestSetInterestFlipsRegistration(t *testing.T) {
	tbl := newConnTable(5)
	c, _ := tableConn(10)
	tbl.register(c)

	tbl.setInterest(0, true)
	assert.Equal(t, int16(writeEvents), tbl.pfds[1].Events)

	tbl.setInterest(0, false)
	assert.Equal(t, int16(readEvents), tbl.pfds[1].Events)
}

func TestRemoveClosesAndRealigns(t *testing.T) {
	tbl := newConnTable(5)
	c0, m0 := tableConn(10)
	c1, m1 := tableConn(11)
	c2, m2 := tableConn(12)
	tbl.register(c0)
	tbl.register(c1)
	tbl.register(c2)

	tbl.remove(1)

	assert.True(t, m1.closed)
	assert.False(t, m0.closed)
	assert.False(t, m2.closed)
	assert.Equal(t, 2, tbl.size())
	checkMapping(t, tbl)
	assert.Equal(t, 10, tbl.conns[0].fd)
	assert.Equal(t, 12, tbl.conns[1].fd)
}

func TestSweepHighToLow(t *testing.T) {
	tbl := newConnTable(5)
	socks := make([]*mockSocket, 4)
	for i, fd := range []int{10, 11, 12, 13} {
		c, m := tableConn(fd)
		socks[i] = m
		tbl.register(c)
	}

	// Removing high to low keeps the pending indices valid.
	dead := []int{0, 2, 3}
	for j := len(dead) - 1; j >= 0; j-- {
		tbl.remove(dead[j])
	}

	require.Equal(t, 1, tbl.size())
	assert.Equal(t, 11, tbl.conns[0].fd)
	assert.False(t, socks[1].closed)
	for _, i := range dead {
		assert.True(t, socks[i].closed)
	}
	checkMapping(t, tbl)
}

func TestCloseAll(t *testing.T) {
	tbl := newConnTable(5)
	c0, m0 := tableConn(10)
	c1, m1 := tableConn(11)
	tbl.register(c0)
	tbl.register(c1)

	require.NoError(t, tbl.closeAll())
	assert.True(t, m0.closed)
	assert.True(t, m1.closed)
	assert.Equal(t, 0, tbl.size())
	assert.Equal(t, 1, len(tbl.pfds))
}
