package transport

import (
	"errors"
	"fmt"
	"testing"

	"github.com/opd-ai/simnet/interfaces"
	"github.com/opd-ai/simnet/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketManagerPortPolicy(t *testing.T) {
	tests := []struct {
		name      string
		role      Role
		requested int
		failPorts []int
		attempts  []int
		wantErr   bool
	}{
		{"server default", RoleServer, interfaces.PortUnspecified, nil, []int{DefaultServerPort}, false},
		{"server explicit", RoleServer, 28000, nil, []int{28000}, false},
		{"server ephemeral", RoleServer, interfaces.PortAny, nil, []int{0}, false},
		{"server bind failure is not retried", RoleServer, interfaces.PortUnspecified, []int{DefaultServerPort}, []int{DefaultServerPort}, true},
		{"client default", RoleClient, interfaces.PortUnspecified, nil, []int{DefaultClientPort}, false},
		{"client default falls back to ephemeral", RoleClient, interfaces.PortUnspecified, []int{DefaultClientPort}, []int{DefaultClientPort, 0}, false},
		{"client explicit falls back to ephemeral", RoleClient, 30000, []int{30000}, []int{30000, 0}, false},
		{"client ephemeral failure", RoleClient, interfaces.PortAny, []int{0}, []int{0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := newFakeFactory()
			for _, p := range tt.failPorts {
				factory.failPorts[p] = true
			}
			m := NewSocketManager(factory)

			err := m.Open(tt.role, "", tt.requested)
			assert.Equal(t, tt.attempts, factory.attempts)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrSocketOpen)
				var serr *SocketOpenError
				require.True(t, errors.As(err, &serr))
				assert.Equal(t, tt.role, serr.Role)
				assert.False(t, m.IsOpen(tt.role))
				return
			}
			require.NoError(t, err)
			assert.True(t, m.IsOpen(tt.role))
		})
	}
}

func TestSocketManagerDefaultPortOverride(t *testing.T) {
	factory := newFakeFactory()
	m := NewSocketManager(factory)
	m.SetDefaultPorts(40000, 40001)

	require.NoError(t, m.Open(RoleServer, "", interfaces.PortUnspecified))
	require.NoError(t, m.Open(RoleClient, "", interfaces.PortUnspecified))
	assert.Equal(t, []int{40000, 40001}, factory.attempts)
}

func TestSocketManagerBadInterface(t *testing.T) {
	factory := newFakeFactory()
	m := NewSocketManager(factory)

	err := m.Open(RoleServer, "1.2.3", interfaces.PortUnspecified)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSocketOpen)
	assert.ErrorIs(t, err, ErrAddressParse)
	assert.Empty(t, factory.attempts)
}

func TestSocketManagerOpenIsIdempotent(t *testing.T) {
	factory := newFakeFactory()
	m := NewSocketManager(factory)

	require.NoError(t, m.Open(RoleServer, "localhost", interfaces.PortUnspecified))
	require.NoError(t, m.Open(RoleServer, "localhost", interfaces.PortUnspecified))
	assert.Equal(t, 1, factory.opens)
}

func TestSocketManagerCloseIsIdempotent(t *testing.T) {
	factory := newFakeFactory()
	m := NewSocketManager(factory)

	require.NoError(t, m.Close(RoleClient))
	require.NoError(t, m.Open(RoleClient, "", interfaces.PortUnspecified))
	require.NoError(t, m.Close(RoleClient))
	require.NoError(t, m.Close(RoleClient))
	assert.True(t, factory.sockets[0].closed)
	assert.False(t, m.IsOpen(RoleClient))
	assert.Nil(t, m.LocalAddr(RoleClient))
}

func TestSocketManagerCloseAllCombinesErrors(t *testing.T) {
	factory := newFakeFactory()
	m := NewSocketManager(factory)
	require.NoError(t, m.Open(RoleServer, "", interfaces.PortUnspecified))
	require.NoError(t, m.Open(RoleClient, "", interfaces.PortUnspecified))
	factory.sockets[0].closeErr = errors.New("server close")
	factory.sockets[1].closeErr = errors.New("client close")

	err := m.CloseAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server close")
	assert.Contains(t, err.Error(), "client close")
	assert.False(t, m.IsOpen(RoleServer))
	assert.False(t, m.IsOpen(RoleClient))
}

func TestSocketManagerRecv(t *testing.T) {
	from := IPv4Address(10, 0, 0, 2, 27901)

	t.Run("no socket", func(t *testing.T) {
		m := NewSocketManager(newFakeFactory())
		_, n, res := m.Recv(RoleServer, make([]byte, 16))
		assert.Zero(t, n)
		assert.Equal(t, empty(ReasonNoSocket), res)
	})

	t.Run("would block", func(t *testing.T) {
		factory := newFakeFactory()
		m := NewSocketManager(factory)
		require.NoError(t, m.Open(RoleServer, "", interfaces.PortUnspecified))

		_, _, res := m.Recv(RoleServer, make([]byte, 16))
		assert.Equal(t, empty(ReasonWouldBlock), res)
	})

	t.Run("delivered", func(t *testing.T) {
		factory := newFakeFactory()
		m := NewSocketManager(factory)
		require.NoError(t, m.Open(RoleServer, "", interfaces.PortUnspecified))
		factory.sockets[0].reads = []fakeRead{{data: []byte{1, 2, 3}, from: from}}

		buf := make([]byte, 16)
		got, n, res := m.Recv(RoleServer, buf)
		require.True(t, res.Delivered())
		assert.Equal(t, 3, n)
		assert.Equal(t, []byte{1, 2, 3}, buf[:n])
		assert.True(t, EqualFull(from, got))
	})

	t.Run("exactly fits", func(t *testing.T) {
		factory := newFakeFactory()
		m := NewSocketManager(factory)
		require.NoError(t, m.Open(RoleServer, "", interfaces.PortUnspecified))
		factory.sockets[0].reads = []fakeRead{{data: []byte{1, 2, 3, 4}, from: from}}

		buf := make([]byte, 4)
		_, n, res := m.Recv(RoleServer, buf)
		require.True(t, res.Delivered())
		assert.Equal(t, 4, n)
	})

	t.Run("oversized leaves buffer untouched", func(t *testing.T) {
		factory := newFakeFactory()
		m := NewSocketManager(factory)
		require.NoError(t, m.Open(RoleServer, "", interfaces.PortUnspecified))
		factory.sockets[0].reads = []fakeRead{
			{data: []byte{1, 2, 3, 4, 5}, from: from},
			{data: []byte{6}, from: from},
		}

		buf := []byte{9, 9, 9, 9}
		_, n, res := m.Recv(RoleServer, buf)
		assert.Zero(t, n)
		assert.Equal(t, dropped(ReasonOversized), res)
		assert.Equal(t, []byte{9, 9, 9, 9}, buf)

		_, n, res = m.Recv(RoleServer, buf)
		require.True(t, res.Delivered())
		assert.Equal(t, []byte{6}, buf[:n])
	})

	t.Run("unexpected error keeps socket open", func(t *testing.T) {
		factory := newFakeFactory()
		m := NewSocketManager(factory)
		require.NoError(t, m.Open(RoleServer, "", interfaces.PortUnspecified))
		factory.sockets[0].reads = []fakeRead{{err: errors.New("connection refused")}}

		_, _, res := m.Recv(RoleServer, make([]byte, 16))
		assert.Equal(t, StatusFailed, res.Status)
		assert.ErrorIs(t, res.Error(), ErrUnexpectedOS)
		var terr *TransportError
		require.True(t, errors.As(res.Error(), &terr))
		assert.Equal(t, "recv", terr.Op)
		assert.True(t, m.IsOpen(RoleServer))
	})
}

func TestSocketManagerSendTo(t *testing.T) {
	dest := IPv4Address(10, 0, 0, 2, 27910)

	tests := []struct {
		name     string
		dest     Address
		writeErr error
		want     Result
	}{
		{"delivered", dest, nil, delivered()},
		{"would block is silent", dest, ErrWouldBlock, dropped(ReasonWouldBlock)},
		{"broadcast unsupported is silent", BroadcastAddress(27910), fmt.Errorf("%w: sendto", ErrAddressNotAvailable), dropped(ReasonBroadcastUnsupported)},
		{"os rejects size", dest, fmt.Errorf("%w: sendto", ErrOversizedDatagram), dropped(ReasonOversized)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := newFakeFactory()
			m := NewSocketManager(factory)
			require.NoError(t, m.Open(RoleClient, "", interfaces.PortUnspecified))
			factory.sockets[0].writeErr = tt.writeErr

			res := m.SendTo(RoleClient, []byte("hello"), tt.dest)
			assert.Equal(t, tt.want, res)
			assert.NoError(t, res.Error())
		})
	}
}

func TestSocketManagerSendToFailures(t *testing.T) {
	dest := IPv4Address(10, 0, 0, 2, 27910)

	t.Run("unicast address not available", func(t *testing.T) {
		factory := newFakeFactory()
		m := NewSocketManager(factory)
		require.NoError(t, m.Open(RoleClient, "", interfaces.PortUnspecified))
		factory.sockets[0].writeErr = fmt.Errorf("%w: sendto", ErrAddressNotAvailable)

		res := m.SendTo(RoleClient, []byte("x"), dest)
		assert.Equal(t, StatusFailed, res.Status)
		assert.ErrorIs(t, res.Error(), ErrUnexpectedOS)
		assert.ErrorIs(t, res.Error(), ErrAddressNotAvailable)
	})

	t.Run("other os error keeps socket usable", func(t *testing.T) {
		factory := newFakeFactory()
		m := NewSocketManager(factory)
		require.NoError(t, m.Open(RoleClient, "", interfaces.PortUnspecified))
		sock := factory.sockets[0]
		sock.writeErr = errors.New("network is unreachable")

		res := m.SendTo(RoleClient, []byte("x"), dest)
		require.Equal(t, StatusFailed, res.Status)
		var terr *TransportError
		require.True(t, errors.As(res.Error(), &terr))
		assert.Equal(t, "send", terr.Op)
		assert.True(t, EqualFull(dest, terr.Addr))

		sock.writeErr = nil
		assert.True(t, m.SendTo(RoleClient, []byte("y"), dest).Delivered())
		assert.Equal(t, [][]byte{[]byte("y")}, sock.writes)
	})

	t.Run("no socket", func(t *testing.T) {
		m := NewSocketManager(newFakeFactory())
		assert.Equal(t, dropped(ReasonNoSocket), m.SendTo(RoleClient, []byte("x"), dest))
	})

	t.Run("larger than udp allows", func(t *testing.T) {
		factory := newFakeFactory()
		m := NewSocketManager(factory)
		require.NoError(t, m.Open(RoleClient, "", interfaces.PortUnspecified))

		res := m.SendTo(RoleClient, make([]byte, limits.MaxUDPPayload+1), dest)
		assert.Equal(t, dropped(ReasonOversized), res)
		assert.Empty(t, factory.sockets[0].writes)
	})
}

func TestSocketManagerReportsStateChanges(t *testing.T) {
	obs := &recordingObserver{}
	m := NewSocketManager(newFakeFactory())
	m.observer = obs

	require.NoError(t, m.Open(RoleServer, "", interfaces.PortUnspecified))
	require.NoError(t, m.Close(RoleServer))
	require.NoError(t, m.Close(RoleServer))

	assert.Equal(t, []bool{true, false}, obs.changes[RoleServer])
}
