package ftpstore

import (
	"testing"

	"github.com/MaayanLab/ufs/internal/circuit"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/stretchr/testify/require"
)

// TestNewDefaultsPort verifies the Config{} zero-value port is defaulted to
// 21, mirroring Python's `port: int = 21` default.
func TestNewDefaultsPort(t *testing.T) {
	store := New(Config{Host: "ftp.example.com", User: "anon"})
	d, ok := store.(ufs.Describable)
	require.True(t, ok)
	descr := d.Describe()
	require.Equal(t, "ftpstore.Store", descr.Cls)
	require.Equal(t, 21, descr.Params["port"])
}

func TestDescriptorRoundtripsThroughRegistry(t *testing.T) {
	orig := New(Config{Host: "ftp.example.com", Port: 2121, User: "u", Passwd: "p"})
	descr := orig.(ufs.Describable).Describe()

	rebuilt, err := ufs.FromDescriptor(descr)
	require.NoError(t, err)
	require.Equal(t, descr, rebuilt.(ufs.Describable).Describe())
}

// TestClientTripsBreakerAfterRepeatedDialFailures verifies that dialing a
// host with nothing listening fails every call, and that after enough
// consecutive failures the breaker opens and starts rejecting without
// even attempting to dial again.
func TestClientTripsBreakerAfterRepeatedDialFailures(t *testing.T) {
	store := New(Config{Host: "127.0.0.1", Port: 1, User: "anon"})
	b := store.(describableStore).b

	for i := 0; i < 3; i++ {
		_, err := b.client()
		require.Error(t, err)
	}

	require.Equal(t, "OPEN", b.breaker.GetState().String())

	_, err := b.client()
	require.ErrorIs(t, err, circuit.ErrOpenState)
}

func TestAsStringAsIntCoercion(t *testing.T) {
	require.Equal(t, "x", asString("x"))
	require.Equal(t, "", asString(42))
	require.Equal(t, 21, asInt(21))
	require.Equal(t, 21, asInt(int64(21)))
	require.Equal(t, 21, asInt(float64(21)))
	require.Equal(t, 0, asInt("nope"))
}
