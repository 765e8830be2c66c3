package sftpd

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/MaayanLab/ufs/internal/metrics"
	"github.com/MaayanLab/ufs/pkg/backend/memory"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

func testHostKey(t *testing.T) ssh.Signer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	return signer
}

func TestServeSFTP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	require.NoError(t, ufs.Put(ctx, store, ufs.NewPath("/a.txt"), []byte("hello")))

	collector := metrics.NewCollector()
	srv, err := Listen(ctx, "127.0.0.1:0", store, Config{
		Username: "ufs",
		HostKey:  testHostKey(t),
	}, nil, collector)
	require.NoError(t, err)
	defer srv.Close(ctx)

	go srv.Serve(ctx)
	time.Sleep(10 * time.Millisecond)

	sshClient, err := ssh.Dial("tcp", srv.Addr(), &ssh.ClientConfig{
		User:            "ufs",
		Auth:            nil,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	require.NoError(t, err)
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	require.NoError(t, err)
	defer client.Close()

	entries, err := client.ReadDir("/")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Contains(t, names, "a.txt")

	r, err := client.Open("/a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, "hello", string(data))

	w, err := client.Create("/b.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := ufs.Cat(ctx, store, ufs.NewPath("/b.txt"))
	require.NoError(t, err)
	require.Equal(t, "world", string(got))

	require.NoError(t, client.Mkdir("/dir"))
	_, err = store.Info(ctx, ufs.NewPath("/dir"))
	require.NoError(t, err)

	require.NoError(t, client.Remove("/a.txt"))
	_, err = store.Info(ctx, ufs.NewPath("/a.txt"))
	require.Error(t, err)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	require.Contains(t, body, `ufs_bytes_total{component="sftp",direction="write"} 5`)
	require.Contains(t, body, `component="sftp",operation="Mkdir",status="ok"`)
}

func TestPasswordAuthRejectsWrongCredentials(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.New()
	password := "secret"
	srv, err := Listen(ctx, "127.0.0.1:0", store, Config{
		Username: "ufs",
		Password: &password,
		HostKey:  testHostKey(t),
	}, nil, nil)
	require.NoError(t, err)
	defer srv.Close(ctx)

	go srv.Serve(ctx)
	time.Sleep(10 * time.Millisecond)

	_, err = ssh.Dial("tcp", srv.Addr(), &ssh.ClientConfig{
		User:            "ufs",
		Auth:            []ssh.AuthMethod{ssh.Password("wrong")},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	require.Error(t, err)

	client, err := ssh.Dial("tcp", srv.Addr(), &ssh.ClientConfig{
		User:            "ufs",
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	require.NoError(t, err)
	client.Close()
}
