// Command ufsd serves a single Store over a network protocol chosen at
// startup, the socket-serving sibling cmd/ufsworker's own package doc
// forward-references: where ufsworker speaks the wire protocol over
// stdio for a spawned-subprocess worker, ufsd listens on a real address
// for sftp, drs, the content-addressed blob write surface, or the raw
// socket-RPC protocol that powers combinator.SocketClient.
//
// Grounded on access/server.py's `if __name__ == '__main__'` entrypoint
// (UFS_SPEC/UFS_BIND from the environment) and its counterparts
// access/sftp.py's ufs_via_sftp, access/drs.py's serve_ufs_via_drs, and
// access/blob.py's own Flask entrypoint, which each have their own
// __main__/gunicorn entrypoint in the original; ufsd merges all four
// into one binary selected by UFS_PROTOCOL rather than four separate
// scripts.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/crypto/ssh"

	"github.com/MaayanLab/ufs/internal/metrics"
	"github.com/MaayanLab/ufs/internal/server/blobd"
	"github.com/MaayanLab/ufs/internal/server/drsd"
	"github.com/MaayanLab/ufs/internal/server/rpcd"
	"github.com/MaayanLab/ufs/internal/server/sftpd"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/MaayanLab/ufs/pkg/utils"

	_ "github.com/MaayanLab/ufs/pkg/backend/drsstore"
	_ "github.com/MaayanLab/ufs/pkg/backend/ftpstore"
	_ "github.com/MaayanLab/ufs/pkg/backend/httpstore"
	_ "github.com/MaayanLab/ufs/pkg/backend/local"
	_ "github.com/MaayanLab/ufs/pkg/backend/memory"
	_ "github.com/MaayanLab/ufs/pkg/backend/s3store"
)

// server is the common shape rpcd.Server, sftpd.Server, and drsd.Server
// each already satisfy.
type server interface {
	Addr() string
	Serve(ctx context.Context) error
	Close(ctx context.Context) error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ufsd:", err)
		os.Exit(1)
	}
}

func run() error {
	raw := os.Getenv("UFS_SPEC")
	if raw == "" {
		return fmt.Errorf("UFS_SPEC environment variable is required")
	}
	var descr ufs.Descriptor
	if err := json.Unmarshal([]byte(raw), &descr); err != nil {
		return fmt.Errorf("parsing UFS_SPEC: %w", err)
	}
	store, err := ufs.FromDescriptor(descr)
	if err != nil {
		return fmt.Errorf("constructing store: %w", err)
	}

	bind := os.Getenv("UFS_BIND")
	if bind == "" {
		bind = "127.0.0.1:0"
	}

	log, _ := utils.NewStructuredLogger(nil)
	log = log.WithComponent("ufsd")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := metrics.NewCollector()
	if metricsBind := os.Getenv("UFS_METRICS_BIND"); metricsBind != "" {
		metricsSrv := &http.Server{Addr: metricsBind, Handler: collector.Handler()}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("metrics server error: %v", err)
			}
		}()
		defer metricsSrv.Close()
		log.Infof("serving metrics on %s", metricsBind)
	}

	protocol := envOr("UFS_PROTOCOL", "rpc")
	srv, err := listen(ctx, protocol, bind, store, log, collector)
	if err != nil {
		return err
	}
	log.Infof("listening on %s (protocol=%s)", srv.Addr(), protocol)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	select {
	case <-sig:
		log.Infof("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Errorf("serve error: %v", err)
		}
	}
	return srv.Close(context.Background())
}

func listen(ctx context.Context, protocol, bind string, store ufs.Store, log *utils.StructuredLogger, collector *metrics.Collector) (server, error) {
	switch protocol {
	case "rpc":
		return rpcd.Listen(ctx, bind, store, log, collector)
	case "sftp":
		cfg := sftpd.Config{Username: envOr("UFS_SFTP_USERNAME", "ufs")}
		if password := os.Getenv("UFS_SFTP_PASSWORD"); password != "" {
			cfg.Password = &password
		}
		hostKey, err := loadOrGenerateHostKey(os.Getenv("UFS_SFTP_HOST_KEY"))
		if err != nil {
			return nil, fmt.Errorf("loading sftp host key: %w", err)
		}
		cfg.HostKey = hostKey
		return sftpd.Listen(ctx, bind, store, cfg, log, collector)
	case "drs":
		publicURL := os.Getenv("UFS_PUBLIC_URL")
		if publicURL == "" {
			publicURL = "http://" + bind
		}
		return drsd.Listen(ctx, bind, publicURL, store, collector)
	case "blob":
		return blobd.Listen(ctx, bind, store, collector)
	default:
		return nil, fmt.Errorf("unknown UFS_PROTOCOL %q (want rpc, sftp, drs, or blob)", protocol)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadOrGenerateHostKey reads an SSH private key from path, mirroring
// ufs_via_sftp's keyfile argument (default ~/.ssh/id_rsa); if path is
// empty or unreadable, an ephemeral ed25519 key is generated instead so
// ufsd can serve sftp without any pre-provisioned host key.
func loadOrGenerateHostKey(path string) (ssh.Signer, error) {
	if path != "" {
		pem, err := os.ReadFile(path)
		if err == nil {
			return ssh.ParsePrivateKey(pem)
		}
	}
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return ssh.NewSignerFromKey(priv)
}
