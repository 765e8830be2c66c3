// Command ufsworker hosts a single Store over its stdin/stdout pipes,
// speaking the same msgpack request/response protocol as
// pkg/combinator.SocketServer. It is the child process
// pkg/combinator.Process spawns and talks to.
//
// Grounded on _examples/original_source/ufs/access/server.py's
// `if __name__ == '__main__'` entrypoint, which reads a UFS_SPEC
// environment variable holding a JSON-encoded store descriptor and an
// optional UFS_BIND host:port — the socket-serving half of that file is
// cmd/ufsd (internal/server/rpcd), this one serves over stdio instead,
// matching what impl/process.py's worker actually needs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/MaayanLab/ufs/internal/wire"
	"github.com/MaayanLab/ufs/pkg/combinator"
	"github.com/MaayanLab/ufs/pkg/ufs"

	_ "github.com/MaayanLab/ufs/pkg/backend/local"
	_ "github.com/MaayanLab/ufs/pkg/backend/memory"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ufsworker:", err)
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

	ctx := context.Background()
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("starting store: %w", err)
	}
	defer store.Stop(ctx)

	conn := wire.NewConn(stdio{})
	combinator.ServeConn(ctx, store, conn)
	return nil
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
