// Package sftpd serves a ufs.Store over SFTP, grounded on
// access/sftp.py's USSHServer/USFTPServer/ufs_via_sftp: an SSH transport
// authenticates a single username (and, optionally, password), and every
// subsystem channel that requests "sftp" gets handed a request server
// backed by the same store. Like access/sftp.py's handlers, which are
// thin wrappers around UOS, the Handlers below delegate to
// pkg/adapter/uos rather than reimplementing open/read/write/stat
// against the store directly.
package sftpd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/MaayanLab/ufs/internal/metrics"
	"github.com/MaayanLab/ufs/pkg/adapter/uos"
	"github.com/MaayanLab/ufs/pkg/ufs"
	"github.com/MaayanLab/ufs/pkg/utils"
)

// Config carries the authentication and host-key material ufs_via_sftp
// takes as arguments.
type Config struct {
	Username string
	Password *string // nil mirrors get_allowed_auths returning "none"
	HostKey  ssh.Signer
}

// Server accepts SSH connections and serves an SFTP subsystem against a
// single Store over each one, mirroring ufs_via_sftp's accept loop.
type Server struct {
	store   ufs.Store
	cfg     Config
	sshCfg  *ssh.ServerConfig
	log     *utils.StructuredLogger
	ln      net.Listener
	metrics *metrics.Collector
}

// Listen starts store and binds addr, returning a Server ready to Serve.
// collector may be nil, in which case no metrics are recorded.
func Listen(ctx context.Context, addr string, store ufs.Store, cfg Config, log *utils.StructuredLogger, collector *metrics.Collector) (*Server, error) {
	if log == nil {
		log, _ = utils.NewStructuredLogger(nil)
	}
	log = log.WithComponent("ufs.sftpd")

	if err := store.Start(ctx); err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		store.Stop(ctx)
		return nil, err
	}

	sshCfg := &ssh.ServerConfig{}
	if cfg.Password == nil {
		// mirrors check_auth_none: any connection as the configured
		// username succeeds with no credential at all.
		sshCfg.NoClientAuth = true
		sshCfg.NoClientAuthCallback = func(meta ssh.ConnMetadata) (*ssh.Permissions, error) {
			if meta.User() == cfg.Username {
				return nil, nil
			}
			return nil, fmt.Errorf("sftpd: unknown user %q", meta.User())
		}
	} else {
		password := *cfg.Password
		sshCfg.PasswordCallback = func(meta ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if meta.User() == cfg.Username && string(pass) == password {
				return nil, nil
			}
			return nil, fmt.Errorf("sftpd: invalid credentials for %q", meta.User())
		}
	}
	sshCfg.AddHostKey(cfg.HostKey)

	return &Server{store: store, cfg: cfg, sshCfg: sshCfg, log: log, ln: ln, metrics: collector}, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Serve accepts connections until the listener is closed, handling each
// one in its own goroutine the way ufs_via_sftp's `while True: accept`
// loop hands every connection a fresh paramiko.Transport.
func (s *Server) Serve(ctx context.Context) error {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(ctx, nc)
	}
}

// Close stops accepting connections and tears down the backing store.
func (s *Server) Close(ctx context.Context) error {
	err := s.ln.Close()
	if stopErr := s.store.Stop(ctx); err == nil {
		err = stopErr
	}
	return err
}

func (s *Server) handleConn(ctx context.Context, nc net.Conn) {
	defer nc.Close()
	s.metrics.ConnOpened("sftp")
	defer s.metrics.ConnClosed("sftp")

	sshConn, chans, reqs, err := ssh.NewServerConn(nc, s.sshCfg)
	if err != nil {
		s.log.Debugf("ssh handshake failed: %v", err)
		return
	}
	defer sshConn.Close()
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		channel, requests, err := newChan.Accept()
		if err != nil {
			s.log.Debugf("channel accept failed: %v", err)
			continue
		}
		go s.handleSession(ctx, channel, requests)
	}
}

func (s *Server) handleSession(ctx context.Context, channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()
	for req := range requests {
		isSubsystem := req.Type == "subsystem" && string(req.Payload[4:]) == "sftp"
		req.Reply(isSubsystem, nil)
		if !isSubsystem {
			continue
		}
		handlers := newHandlers(ctx, s.store, s.metrics)
		server := sftp.NewRequestServer(channel, handlers)
		if err := server.Serve(); err != nil && err != io.EOF {
			s.log.Debugf("sftp session ended: %v", err)
		}
		server.Close()
		return
	}
}

// handler implements sftp.FileReader, FileWriter, FileCmder, and
// FileLister over a single UOS-wrapped Store, mirroring USFTPServer's
// single class covering open/remove/rename/mkdir/rmdir/list/stat.
type handler struct {
	ctx     context.Context
	os      uos.UOS
	metrics *metrics.Collector
}

func newHandlers(ctx context.Context, store ufs.Store, collector *metrics.Collector) sftp.Handlers {
	h := &handler{ctx: ctx, os: uos.New(store), metrics: collector}
	return sftp.Handlers{FileGet: h, FilePut: h, FileCmd: h, FileList: h}
}

func (h *handler) Fileread(r *sftp.Request) (io.ReaderAt, error) {
	fh, err := h.os.Open(h.ctx, ufs.NewPath(r.Filepath), os.O_RDONLY, nil)
	if err != nil {
		return nil, translateErr(err)
	}
	return &storeFile{ctx: h.ctx, os: h.os, handle: fh, metrics: h.metrics}, nil
}

func (h *handler) Filewrite(r *sftp.Request) (io.WriterAt, error) {
	pflags := r.Pflags()
	var flags int
	if pflags.Read {
		flags = os.O_RDWR
	} else {
		flags = os.O_WRONLY
	}
	if pflags.Append {
		flags |= os.O_APPEND
	}
	if pflags.Trunc {
		flags |= os.O_TRUNC
	}
	fh, err := h.os.Open(h.ctx, ufs.NewPath(r.Filepath), flags, nil)
	if err != nil {
		return nil, translateErr(err)
	}
	return &storeFile{ctx: h.ctx, os: h.os, handle: fh, metrics: h.metrics}, nil
}

func (h *handler) Filecmd(r *sftp.Request) error {
	start := time.Now()
	err := h.filecmd(r)
	h.metrics.Observe("sftp", r.Method, start, "", 0, err)
	return err
}

func (h *handler) filecmd(r *sftp.Request) error {
	path := ufs.NewPath(r.Filepath)
	switch r.Method {
	case "Mkdir":
		return translateErr(h.os.Mkdir(h.ctx, path))
	case "Rmdir":
		return translateErr(h.os.Rmdir(h.ctx, path))
	case "Remove":
		return translateErr(h.os.Unlink(h.ctx, path))
	case "Rename":
		return translateErr(h.os.Rename(h.ctx, path, ufs.NewPath(r.Target)))
	case "Setstat":
		// USFTPServer.chattr always returns SFTP_OK without applying
		// the attributes; mirrored here rather than decoding Attrs.
		return nil
	default:
		return sftp.ErrSSHFxOpUnsupported
	}
}

func (h *handler) Filelist(r *sftp.Request) (sftp.ListerAt, error) {
	start := time.Now()
	lister, err := h.filelist(r)
	h.metrics.Observe("sftp", r.Method, start, "", 0, err)
	return lister, err
}

func (h *handler) filelist(r *sftp.Request) (sftp.ListerAt, error) {
	path := ufs.NewPath(r.Filepath)
	switch r.Method {
	case "List":
		names, err := h.os.Listdir(h.ctx, path)
		if err != nil {
			return nil, translateErr(err)
		}
		infos := make([]os.FileInfo, 0, len(names))
		for _, name := range names {
			stat, err := h.os.Stat(h.ctx, path.Join(name))
			if err != nil {
				continue
			}
			infos = append(infos, fileInfo{name: name, stat: stat})
		}
		return fileInfoLister(infos), nil
	case "Stat", "Readlink":
		stat, err := h.os.Stat(h.ctx, path)
		if err != nil {
			return nil, translateErr(err)
		}
		return fileInfoLister{fileInfo{name: path.Name(), stat: stat}}, nil
	default:
		return nil, sftp.ErrSSHFxOpUnsupported
	}
}

// storeFile bridges ufs's seek-then-read/write handle model to the
// io.ReaderAt/io.WriterAt interfaces pkg/sftp's request server expects,
// serializing access since a single ufs.Handle has one cursor.
type storeFile struct {
	ctx     context.Context
	os      uos.UOS
	handle  ufs.Handle
	mu      sync.Mutex
	metrics *metrics.Collector
}

func (f *storeFile) ReadAt(p []byte, off int64) (int, error) {
	start := time.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.os.Lseek(f.ctx, f.handle, off, ufs.SeekStart); err != nil {
		return 0, translateErr(err)
	}
	n := 0
	for n < len(p) {
		chunk, err := f.os.Read(f.ctx, f.handle, len(p)-n)
		if len(chunk) > 0 {
			copy(p[n:], chunk)
			n += len(chunk)
		}
		if err != nil {
			f.metrics.Observe("sftp", "read", start, "read", int64(n), err)
			return n, translateErr(err)
		}
		if len(chunk) == 0 {
			f.metrics.Observe("sftp", "read", start, "read", int64(n), io.EOF)
			return n, io.EOF
		}
	}
	f.metrics.Observe("sftp", "read", start, "read", int64(n), nil)
	return n, nil
}

func (f *storeFile) WriteAt(p []byte, off int64) (int, error) {
	start := time.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.os.Lseek(f.ctx, f.handle, off, ufs.SeekStart); err != nil {
		return 0, translateErr(err)
	}
	n, err := f.os.Write(f.ctx, f.handle, p)
	f.metrics.Observe("sftp", "write", start, "write", int64(n), err)
	if err != nil {
		return n, translateErr(err)
	}
	return n, nil
}

// Close releases the underlying handle. pkg/sftp's request server closes
// the ReaderAt/WriterAt it was handed if it also implements io.Closer.
func (f *storeFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return translateErr(f.os.Close(f.ctx, f.handle))
}

type fileInfo struct {
	name string
	stat ufs.FileStat
}

func (fi fileInfo) Name() string { return fi.name }
func (fi fileInfo) Size() int64  { return fi.stat.Size }
func (fi fileInfo) Mode() os.FileMode {
	if fi.stat.IsDir() {
		return os.ModeDir | 0755
	}
	return 0644
}
func (fi fileInfo) ModTime() time.Time { return fi.stat.Mtime }
func (fi fileInfo) IsDir() bool        { return fi.stat.IsDir() }
func (fi fileInfo) Sys() interface{}   { return nil }

type fileInfoLister []os.FileInfo

func (l fileInfoLister) ListAt(dst []os.FileInfo, offset int64) (int, error) {
	if offset >= int64(len(l)) {
		return 0, io.EOF
	}
	n := copy(dst, l[offset:])
	if int64(n)+offset >= int64(len(l)) {
		return n, io.EOF
	}
	return n, nil
}

// translateErr maps the ufs error taxonomy onto pkg/sftp's status
// sentinels, mirroring USFTPServer's `except OSError as e: return
// paramiko.SFTPServer.convert_errno(e.errno)` blocks.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ufs.ErrNotFound):
		return sftp.ErrSSHFxNoSuchFile
	case errors.Is(err, ufs.ErrPermissionDenied):
		return sftp.ErrSSHFxPermissionDenied
	case errors.Is(err, ufs.ErrUnsupported):
		return sftp.ErrSSHFxOpUnsupported
	default:
		return err
	}
}
