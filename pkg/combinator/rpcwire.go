package combinator

import (
	"errors"
	"fmt"
	"time"

	"github.com/MaayanLab/ufs/internal/wire"
	"github.com/MaayanLab/ufs/pkg/ufs"
)

// encodeOpenMode/decodeOpenMode, encodeStat/decodeStat and friends convert
// between the Go-native Store argument/return types and the
// msgpack-friendly representations (strings, maps, int64, []byte) carried
// over internal/wire.Request/Response. Grounded on the wire shape implied
// by _examples/original_source/ufs/impl/client.py +
// access/server.py, which pass path strings, mode strings, and plain
// dicts/tuples across the msgpack boundary rather than rich objects.

func encodeOpenMode(m ufs.OpenMode) map[string]interface{} {
	return map[string]interface{}{
		"read":     m.Read,
		"write":    m.Write,
		"append":   m.Append,
		"updating": m.Updating,
	}
}

func decodeOpenMode(v interface{}) ufs.OpenMode {
	m, _ := v.(map[string]interface{})
	asBool := func(key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	return ufs.OpenMode{
		Read:     asBool("read"),
		Write:    asBool("write"),
		Append:   asBool("append"),
		Updating: asBool("updating"),
	}
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func encodeStat(s ufs.FileStat) map[string]interface{} {
	return map[string]interface{}{
		"type":  s.Type.String(),
		"size":  s.Size,
		"atime": s.Atime.Unix(),
		"ctime": s.Ctime.Unix(),
		"mtime": s.Mtime.Unix(),
	}
}

func decodeStat(v interface{}) ufs.FileStat {
	m, _ := v.(map[string]interface{})
	typ := ufs.TypeFile
	if s, _ := m["type"].(string); s == "directory" {
		typ = ufs.TypeDirectory
	}
	return ufs.FileStat{
		Type:  typ,
		Size:  asInt64(m["size"]),
		Atime: time.Unix(asInt64(m["atime"]), 0).UTC(),
		Ctime: time.Unix(asInt64(m["ctime"]), 0).UTC(),
		Mtime: time.Unix(asInt64(m["mtime"]), 0).UTC(),
	}
}

func decodeStringSlice(v interface{}) []string {
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, _ := it.(string)
		out = append(out, s)
	}
	return out
}

func toStringSlice(names []string) []interface{} {
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

// kindToSentinel maps the taxonomy discriminator carried over the wire
// back to the matching ufs.Err* sentinel. The inverse direction lives in
// sentinelKind below.
var kindToSentinel = map[string]error{
	"not_found":         ufs.ErrNotFound,
	"already_exists":    ufs.ErrAlreadyExists,
	"not_a_directory":   ufs.ErrNotADirectory,
	"is_a_directory":    ufs.ErrIsADirectory,
	"not_empty":         ufs.ErrNotEmpty,
	"permission_denied": ufs.ErrPermissionDenied,
	"unsupported":       ufs.ErrUnsupported,
}

// sentinelKind reports which taxonomy sentinel err wraps, or "" if none
// (an Io-wrapped cause, a transport-level error, ...).
func sentinelKind(err error) string {
	switch {
	case errors.Is(err, ufs.ErrNotFound):
		return "not_found"
	case errors.Is(err, ufs.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ufs.ErrNotADirectory):
		return "not_a_directory"
	case errors.Is(err, ufs.ErrIsADirectory):
		return "is_a_directory"
	case errors.Is(err, ufs.ErrNotEmpty):
		return "not_empty"
	case errors.Is(err, ufs.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ufs.ErrUnsupported):
		return "unsupported"
	default:
		return ""
	}
}

// encodeErr fills resp's error fields from err, carrying a *ufs.PathError's
// Op/Path and taxonomy kind across the wire (spec §6/§7) rather than
// flattening err to a bare message the way a plain err.Error() would.
func encodeErr(resp *wire.Response, err error) {
	if err == nil {
		return
	}
	resp.Err = err.Error()
	resp.Kind = sentinelKind(err)
	var pe *ufs.PathError
	if errors.As(err, &pe) {
		resp.Op, resp.Path = pe.Op, pe.Path
	}
}

// decodeErr is the client-side inverse of encodeErr: a recognized Kind
// rebuilds the matching sentinel-wrapped *ufs.PathError so
// errors.Is(err, ufs.ErrNotFound) (and friends) still holds after a
// SocketClient/Process round trip; an unrecognized Kind with an Op/Path
// still rebuilds a *ufs.PathError (just around a generic cause, the way
// ufs.Io does for a cause with no dedicated sentinel); a response with
// no Op/Path at all (an unsupported-op message, a decode failure) falls
// back to a bare error built from the message.
func decodeErr(resp wire.Response) error {
	if resp.Err == "" {
		return nil
	}
	if sentinel, ok := kindToSentinel[resp.Kind]; ok {
		return &ufs.PathError{Op: resp.Op, Path: resp.Path, Err: sentinel}
	}
	if resp.Op != "" || resp.Path != "" {
		return &ufs.PathError{Op: resp.Op, Path: resp.Path, Err: errors.New(resp.Err)}
	}
	return fmt.Errorf("%s", resp.Err)
}
