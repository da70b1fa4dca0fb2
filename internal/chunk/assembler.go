package chunk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	partialPrefix   = "partial_"
	assembledPrefix = "assembled_"
)

var (
	ErrInvalidRange      = errors.New("invalid content range")
	ErrInvalidIdentifier = errors.New("invalid chunk identifier")
	ErrLengthMismatch    = errors.New("chunk length does not match range")
	ErrTotalMismatch     = errors.New("chunk total does not match session")
)

var identifierExpr = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ReassemblyError reports chunk coverage that is not exactly [0,total).
type ReassemblyError struct {
	Identifier string
	Offset     int64
	Reason     string
}

func (e *ReassemblyError) Error() string {
	return fmt.Sprintf("reassemble %s: %s at offset %d", e.Identifier, e.Reason, e.Offset)
}

// Part describes one received byte range of a logical upload.
type Part struct {
	UserID     uint64
	Identifier string
	Filename   string
	Mimetype   string
	Start      int64
	End        int64
	Total      int64
	Last       bool
}

// Assembler stores chunk ranges as individual files and reassembles them on demand.
type Assembler struct {
	dir   string
	arena *Arena
}

// NewAssembler creates the temp directory if needed.
func NewAssembler(dir string, arena *Arena) (*Assembler, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}
	if arena == nil {
		arena = NewArena(nil)
	}
	return &Assembler{dir: dir, arena: arena}, nil
}

// Arena exposes the session arena.
func (a *Assembler) Arena() *Arena {
	return a.arena
}

// ValidIdentifier reports whether a client-supplied identifier is usable as a storage key.
func ValidIdentifier(identifier string) bool {
	return identifierExpr.MatchString(identifier)
}

// Append durably stores one range. It reports complete when the part is the last chunk;
// the caller is then responsible for calling Reassemble.
func (a *Assembler) Append(ctx context.Context, p Part, payload []byte) (bool, error) {
	if !ValidIdentifier(p.Identifier) {
		return false, ErrInvalidIdentifier
	}
	if err := checkRange(p.Start, p.End, p.Total); err != nil {
		return false, err
	}
	if int64(len(payload)) != p.End-p.Start {
		return false, fmt.Errorf("%w: got %d bytes for %d-%d", ErrLengthMismatch, len(payload), p.Start, p.End)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	final := a.chunkPath(p.UserID, p.Identifier, p.Start, p.End)
	if err := writeAtomic(a.dir, final, payload); err != nil {
		return false, err
	}
	if err := a.arena.record(p); err != nil {
		_ = os.Remove(final)
		return false, err
	}
	return p.Last, nil
}

// Reassemble concatenates the stored ranges in ascending start order into a single
// file and returns its path and size. Every offset in [0,total) must be covered by
// exactly one range.
func (a *Assembler) Reassemble(ctx context.Context, userID uint64, identifier string, total int64) (string, int64, error) {
	chunks, err := a.listChunks(userID, identifier)
	if err != nil {
		return "", 0, err
	}
	var cursor int64
	for _, c := range chunks {
		switch {
		case c.Start > cursor:
			return "", 0, &ReassemblyError{Identifier: identifier, Offset: cursor, Reason: "gap"}
		case c.Start < cursor:
			return "", 0, &ReassemblyError{Identifier: identifier, Offset: c.Start, Reason: "overlap"}
		}
		if c.size != c.End-c.Start {
			return "", 0, &ReassemblyError{Identifier: identifier, Offset: c.Start, Reason: "chunk size mismatch"}
		}
		cursor = c.End
	}
	if cursor != total {
		return "", 0, &ReassemblyError{Identifier: identifier, Offset: cursor, Reason: "incomplete"}
	}

	out, err := os.CreateTemp(a.dir, ".assemble-*")
	if err != nil {
		return "", 0, err
	}
	tmpName := out.Name()
	fail := func(err error) (string, int64, error) {
		_ = out.Close()
		_ = os.Remove(tmpName)
		return "", 0, err
	}
	var written int64
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		n, err := copyFile(out, c.path)
		if err != nil {
			return fail(err)
		}
		written += n
	}
	if written != total {
		return fail(&ReassemblyError{Identifier: identifier, Offset: written, Reason: "short read"})
	}
	if err := out.Sync(); err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", 0, err
	}
	dest := filepath.Join(a.dir, assembledPrefix+sessionKey(userID, identifier))
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return "", 0, err
	}
	return dest, written, nil
}

// Cleanup removes every temp file of the session and evicts it from the arena.
func (a *Assembler) Cleanup(userID uint64, identifier string) error {
	a.arena.Evict(userID, identifier)
	chunks, err := a.listChunks(userID, identifier)
	if err != nil {
		return err
	}
	var errs []error
	for _, c := range chunks {
		if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	assembled := filepath.Join(a.dir, assembledPrefix+sessionKey(userID, identifier))
	if err := os.Remove(assembled); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Sweep evicts stale sessions and removes their temp files. Files are grouped by
// session; a group is removed only when no live session owns it and every file in
// it is older than staleness. It returns the number of files removed.
func (a *Assembler) Sweep(staleness time.Duration) (int, error) {
	cutoff := a.arena.now().Add(-staleness)
	for _, s := range a.arena.Stale(cutoff) {
		a.arena.Evict(s.UserID, s.Identifier)
	}
	live := a.arena.keys()

	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, err
	}
	groups := make(map[string][]string)
	fresh := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		key, ok := sessionOf(name)
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			fresh[key] = true
		}
		groups[key] = append(groups[key], name)
	}

	removed := 0
	var errs []error
	for key, names := range groups {
		if live[key] || fresh[key] {
			continue
		}
		for _, name := range names {
			err := os.Remove(filepath.Join(a.dir, name))
			switch {
			case err == nil:
				removed++
			case !os.IsNotExist(err):
				errs = append(errs, err)
			}
		}
	}
	return removed, errors.Join(errs...)
}

// sessionOf returns the session key encoded in a temp file name.
func sessionOf(name string) (string, bool) {
	if rest, ok := strings.CutPrefix(name, assembledPrefix); ok {
		return rest, rest != ""
	}
	rest, ok := strings.CutPrefix(name, partialPrefix)
	if !ok {
		return "", false
	}
	parts := strings.Split(rest, "_")
	if len(parts) < 4 {
		return "", false
	}
	return strings.Join(parts[:len(parts)-2], "_"), true
}

type storedChunk struct {
	Range
	path string
	size int64
}

func (a *Assembler) chunkPath(userID uint64, identifier string, start, end int64) string {
	name := fmt.Sprintf("%s%s_%d_%d", partialPrefix, sessionKey(userID, identifier), start, end)
	return filepath.Join(a.dir, name)
}

func (a *Assembler) listChunks(userID uint64, identifier string) ([]storedChunk, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, err
	}
	prefix := partialPrefix + sessionKey(userID, identifier) + "_"
	var chunks []storedChunk
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		bounds := strings.Split(strings.TrimPrefix(name, prefix), "_")
		if len(bounds) != 2 {
			continue
		}
		start, err1 := strconv.ParseInt(bounds[0], 10, 64)
		end, err2 := strconv.ParseInt(bounds[1], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, storedChunk{
			Range: Range{Start: start, End: end},
			path:  filepath.Join(a.dir, name),
			size:  info.Size(),
		})
	}
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Start == chunks[j].Start {
			return chunks[i].End < chunks[j].End
		}
		return chunks[i].Start < chunks[j].Start
	})
	return chunks, nil
}

func writeAtomic(dir, dest string, payload []byte) error {
	tmp, err := os.CreateTemp(dir, ".chunk-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func copyFile(dst io.Writer, src string) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(dst, f)
}
