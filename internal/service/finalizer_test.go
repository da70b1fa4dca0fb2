package service

import (
	"Go_Share/config"
	"Go_Share/internal/imageproc"
	"Go_Share/internal/naming"
	"Go_Share/internal/notify"
	"Go_Share/internal/repo"
	"Go_Share/internal/storage"
	"Go_Share/model"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeMeta struct {
	mu      sync.Mutex
	nextID  uint64
	files   map[string]*model.File
	invis   map[string]uint64
	folders map[uint64]uint64
	dupInv  int
}

func newFakeMeta() *fakeMeta {
	return &fakeMeta{
		files:   make(map[string]*model.File),
		invis:   make(map[string]uint64),
		folders: make(map[uint64]uint64),
	}
}

func (m *fakeMeta) NameExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok, nil
}

func (m *fakeMeta) CreateFile(_ context.Context, file *model.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[file.Name]; ok {
		return fmt.Errorf("%w: %s", model.ErrNameTaken, file.Name)
	}
	m.nextID++
	file.ID = m.nextID
	m.files[file.Name] = file
	return nil
}

func (m *fakeMeta) DeleteFile(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, f := range m.files {
		if f.ID == id {
			delete(m.files, name)
		}
	}
	return nil
}

func (m *fakeMeta) CreateInvisible(_ context.Context, inv *model.InvisibleFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dupInv > 0 {
		m.dupInv--
		return repo.ErrDuplicate
	}
	m.invis[inv.Invis] = inv.FileID
	return nil
}

func (m *fakeMeta) FolderOwnedBy(_ context.Context, folderID, userID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.folders[folderID] == userID && userID != 0, nil
}

func (m *fakeMeta) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (b *fakeBlobs) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	if b.putErr != nil {
		return b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.objects[name] = data
	b.mu.Unlock()
	return nil
}

func (b *fakeBlobs) Get(_ context.Context, name string) (io.ReadCloser, storage.ObjectInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[name]
	if !ok {
		return nil, storage.ObjectInfo{}, errors.New("missing")
	}
	return io.NopCloser(bytes.NewReader(data)), storage.ObjectInfo{Name: name, Size: int64(len(data))}, nil
}

func (b *fakeBlobs) Remove(_ context.Context, name string) error {
	b.mu.Lock()
	delete(b.objects, name)
	b.mu.Unlock()
	return nil
}

type fakeStripper struct {
	err   error
	calls int
}

func (s *fakeStripper) StripGPS(context.Context, string, string) error {
	s.calls++
	return s.err
}

type recordingNotifier struct {
	events []notify.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	n.events = append(n.events, e)
	return n.err
}

func testConfig() config.Config {
	return config.Config{
		Core: config.CoreConfig{HTTPS: true},
		Uploader: config.UploaderConfig{
			Route:              "/u",
			Length:             6,
			AdminLimit:         100,
			UserLimit:          10,
			DisabledExtensions: []string{".exe", "sh"},
			DateFormat:         "2006-01-02_15-04-05",
			InvisibleLength:    6,
		},
	}
}

func newTestFinalizer(cfg config.Config, opts ...Option) (*Finalizer, *fakeMeta, *fakeBlobs) {
	meta := newFakeMeta()
	blobs := newFakeBlobs()
	opts = append([]Option{WithDomainPicker(FirstDomain)}, opts...)
	return NewFinalizer(cfg, meta, blobs, opts...), meta, blobs
}

var testUser = &model.User{ID: 1, UserName: "alice"}

func TestFinalizeCreatesOneRecordPerFile(t *testing.T) {
	f, meta, blobs := newTestFinalizer(testConfig())
	ctx := context.Background()
	opts := UploadOptions{Format: naming.Random, Host: "share.example"}

	var urls []string
	for i, body := range []string{"one", "two", "three"} {
		in := FileInput{Index: i, Filename: fmt.Sprintf("f%d.txt", i), Mimetype: "text/plain", Size: int64(len(body))}
		res, err := f.Finalize(ctx, testUser, in, opts, strings.NewReader(body))
		if err != nil {
			t.Fatalf("finalize %d failed: %v", i, err)
		}
		urls = append(urls, res.URL)
		if got := string(blobs.objects[res.File.Name]); got != body {
			t.Fatalf("blob mismatch for %s: %q", res.File.Name, got)
		}
	}
	if meta.count() != 3 || len(urls) != 3 {
		t.Fatalf("expect 3 records and urls, got %d/%d", meta.count(), len(urls))
	}
	for _, u := range urls {
		if !strings.HasPrefix(u, "https://share.example/u/") || !strings.HasSuffix(u, ".txt") {
			t.Fatalf("unexpected url %s", u)
		}
	}
}

func TestSizeLimitBoundary(t *testing.T) {
	f, meta, blobs := newTestFinalizer(testConfig())
	ctx := context.Background()
	opts := UploadOptions{Format: naming.Random, Host: "h"}

	at := strings.Repeat("x", 10)
	if _, err := f.Finalize(ctx, testUser, FileInput{Filename: "a.txt", Size: 10}, opts, strings.NewReader(at)); err != nil {
		t.Fatalf("file at limit should pass: %v", err)
	}
	_, err := f.Finalize(ctx, testUser, FileInput{Index: 1, Filename: "b.txt", Size: 11}, opts, strings.NewReader(at+"x"))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Error() != "file[1]: size too big" {
		t.Fatalf("expect size error, got %v", err)
	}
	if meta.count() != 1 || len(blobs.objects) != 1 {
		t.Fatalf("oversized file must not create record or blob")
	}

	admin := &model.User{ID: 2, UserName: "root", Administrator: true}
	if _, err := f.Finalize(ctx, admin, FileInput{Filename: "c.txt", Size: 11}, opts, strings.NewReader(at+"x")); err != nil {
		t.Fatalf("administrator limit should apply: %v", err)
	}
}

func TestValidationOrder(t *testing.T) {
	f, meta, _ := newTestFinalizer(testConfig())
	ctx := context.Background()
	opts := UploadOptions{Format: naming.Random}

	cases := []struct {
		in   FileInput
		want string
	}{
		{FileInput{Index: 0, Filename: "", Size: 50}, "file[0]: size too big"},
		{FileInput{Index: 1, Filename: "", Size: 1}, "file[1]: no filename"},
		{FileInput{Index: 2, Filename: "run.EXE", Size: 1}, "file[2]: disabled extension received: exe"},
		{FileInput{Index: 3, Filename: "x.sh", Size: 1}, "file[3]: disabled extension received: sh"},
	}
	for _, c := range cases {
		_, err := f.Prepare(ctx, testUser, c.in, opts)
		if err == nil || err.Error() != c.want {
			t.Errorf("expect %q, got %v", c.want, err)
		}
	}
	if meta.count() != 0 {
		t.Fatalf("no record may exist before validation passes")
	}
}

func TestNameFormatCollision(t *testing.T) {
	f, meta, _ := newTestFinalizer(testConfig())
	ctx := context.Background()
	opts := UploadOptions{Format: naming.Name, Host: "h"}

	res, err := f.Finalize(ctx, testUser, FileInput{Filename: "report.pdf", Size: 3}, opts, strings.NewReader("pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if res.File.Name != "report.pdf" {
		t.Fatalf("expect name kept, got %s", res.File.Name)
	}
	_, err = f.Finalize(ctx, testUser, FileInput{Index: 0, Filename: "report.pdf", Size: 3}, opts, strings.NewReader("pdf"))
	if err == nil || err.Error() != "file[0]: filename already exists: 'report.pdf'" {
		t.Fatalf("expect collision, got %v", err)
	}
	if meta.count() != 1 {
		t.Fatalf("expect a single record")
	}
}

func TestNameTakenAtCommit(t *testing.T) {
	f, meta, blobs := newTestFinalizer(testConfig())
	ctx := context.Background()
	opts := UploadOptions{Format: naming.Name, Host: "h"}

	first, err := f.Prepare(ctx, testUser, FileInput{Filename: "race.txt", Size: 1}, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.Prepare(ctx, testUser, FileInput{Index: 1, Filename: "race.txt", Size: 1}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Commit(ctx, first, strings.NewReader("a"), 1); err != nil {
		t.Fatal(err)
	}
	_, err = f.Commit(ctx, second, strings.NewReader("b"), 1)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Index != 1 {
		t.Fatalf("expect name taken validation error, got %v", err)
	}
	if meta.count() != 1 || string(blobs.objects["race.txt"]) != "a" {
		t.Fatalf("losing commit must not overwrite the winner")
	}
}

func TestFilenameOverride(t *testing.T) {
	f, _, _ := newTestFinalizer(testConfig())
	ctx := context.Background()
	opts := UploadOptions{Format: naming.Random, FilenameOverride: "custom", Host: "h"}

	res, err := f.Finalize(ctx, testUser, FileInput{Filename: "orig.png", Mimetype: "image/png", Size: 1}, opts, strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if res.File.Name != "custom.png" {
		t.Fatalf("expect override name, got %s", res.File.Name)
	}
	_, err = f.Prepare(ctx, testUser, FileInput{Filename: "again.png", Size: 1}, opts)
	if err == nil || !strings.Contains(err.Error(), "filename already exists: 'custom.png'") {
		t.Fatalf("override must be checked for collisions, got %v", err)
	}
}

func TestMimetypeResolution(t *testing.T) {
	cfg := testConfig()
	cfg.Uploader.AssumeMimetypes = true
	f, _, _ := newTestFinalizer(cfg)
	ctx := context.Background()
	base := UploadOptions{Format: naming.Random, Host: "h"}

	p, err := f.Prepare(ctx, testUser, FileInput{Filename: "a.png", Mimetype: "application/octet-stream", Size: 1}, base)
	if err != nil {
		t.Fatal(err)
	}
	if p.Mimetype != "image/png" || !p.AssumeAttempted || p.AssumedMimetype != "image/png" {
		t.Fatalf("expect assumed png, got %+v", p)
	}

	p, _ = f.Prepare(ctx, testUser, FileInput{Filename: "a.zzz", Mimetype: "application/octet-stream", Size: 1}, base)
	if p.Mimetype != "application/octet-stream" || !p.AssumeAttempted || p.AssumedMimetype != "" {
		t.Fatalf("unknown extension keeps octet-stream, got %+v", p)
	}

	p, _ = f.Prepare(ctx, testUser, FileInput{Filename: "a.png", Mimetype: "image/webp", Size: 1}, base)
	if p.Mimetype != "image/webp" || p.AssumeAttempted {
		t.Fatalf("declared type wins over lookup, got %+v", p)
	}

	text := base
	text.ForceText = true
	text.CompressionPercent = 50
	p, _ = f.Prepare(ctx, testUser, FileInput{Filename: "a.png", Mimetype: "image/png", Size: 1}, text)
	if p.Mimetype != "text/plain" {
		t.Fatalf("forced text wins, got %s", p.Mimetype)
	}

	cfg.Uploader.AssumeMimetypes = false
	f, _, _ = newTestFinalizer(cfg)
	p, _ = f.Prepare(ctx, testUser, FileInput{Filename: "a.png", Mimetype: "application/octet-stream", Size: 1}, base)
	if p.Mimetype != "application/octet-stream" || p.AssumeAttempted {
		t.Fatalf("lookup disabled, got %+v", p)
	}
}

func TestCompressionForcesJPEG(t *testing.T) {
	cfg := testConfig()
	cfg.Uploader.UserLimit = 1 << 20
	f, _, blobs := newTestFinalizer(cfg)
	ctx := context.Background()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(1, 1, color.RGBA{R: 10, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	opts := UploadOptions{Format: naming.Random, CompressionPercent: 60, Host: "h"}

	res, err := f.Finalize(ctx, testUser, FileInput{Filename: "shot.png", Mimetype: "image/png", Size: int64(buf.Len())}, opts, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if res.File.Mimetype != "image/jpeg" || !strings.HasSuffix(res.File.Name, ".jpg") {
		t.Fatalf("expect jpeg record, got %s %s", res.File.Name, res.File.Mimetype)
	}
	stored := blobs.objects[res.File.Name]
	if _, format, err := image.Decode(bytes.NewReader(stored)); err != nil || format != "jpeg" {
		t.Fatalf("stored blob should be jpeg: %s %v", format, err)
	}
	if res.File.Size != int64(len(stored)) {
		t.Fatalf("record size should match compressed blob")
	}

	p, _ := f.Prepare(ctx, testUser, FileInput{Filename: "notes.txt", Mimetype: "text/plain", Size: 1}, opts)
	if p.Quality != 0 || strings.HasSuffix(p.Name, ".jpg") {
		t.Fatalf("non-images are never compressed: %+v", p)
	}
}

func TestGPSStripFailureIsBestEffort(t *testing.T) {
	cfg := testConfig()
	cfg.Exif.RemoveGPS = true
	stripper := &fakeStripper{err: errors.New("corrupt exif")}
	f, meta, _ := newTestFinalizer(cfg, WithStripper(stripper))
	ctx := context.Background()

	res, err := f.Finalize(ctx, testUser, FileInput{Filename: "trip.jpg", Mimetype: "image/jpeg", Size: 3}, UploadOptions{Host: "h"}, strings.NewReader("jpg"))
	if err != nil {
		t.Fatalf("gps strip failure must not fail the upload: %v", err)
	}
	if res.RemovedGPS == nil || *res.RemovedGPS {
		t.Fatalf("expect removed_gps false, got %v", res.RemovedGPS)
	}
	if !strings.HasPrefix(res.URL, "https://h/u/") || meta.count() != 1 {
		t.Fatalf("upload should still be complete: %s", res.URL)
	}

	stripper.err = nil
	res, _ = f.Finalize(ctx, testUser, FileInput{Filename: "ok.jpg", Mimetype: "image/jpeg", Size: 3}, UploadOptions{Host: "h"}, strings.NewReader("jpg"))
	if res.RemovedGPS == nil || !*res.RemovedGPS {
		t.Fatalf("expect removed_gps true")
	}

	stripper.err = imageproc.ErrUnsupported
	res, _ = f.Finalize(ctx, testUser, FileInput{Filename: "x.png", Mimetype: "image/png", Size: 3}, UploadOptions{Host: "h"}, strings.NewReader("png"))
	if res.RemovedGPS == nil || *res.RemovedGPS || stripper.calls != 3 {
		t.Fatalf("png uploads are attempted and report removed_gps false: %v calls=%d", res.RemovedGPS, stripper.calls)
	}

	res, _ = f.Finalize(ctx, testUser, FileInput{Filename: "n.txt", Mimetype: "text/plain", Size: 3}, UploadOptions{Host: "h"}, strings.NewReader("txt"))
	if res.RemovedGPS != nil || stripper.calls != 3 {
		t.Fatalf("non-images are never stripped")
	}

	stripper.err = imageproc.ErrNoMetadata
	res, _ = f.Finalize(ctx, testUser, FileInput{Filename: "plain.jpg", Mimetype: "image/jpeg", Size: 3}, UploadOptions{Host: "h"}, strings.NewReader("jpg"))
	if res.RemovedGPS == nil || *res.RemovedGPS {
		t.Fatalf("no metadata reports removed_gps false")
	}
}

func TestBlobFailureRollsBackRecord(t *testing.T) {
	f, meta, blobs := newTestFinalizer(testConfig())
	blobs.putErr = errors.New("disk full")

	_, err := f.Finalize(context.Background(), testUser, FileInput{Filename: "a.txt", Size: 1}, UploadOptions{Host: "h"}, strings.NewReader("a"))
	if err == nil {
		t.Fatalf("expect blob error")
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Fatalf("blob failure is a server error, not validation")
	}
	if meta.count() != 0 {
		t.Fatalf("record must be removed when the blob cannot be saved")
	}
}

func TestDomainSelection(t *testing.T) {
	f, _, _ := newTestFinalizer(testConfig())
	ctx := context.Background()
	in := FileInput{Filename: "a.txt", Size: 1}

	user := &model.User{ID: 3, UserName: "carol", Domains: []string{"files.carol.dev", "other.dev"}}
	p, _ := f.Prepare(ctx, user, in, UploadOptions{Format: naming.Name, Host: "req.host"})
	if p.URL != "https://files.carol.dev/u/a.txt" {
		t.Fatalf("user domain expected, got %s", p.URL)
	}

	p, _ = f.Prepare(ctx, user, in, UploadOptions{Format: naming.Name, Host: "req.host", OverrideDomain: "https://Ünï.example/"})
	if !strings.HasPrefix(p.URL, "https://xn--") || !strings.HasSuffix(p.URL, ".example/u/a.txt") {
		t.Fatalf("override domain expected, got %s", p.URL)
	}

	p, _ = f.Prepare(ctx, testUser, in, UploadOptions{Format: naming.Name, Host: "localhost:8000"})
	if p.URL != "https://localhost:8000/u/a.txt" {
		t.Fatalf("request host expected, got %s", p.URL)
	}

	cfg := testConfig()
	cfg.Core.HTTPS = false
	cfg.Uploader.Route = "/"
	plain, _, _ := newTestFinalizer(cfg)
	p, _ = plain.Prepare(ctx, testUser, FileInput{Filename: "my file.txt", Size: 1}, UploadOptions{Format: naming.Name, Host: "h"})
	if p.URL != "http://h/my%20file.txt" {
		t.Fatalf("root route expected, got %s", p.URL)
	}
}

func TestInvisibleAlias(t *testing.T) {
	f, meta, _ := newTestFinalizer(testConfig())
	meta.dupInv = 2
	ctx := context.Background()

	res, err := f.Finalize(ctx, testUser, FileInput{Filename: "a.txt", Size: 1}, UploadOptions{Invisible: true, Host: "h"}, strings.NewReader("a"))
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.invis) != 1 {
		t.Fatalf("expect one alias, got %d", len(meta.invis))
	}
	for token, fileID := range meta.invis {
		if fileID != res.File.ID {
			t.Fatalf("alias bound to wrong file")
		}
		if !strings.HasSuffix(res.URL, "/u/"+url.PathEscape(token)) {
			t.Fatalf("url should use the stored token: %s", res.URL)
		}
	}
}

func TestRecordFields(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("webhook down")}
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	cfg := testConfig()
	cfg.Uploader.DefaultExpiration = "1d"
	f, _, _ := newTestFinalizer(cfg, WithNotifier(notifier), WithClock(func() time.Time { return fixed }))
	views := 5
	folder := uint64(9)
	opts := UploadOptions{
		Host:             "h",
		MaxViews:         &views,
		FolderID:         &folder,
		KeepOriginalName: true,
		Password:         "hunter2",
		Embed:            true,
	}

	res, err := f.Finalize(context.Background(), testUser, FileInput{Filename: "dir/My Doc.txt", Size: 1}, opts, strings.NewReader("a"))
	if err != nil {
		t.Fatal(err)
	}
	file := res.File
	if file.OriginalName == nil || *file.OriginalName != "dir/My Doc.txt" {
		t.Fatalf("original name not kept: %v", file.OriginalName)
	}
	if file.Password == nil || *file.Password == "hunter2" {
		t.Fatalf("password must be hashed")
	}
	if file.MaxViews == nil || *file.MaxViews != 5 || file.FolderID == nil || *file.FolderID != 9 || !file.Embed {
		t.Fatalf("unexpected record %+v", file)
	}
	if file.ExpiresAt == nil || !file.ExpiresAt.Equal(fixed.Add(24*time.Hour)) {
		t.Fatalf("default expiration not applied: %v", file.ExpiresAt)
	}
	if len(notifier.events) != 1 || notifier.events[0].URL != res.URL {
		t.Fatalf("notifier not called with url")
	}
}

func TestCheckFolder(t *testing.T) {
	f, meta, _ := newTestFinalizer(testConfig())
	meta.folders[4] = testUser.ID
	if err := f.CheckFolder(context.Background(), testUser, 4); err != nil {
		t.Fatalf("owned folder rejected: %v", err)
	}
	other := &model.User{ID: 99}
	var verr *ValidationError
	if err := f.CheckFolder(context.Background(), other, 4); !errors.As(err, &verr) || verr.Index != -1 {
		t.Fatalf("foreign folder should be a request error, got %v", err)
	}
}
