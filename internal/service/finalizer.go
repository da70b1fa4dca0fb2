package service

import (
	"Go_Share/config"
	"Go_Share/internal/expiry"
	"Go_Share/internal/imageproc"
	"Go_Share/internal/mimetype"
	"Go_Share/internal/naming"
	"Go_Share/internal/notify"
	"Go_Share/internal/repo"
	"Go_Share/internal/storage"
	"Go_Share/model"
	"Go_Share/utils"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

const invisibleAttempts = 5

// UploadOptions are the request-wide settings parsed from upload headers.
type UploadOptions struct {
	Format             naming.Kind
	FilenameOverride   string
	CompressionPercent int
	MaxViews           *int
	ExpiresAt          *time.Time
	FolderID           *uint64
	KeepOriginalName   bool
	OverrideDomain     string
	Password           string
	Invisible          bool
	Embed              bool
	ForceText          bool
	Host               string
}

// FileInput describes one incoming file before its bytes are read.
type FileInput struct {
	Index    int
	Filename string
	Mimetype string
	Size     int64
}

// PreparedUpload is a validated upload whose name and URL are fixed. It is
// serializable so a deferred finalize can commit it in another process.
type PreparedUpload struct {
	UserID          uint64     `json:"user_id"`
	UserName        string     `json:"user_name"`
	Index           int        `json:"index"`
	Name            string     `json:"name"`
	Mimetype        string     `json:"mimetype"`
	AssumeAttempted bool       `json:"assume_attempted"`
	AssumedMimetype string     `json:"assumed_mimetype,omitempty"`
	Quality         int        `json:"quality,omitempty"`
	Invisible       string     `json:"invisible,omitempty"`
	Domain          string     `json:"domain"`
	URL             string     `json:"url"`
	PasswordHash    *string    `json:"password_hash,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	MaxViews        *int       `json:"max_views,omitempty"`
	OriginalName    *string    `json:"original_name,omitempty"`
	FolderID        *uint64    `json:"folder_id,omitempty"`
	Embed           bool       `json:"embed"`
}

// Result is a committed upload.
type Result struct {
	File       *model.File
	URL        string
	RemovedGPS *bool
	Prepared   *PreparedUpload
}

// Finalizer validates uploads and turns them into a file record plus a stored blob.
type Finalizer struct {
	uploader config.UploaderConfig
	core     config.CoreConfig
	exif     config.ExifConfig

	names      *naming.Formatter
	meta       MetadataStore
	blobs      storage.Store
	notifier   notify.Notifier
	stripper   MetadataStripper
	pickDomain DomainPicker
	now        func() time.Time
}

type Option func(*Finalizer)

func WithNotifier(n notify.Notifier) Option {
	return func(f *Finalizer) { f.notifier = n }
}

func WithStripper(s MetadataStripper) Option {
	return func(f *Finalizer) { f.stripper = s }
}

func WithDomainPicker(p DomainPicker) Option {
	return func(f *Finalizer) { f.pickDomain = p }
}

func WithFormatter(names *naming.Formatter) Option {
	return func(f *Finalizer) { f.names = names }
}

func WithClock(now func() time.Time) Option {
	return func(f *Finalizer) { f.now = now }
}

func NewFinalizer(cfg config.Config, meta MetadataStore, blobs storage.Store, opts ...Option) *Finalizer {
	f := &Finalizer{
		uploader:   cfg.Uploader,
		core:       cfg.Core,
		exif:       cfg.Exif,
		names:      naming.New(cfg.Uploader.Length, cfg.Uploader.DateFormat),
		meta:       meta,
		blobs:      blobs,
		notifier:   notify.Nop{},
		stripper:   imageproc.NewStripper(blobs),
		pickDomain: RandomDomain,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CheckFolder rejects a folder the user does not own.
func (f *Finalizer) CheckFolder(ctx context.Context, user *model.User, folderID uint64) error {
	ok, err := f.meta.FolderOwnedBy(ctx, folderID, user.ID)
	if err != nil {
		return fmt.Errorf("check folder: %w", err)
	}
	if !ok {
		return RequestError("folder not found")
	}
	return nil
}

// Prepare validates one file and fixes its public name, mimetype and URL. Nothing is persisted.
func (f *Finalizer) Prepare(ctx context.Context, user *model.User, in FileInput, opts UploadOptions) (*PreparedUpload, error) {
	if in.Size > f.uploader.SizeLimit(user.Administrator) {
		return nil, fileError(in.Index, "size too big")
	}
	if strings.TrimSpace(in.Filename) == "" {
		return nil, fileError(in.Index, "no filename")
	}
	ext := naming.Extension(in.Filename)
	if f.extensionDisabled(ext) {
		return nil, fileError(in.Index, "disabled extension received: %s", ext)
	}

	declared := strings.TrimSpace(in.Mimetype)
	quality := 0
	if opts.CompressionPercent > 0 && opts.CompressionPercent <= 100 && mimetype.IsImage(declared) {
		quality = opts.CompressionPercent
		ext = "jpg"
	}

	var base string
	var err error
	if opts.FilenameOverride != "" {
		base = naming.BaseName(opts.FilenameOverride)
	} else {
		base, err = f.names.Format(opts.Format, in.Filename)
		if err != nil {
			return nil, fmt.Errorf("format name: %w", err)
		}
	}
	if base == "" {
		return nil, fileError(in.Index, "no filename")
	}
	name := base
	if ext != "" {
		name = base + "." + ext
	}
	if opts.Format == naming.Name || opts.FilenameOverride != "" {
		exists, err := f.meta.NameExists(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("check name: %w", err)
		}
		if exists {
			return nil, fileError(in.Index, "filename already exists: '%s'", name)
		}
	}

	p := &PreparedUpload{
		UserID:   user.ID,
		UserName: user.UserName,
		Index:    in.Index,
		Name:     name,
		Quality:  quality,
		MaxViews: opts.MaxViews,
		FolderID: opts.FolderID,
		Embed:    opts.Embed,
	}
	f.resolveMimetype(p, declared, ext, opts.ForceText)

	if opts.Invisible {
		token, err := f.names.Invisible(f.uploader.InvisibleLength)
		if err != nil {
			return nil, fmt.Errorf("invisible token: %w", err)
		}
		p.Invisible = token
	}
	p.Domain = f.domain(user, opts)
	p.URL = f.publicURL(p)

	if opts.Password != "" {
		hash, err := utils.HashPassword(opts.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		p.PasswordHash = &hash
	}
	p.ExpiresAt = opts.ExpiresAt
	if p.ExpiresAt == nil && f.uploader.DefaultExpiration != "" {
		at, err := expiry.Parse(f.uploader.DefaultExpiration, f.now())
		if err != nil {
			log.Printf("finalize: ignoring default expiration %q: %v", f.uploader.DefaultExpiration, err)
		} else {
			p.ExpiresAt = at
		}
	}
	if opts.KeepOriginalName {
		original := in.Filename
		p.OriginalName = &original
	}
	return p, nil
}

// resolveMimetype applies: forced text > compression jpeg > declared > extension lookup.
func (f *Finalizer) resolveMimetype(p *PreparedUpload, declared, ext string, forceText bool) {
	switch {
	case forceText:
		p.Mimetype = "text/plain"
	case p.Quality > 0:
		p.Mimetype = "image/jpeg"
	case declared != "" && declared != mimetype.OctetStream:
		p.Mimetype = declared
	default:
		p.Mimetype = mimetype.OctetStream
		if f.uploader.AssumeMimetypes {
			p.AssumeAttempted = true
			if resolved, ok := mimetype.Resolve(ext); ok {
				p.Mimetype = resolved
				p.AssumedMimetype = resolved
			}
		}
	}
}

func (f *Finalizer) extensionDisabled(ext string) bool {
	if ext == "" {
		return false
	}
	for _, disabled := range f.uploader.DisabledExtensions {
		if strings.EqualFold(strings.TrimPrefix(disabled, "."), ext) {
			return true
		}
	}
	return false
}

// domain picks: override header > one of the user's domains > request host.
func (f *Finalizer) domain(user *model.User, opts UploadOptions) string {
	if d := normalizeDomain(opts.OverrideDomain); d != "" {
		return d
	}
	if len(user.Domains) > 0 {
		if d := normalizeDomain(f.pickDomain(user.Domains)); d != "" {
			return d
		}
	}
	return normalizeDomain(opts.Host)
}

func (f *Finalizer) publicURL(p *PreparedUpload) string {
	token := p.Name
	if p.Invisible != "" {
		token = p.Invisible
	}
	return buildURL(f.core.HTTPS, p.Domain, f.uploader.Route, token)
}

// Commit persists a prepared upload: record, alias, blob, then best-effort notify and GPS strip.
// A blob failure removes the record again.
func (f *Finalizer) Commit(ctx context.Context, p *PreparedUpload, content io.Reader, size int64) (*Result, error) {
	if p.Quality > 0 {
		data, err := io.ReadAll(content)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		compressed, err := imageproc.Compress(data, p.Quality)
		if err != nil {
			return nil, fmt.Errorf("compress image: %w", err)
		}
		content = bytes.NewReader(compressed)
		size = int64(len(compressed))
	}

	file := &model.File{
		Name:         p.Name,
		Mimetype:     p.Mimetype,
		UserID:       p.UserID,
		Password:     p.PasswordHash,
		ExpiresAt:    p.ExpiresAt,
		MaxViews:     p.MaxViews,
		OriginalName: p.OriginalName,
		Size:         size,
		FolderID:     p.FolderID,
		Embed:        p.Embed,
	}
	if err := f.meta.CreateFile(ctx, file); err != nil {
		if errors.Is(err, model.ErrNameTaken) {
			return nil, fileError(p.Index, "filename already exists: '%s'", p.Name)
		}
		return nil, fmt.Errorf("create file record: %w", err)
	}

	if p.Invisible != "" {
		if err := f.createInvisible(ctx, p, file.ID); err != nil {
			f.rollback(file)
			return nil, err
		}
	}

	if err := f.blobs.Put(ctx, file.Name, content, size, file.Mimetype); err != nil {
		f.rollback(file)
		return nil, fmt.Errorf("save blob: %w", err)
	}

	res := &Result{File: file, URL: p.URL, Prepared: p}

	event := notify.Event{
		UserID:    p.UserID,
		UserName:  p.UserName,
		FileID:    file.ID,
		FileName:  file.Name,
		Mimetype:  file.Mimetype,
		Size:      file.Size,
		URL:       res.URL,
		CreatedAt: f.now(),
	}
	if err := f.notifier.Notify(ctx, event); err != nil {
		log.Printf("finalize: notify %s failed: %v", file.Name, err)
	}

	if f.exif.RemoveGPS && mimetype.IsImage(file.Mimetype) {
		removed := true
		if err := f.stripper.StripGPS(ctx, file.Name, file.Mimetype); err != nil {
			removed = false
			if !errors.Is(err, imageproc.ErrNoMetadata) && !errors.Is(err, imageproc.ErrUnsupported) {
				log.Printf("finalize: gps strip %s failed: %v", file.Name, err)
			}
		}
		res.RemovedGPS = &removed
	}
	return res, nil
}

// createInvisible stores the alias, drawing a new token when one collides.
func (f *Finalizer) createInvisible(ctx context.Context, p *PreparedUpload, fileID uint64) error {
	for attempt := 0; ; attempt++ {
		err := f.meta.CreateInvisible(ctx, &model.InvisibleFile{Invis: p.Invisible, FileID: fileID})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repo.ErrDuplicate) || attempt+1 >= invisibleAttempts {
			return fmt.Errorf("create invisible alias: %w", err)
		}
		token, err := f.names.Invisible(f.uploader.InvisibleLength)
		if err != nil {
			return fmt.Errorf("invisible token: %w", err)
		}
		p.Invisible = token
		p.URL = f.publicURL(p)
	}
}

func (f *Finalizer) rollback(file *model.File) {
	if err := f.meta.DeleteFile(context.Background(), file.ID); err != nil {
		log.Printf("finalize: rollback record %d failed: %v", file.ID, err)
	}
}

// Finalize runs Prepare and Commit for a single-shot file.
func (f *Finalizer) Finalize(ctx context.Context, user *model.User, in FileInput, opts UploadOptions, content io.Reader) (*Result, error) {
	p, err := f.Prepare(ctx, user, in, opts)
	if err != nil {
		return nil, err
	}
	return f.Commit(ctx, p, content, in.Size)
}
