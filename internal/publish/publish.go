// Package publish pushes archive entries outward: files to the object-store
// mirror and messages to the chat webhook. The ledger keeps both from being
// repeated.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/starford/wallhub/internal/archive"
	"github.com/starford/wallhub/internal/checksum"
	"github.com/starford/wallhub/internal/ledger"
	"github.com/starford/wallhub/internal/models"
)

// Uploader stores a local file remotely and returns its URL.
type Uploader interface {
	Enabled() bool
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Notifier sends the three message shapes of the chat webhook.
type Notifier interface {
	SendImage(ctx context.Context, image []byte) error
	SendAnnouncement(ctx context.Context, m *models.Meta, sourceName string) error
	SendStory(ctx context.Context, m *models.Meta, story string) error
}

// ErrNotifyDisabled is returned by Announce when no webhook is configured.
var ErrNotifyDisabled = errors.New("publish: notifications are not configured")

// Options configures a Publisher.
type Options struct {
	// MirrorPrefix is prepended to object keys.
	MirrorPrefix string
	// MaxImageBytes is the largest image sent as-is; larger ones are
	// replaced by the thumbnail.
	MaxImageBytes int
}

// Publisher mirrors and announces entries.
type Publisher struct {
	archive  *archive.Archive
	uploader Uploader
	notifier Notifier
	ledger   ledger.Ledger
	opts     Options
	logger   *slog.Logger
}

// New creates a Publisher. notifier may be nil.
func New(a *archive.Archive, u Uploader, n Notifier, l ledger.Ledger, opts Options, logger *slog.Logger) *Publisher {
	return &Publisher{archive: a, uploader: u, notifier: n, ledger: l, opts: opts, logger: logger}
}

// MirrorKey returns the object key of an entry file.
func (p *Publisher) MirrorKey(k archive.Key, name string) string {
	return path.Join(p.opts.MirrorPrefix, k.Source, k.Date, name)
}

// Mirror uploads the named files of k that exist and changed since their last
// upload. Every file is attempted; failures are returned together.
func (p *Publisher) Mirror(ctx context.Context, k archive.Key, names ...string) error {
	if p.uploader == nil || !p.uploader.Enabled() {
		return nil
	}
	var errs []error
	for _, name := range names {
		if !p.archive.Has(k, name) {
			continue
		}
		if err := p.mirrorOne(ctx, k, name); err != nil {
			p.logger.Warn("publish: upload failed",
				slog.String("entry", k.String()),
				slog.String("file", name),
				slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) mirrorOne(ctx context.Context, k archive.Key, name string) error {
	data, err := p.archive.Store().Read(k.File(name))
	if err != nil {
		return err
	}
	key := p.MirrorKey(k, name)
	sum := checksum.Sum(data)
	prev, err := p.ledger.UploadChecksum(key)
	if err != nil {
		return err
	}
	if prev == sum {
		p.logger.Debug("publish: upload unchanged", slog.String("key", key))
		return nil
	}

	local, err := p.archive.LocalPath(k, name)
	if err != nil {
		return err
	}
	url, err := p.uploader.Upload(ctx, local, key)
	if err != nil {
		return err
	}
	if url == "" {
		return nil
	}
	p.logger.Info("publish: uploaded", slog.String("key", key), slog.String("url", url))
	return p.ledger.RecordUpload(key, sum, url)
}

// Announce sends the image, the announcement and, when present, the story of
// k. Messages already recorded in the ledger are not sent again. The first
// webhook error stops the sequence and is returned.
func (p *Publisher) Announce(ctx context.Context, k archive.Key, displayName string) error {
	if p.notifier == nil {
		return ErrNotifyDisabled
	}
	m, err := p.archive.ReadMeta(k)
	if err != nil {
		return err
	}

	steps := []step{
		{ledger.KindImage, func() error {
			img, err := p.pushableImage(k)
			if err != nil {
				return err
			}
			return p.notifier.SendImage(ctx, img)
		}},
		{ledger.KindAnnouncement, func() error {
			return p.notifier.SendAnnouncement(ctx, m, displayName)
		}},
	}
	if p.archive.HasStory(k) {
		steps = append(steps, step{ledger.KindStory, func() error {
			text, err := p.archive.ReadStory(k)
			if err != nil {
				return err
			}
			return p.notifier.SendStory(ctx, m, text)
		}})
	}

	for _, s := range steps {
		done, err := p.ledger.Notified(k.Source, k.Date, s.kind)
		if err != nil {
			return err
		}
		if done {
			p.logger.Debug("publish: already notified", slog.String("entry", k.String()), slog.String("kind", s.kind))
			continue
		}
		if err := s.send(); err != nil {
			return fmt.Errorf("publish: %s %s: %w", s.kind, k, err)
		}
		if err := p.ledger.RecordNotification(k.Source, k.Date, s.kind); err != nil {
			return err
		}
		p.logger.Info("publish: notified", slog.String("entry", k.String()), slog.String("kind", s.kind))
	}
	return nil
}

type step struct {
	kind string
	send func() error
}

func (p *Publisher) pushableImage(k archive.Key) ([]byte, error) {
	img, err := p.archive.ReadImage(k)
	if err != nil {
		return nil, err
	}
	if p.opts.MaxImageBytes <= 0 || len(img) <= p.opts.MaxImageBytes {
		return img, nil
	}
	return p.archive.Store().Read(k.File(archive.ThumbFile))
}
