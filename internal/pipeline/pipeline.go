// Package pipeline runs one capture-and-upload cycle: locate, capture, read session, submit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/geocam/internal/apiclient"
	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/model"
)

// Locator resolves a best-effort position; nil means absent.
type Locator interface {
	Resolve(ctx context.Context) *model.GeoPosition
}

// Capturer takes and discards photos.
type Capturer interface {
	Capture(ctx context.Context) (model.CaptureResult, error)
	Discard(res model.CaptureResult) error
}

// SessionReader reads the persisted session.
type SessionReader interface {
	CurrentSession(ctx context.Context) (*model.Session, error)
}

// Sender submits requests to the backend.
type Sender interface {
	Send(ctx context.Context, method, path string, body any, opts ...apiclient.RequestOption) (*apiclient.Response, error)
}

// Result describes a completed upload.
type Result struct {
	PhotoID   string
	PhotoPath string
	Size      int64
	Position  *model.GeoPosition
	Status    int
}

// Pipeline orchestrates a capture and its upload. Only one run may be active at a time.
type Pipeline struct {
	loc     Locator
	cam     Capturer
	session SessionReader
	api     Sender
	log     *zap.Logger

	running atomic.Bool
}

// New constructs a Pipeline. A nil logger disables logging.
func New(loc Locator, cam Capturer, session SessionReader, api Sender, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{loc: loc, cam: cam, session: session, api: api, log: log}
}

// CaptureAndUpload runs the steps strictly in order. Location is best effort; every other
// step aborts the run. When the upload cannot happen the captured image is discarded.
func (p *Pipeline) CaptureAndUpload(ctx context.Context) (*Result, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, errs.ErrUploadInProgress
	}
	defer p.running.Store(false)

	start := time.Now()
	pos := p.loc.Resolve(ctx)
	p.log.Debug("location resolved", zap.Bool("present", pos != nil), zap.Duration("dur", time.Since(start)))

	start = time.Now()
	shot, err := p.cam.Capture(ctx)
	if err != nil {
		p.log.Warn("capture failed", zap.Error(err))
		if errors.Is(err, errs.ErrCaptureFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errs.ErrCaptureFailed, err)
	}
	p.log.Debug("captured", zap.Int64("bytes", shot.Size), zap.Duration("dur", time.Since(start)))

	sess, err := p.session.CurrentSession(ctx)
	if err != nil || sess == nil {
		p.discard(shot)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrAuthenticationRequired, err)
		}
		return nil, errs.ErrAuthenticationRequired
	}

	req := model.NewUploadRequest(shot, pos, *sess)

	start = time.Now()
	resp, err := p.api.Send(ctx, http.MethodPost, "/photos", req)
	if err != nil {
		p.log.Warn("upload failed", zap.Error(err), zap.Duration("dur", time.Since(start)))
		p.discard(shot)
		return nil, fmt.Errorf("%w: %w", errs.ErrUploadFailed, err)
	}

	res := &Result{PhotoPath: shot.ImageURI, Size: shot.Size, Position: pos, Status: resp.Status}
	var created struct {
		ID string `json:"id"`
	}
	if resp.DecodeJSON(&created) == nil {
		res.PhotoID = created.ID
	}
	p.log.Info("uploaded",
		zap.String("photo_id", res.PhotoID),
		zap.Int("status", resp.Status),
		zap.Bool("geotagged", pos != nil),
		zap.Duration("dur", time.Since(start)),
	)
	return res, nil
}

func (p *Pipeline) discard(shot model.CaptureResult) {
	if err := p.cam.Discard(shot); err != nil {
		p.log.Warn("discard capture", zap.String("uri", shot.ImageURI), zap.Error(err))
	}
}
