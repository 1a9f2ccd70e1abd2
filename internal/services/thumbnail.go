package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	_ "golang.org/x/image/webp"

	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
	courserepo "github.com/yungbote/coursecraft-backend/internal/data/repos/courses"
	types "github.com/yungbote/coursecraft-backend/internal/domain"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/modules/authoring"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/gcp"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

const MaxThumbnailBytes = 2 * 1024 * 1024

const (
	msgFileEmpty    = "File is empty"
	msgNotAnImage   = "File must be an image"
	msgFileTooLarge = "Image size should not exceed 2MB"
)

// ThumbnailFile is an uploaded image as received from the transport layer.
// Size is the declared size; the body is still capped while reading.
type ThumbnailFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ThumbnailService interface {
	Upload(ctx context.Context, actor authoring.Identity, courseID uuid.UUID, file ThumbnailFile) (*types.Course, error)
	// Generate renders a title card for the course and uploads it.
	Generate(ctx context.Context, actor authoring.Identity, courseID uuid.UUID) (*types.Course, error)
}

type ThumbnailServiceDeps struct {
	Log        *logger.Logger
	Courses    courserepo.CourseRepo
	Aggregate  aggregates.CourseAggregate
	Bucket     gcp.BucketService
	Invalidate func(ctx context.Context, courseID uuid.UUID)
	Metrics    *observability.Metrics
}

type thumbnailService struct {
	log        *logger.Logger
	courses    courserepo.CourseRepo
	aggregate  aggregates.CourseAggregate
	bucket     gcp.BucketService
	invalidate func(ctx context.Context, courseID uuid.UUID)
	metrics    *observability.Metrics

	// titleFace caches glyphs and is not safe for concurrent use.
	renderMu  sync.Mutex
	titleFace font.Face
	palette   []color.NRGBA
}

func NewThumbnailService(deps ThumbnailServiceDeps) (ThumbnailService, error) {
	ttf, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse title font: %w", err)
	}
	invalidate := deps.Invalidate
	if invalidate == nil {
		invalidate = func(context.Context, uuid.UUID) {}
	}
	return &thumbnailService{
		log:        deps.Log.With("service", "ThumbnailService"),
		courses:    deps.Courses,
		aggregate:  deps.Aggregate,
		bucket:     deps.Bucket,
		invalidate: invalidate,
		metrics:    deps.Metrics,
		titleFace:  truetype.NewFace(ttf, &truetype.Options{Size: 72}),
		palette: []color.NRGBA{
			{0x1E, 0x3A, 0x8A, 0xFF},
			{0x0F, 0x76, 0x6E, 0xFF},
			{0x9D, 0x17, 0x4D, 0xFF},
			{0x7C, 0x2D, 0x12, 0xFF},
			{0x4C, 0x1D, 0x95, 0xFF},
			{0x33, 0x41, 0x55, 0xFF},
		},
	}, nil
}

func (s *thumbnailService) Upload(ctx context.Context, actor authoring.Identity, courseID uuid.UUID, file ThumbnailFile) (*types.Course, error) {
	const op = "Course.UploadThumbnail"
	if _, err := s.precheck(ctx, op, actor, courseID); err != nil {
		return nil, err
	}
	raw, format, err := readThumbnail(op, file)
	if err != nil {
		s.metrics.ObserveThumbnailUpload("rejected", 0)
		return nil, err
	}
	return s.store(ctx, op, actor, courseID, raw, format)
}

func (s *thumbnailService) Generate(ctx context.Context, actor authoring.Identity, courseID uuid.UUID) (*types.Course, error) {
	const op = "Course.GenerateThumbnail"
	course, err := s.precheck(ctx, op, actor, courseID)
	if err != nil {
		return nil, err
	}
	buf, err := s.renderTitleCard(course.Title)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "Failed to render thumbnail", err)
	}
	return s.store(ctx, op, actor, courseID, buf.Bytes(), "png")
}

// precheck surfaces NotFound, Forbidden and InvalidState before any file
// handling. The aggregate repeats these checks under the row lock.
func (s *thumbnailService) precheck(ctx context.Context, op string, actor authoring.Identity, courseID uuid.UUID) (*types.Course, error) {
	if err := authoring.RequireCapability(op, actor, authoring.ActionUploadThumbnail); err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, courseNotFound(op, courseID)
	}
	if err := authoring.Authorize(op, authoring.ActionUploadThumbnail, course, actor); err != nil {
		return nil, err
	}
	if err := authoring.RequireEditable(op, course.Status); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *thumbnailService) store(ctx context.Context, op string, actor authoring.Identity, courseID uuid.UUID, raw []byte, format string) (*types.Course, error) {
	key := fmt.Sprintf("thumbnails/%s/%s.%s", courseID, uuid.NewString(), format)
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.bucket.UploadFile(dbc, gcp.BucketCategoryThumbnail, key, bytes.NewReader(raw)); err != nil {
		s.metrics.ObserveThumbnailUpload("upload_failed", 0)
		return nil, domainagg.NewError(domainagg.CodeUpstreamFailure, op, "Failed to upload thumbnail", err)
	}

	res, err := s.aggregate.SetThumbnail(ctx, aggregates.SetThumbnailInput{
		Actor:    actor,
		CourseID: courseID,
		URL:      s.bucket.GetPublicURL(gcp.BucketCategoryThumbnail, key),
		Key:      key,
	})
	if err != nil {
		s.metrics.ObserveThumbnailUpload("commit_failed", 0)
		if delErr := s.bucket.DeleteFile(dbc, gcp.BucketCategoryThumbnail, key); delErr != nil {
			s.log.Warn("failed to remove orphaned thumbnail", "key", key, "error", delErr)
		}
		return nil, err
	}
	s.metrics.ObserveThumbnailUpload("ok", int64(len(raw)))
	s.invalidate(ctx, courseID)

	if prev := strings.TrimSpace(res.PreviousKey); prev != "" && prev != key {
		if err := s.bucket.DeleteFile(dbc, gcp.BucketCategoryThumbnail, prev); err != nil {
			s.log.Warn("failed to delete previous thumbnail (ignored)", "key", prev, "error", err)
		}
	}
	return res.Course, nil
}

// readThumbnail applies the empty, content type and size checks in that
// order, then sniffs the bytes so a mislabeled file is still rejected.
func readThumbnail(op string, file ThumbnailFile) ([]byte, string, error) {
	reject := func(msg string) error {
		return domainagg.NewError(domainagg.CodeValidation, op, msg, nil)
	}
	if file.Body == nil || file.Size == 0 {
		return nil, "", reject(msgFileEmpty)
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(file.ContentType)), "image/") {
		return nil, "", reject(msgNotAnImage)
	}
	if file.Size > MaxThumbnailBytes {
		return nil, "", reject(msgFileTooLarge)
	}
	raw, err := io.ReadAll(io.LimitReader(file.Body, MaxThumbnailBytes+1))
	if err != nil {
		return nil, "", domainagg.NewError(domainagg.CodeValidation, op, "Could not read uploaded file", err)
	}
	if len(raw) == 0 {
		return nil, "", reject(msgFileEmpty)
	}
	if len(raw) > MaxThumbnailBytes {
		return nil, "", reject(msgFileTooLarge)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, "", reject(msgNotAnImage)
	}
	return raw, format, nil
}

func (s *thumbnailService) renderTitleCard(title string) (*bytes.Buffer, error) {
	const w, h = 1280, 720
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled course"
	}

	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	dc := gg.NewContext(w, h)
	dc.SetColor(s.pickColor(title))
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetRGBA(1, 1, 1, 0.12)
	dc.DrawRectangle(0, h-96, w, 96)
	dc.Fill()

	dc.SetFontFace(s.titleFace)
	dc.SetColor(color.White)
	dc.DrawStringWrapped(title, w/2, h/2-48, 0.5, 0.5, w-160, 1.3, gg.AlignCenter)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &buf, nil
}

// pickColor is stable per title so regenerating gives the same card.
func (s *thumbnailService) pickColor(title string) color.NRGBA {
	hsh := fnv.New32a()
	_, _ = hsh.Write([]byte(strings.ToLower(title)))
	return s.palette[int(hsh.Sum32()%uint32(len(s.palette)))]
}
