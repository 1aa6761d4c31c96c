package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rightsdesk/clipline/internal/core/domain"
	"github.com/rightsdesk/clipline/internal/core/ports"
)

// Mime types the pipeline can turn into text. Detected from the file bytes,
// never trusted from the upload filename.
const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
	mimePDF  = "application/pdf"
)

type SubmitClippingUseCase struct {
	repo       ports.SubmissionRepository
	storage    ports.ObjectStorage
	queue      ports.MessageQueue
	normalizer ports.ImageNormalizer
	maxFiles   int
}

func NewSubmitClippingUseCase(
	repo ports.SubmissionRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	normalizer ports.ImageNormalizer,
	maxFiles int,
) *SubmitClippingUseCase {
	if maxFiles <= 0 {
		maxFiles = 20
	}
	return &SubmitClippingUseCase{
		repo:       repo,
		storage:    storage,
		queue:      queue,
		normalizer: normalizer,
		maxFiles:   maxFiles,
	}
}

// Submit validates and stores one clipping submission, then hands it to the
// worker queue. Images are auto-cropped here, at intake, so the stored bytes
// are the ones text extraction will see. Files of unknown type are skipped
// with a warning; a submission with neither text nor one usable file is
// rejected before anything is stored.
func (uc *SubmitClippingUseCase) Submit(
	ctx context.Context,
	pastedText string,
	files []ports.ClippingUpload,
) (*domain.Submission, error) {
	pastedText = strings.TrimSpace(pastedText)

	if len(files) > uc.maxFiles {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"validate submission",
			fmt.Errorf("at most %d files per submission, got %d", uc.maxFiles, len(files)),
		)
	}

	accepted, warnings := uc.screenFiles(files)
	if pastedText == "" && len(accepted) == 0 {
		if len(warnings) > 0 {
			return nil, domain.WrapError(
				domain.ErrInvalidInput,
				"validate submission",
				fmt.Errorf("no usable input: %s", strings.Join(warnings, "; ")),
			)
		}
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"validate submission",
			errors.New("provide pasted text or at least one image/PDF file"),
		)
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	stored := make([]domain.ClippingFile, 0, len(accepted))
	for idx, file := range accepted {
		key := fmt.Sprintf("%s_%d_%s", id, idx, sanitizeFilename(file.normalized.FileName))
		if err := uc.storage.Save(ctx, key, bytes.NewReader(file.normalized.Bytes)); err != nil {
			return nil, fmt.Errorf("save clipping file %q: %w", file.normalized.OriginalName, err)
		}
		stored = append(stored, domain.ClippingFile{
			OriginalName: file.normalized.OriginalName,
			StoredName:   file.normalized.FileName,
			MimeType:     file.normalized.MimeType,
			StoragePath:  key,
			SizeBytes:    int64(len(file.normalized.Bytes)),
			WasCropped:   file.normalized.WasCropped,
		})
	}

	sub := &domain.Submission{
		ID:        id,
		Text:      pastedText,
		Files:     stored,
		Status:    domain.StatusAccepted,
		Warnings:  warnings,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	if err := uc.queue.PublishSubmissionAccepted(ctx, sub.ID); err != nil {
		return nil, fmt.Errorf("publish submission event: %w", err)
	}

	return sub, nil
}

type screenedFile struct {
	normalized domain.NormalizedImage
}

// screenFiles sniffs each file's type from its bytes and normalizes images.
// Unsupported files are dropped with a per-file warning, not an error.
func (uc *SubmitClippingUseCase) screenFiles(files []ports.ClippingUpload) ([]screenedFile, []string) {
	accepted := make([]screenedFile, 0, len(files))
	var warnings []string

	for _, file := range files {
		mime := detectMime(file.Data)
		switch mime {
		case mimeJPEG, mimePNG:
			accepted = append(accepted, screenedFile{normalized: uc.normalizer.Normalize(file.Data, file.Filename)})
		case mimePDF:
			accepted = append(accepted, screenedFile{normalized: domain.NormalizedImage{
				Bytes:        file.Data,
				MimeType:     mimePDF,
				FileName:     file.Filename,
				OriginalName: file.Filename,
			}})
		default:
			warnings = append(warnings, fmt.Sprintf(
				"%s: %s (detected %q)", file.Filename, domain.ErrUnsupportedFile, mime,
			))
		}
	}
	return accepted, warnings
}

func detectMime(data []byte) string {
	mime := http.DetectContentType(data)
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "clipping.bin"
	}
	return base
}
