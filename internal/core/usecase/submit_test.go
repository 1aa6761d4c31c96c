package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/rightsdesk/clipline/internal/core/domain"
	"github.com/rightsdesk/clipline/internal/core/ports"
)

var (
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("fixture")...)
	pngBytes  = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, []byte("fixture")...)
	pdfBytes  = []byte("%PDF-1.4 fixture")
)

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishSubmissionAccepted(_ context.Context, submissionID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, submissionID)
	return nil
}

func (f *queueFake) SubscribeSubmissionAccepted(context.Context, func(context.Context, string) error) error {
	return nil
}

type normalizerFake struct {
	cropNames map[string]bool
	calls     []string
}

func (f *normalizerFake) Normalize(data []byte, fileName string) domain.NormalizedImage {
	f.calls = append(f.calls, fileName)
	out := domain.NormalizedImage{
		Bytes:        data,
		MimeType:     "image/jpeg",
		FileName:     fileName,
		OriginalName: fileName,
	}
	if f.cropNames[fileName] {
		out.WasCropped = true
		out.FileName = strings.TrimSuffix(fileName, ".jpg") + "-cropped.jpg"
	}
	return out
}

type submitFixture struct {
	repo       *submissionRepoFake
	storage    *storageFake
	queue      *queueFake
	normalizer *normalizerFake
	uc         *SubmitClippingUseCase
}

func newSubmitFixture() *submitFixture {
	fx := &submitFixture{
		repo:       &submissionRepoFake{},
		storage:    &storageFake{},
		queue:      &queueFake{},
		normalizer: &normalizerFake{cropNames: map[string]bool{}},
	}
	fx.uc = NewSubmitClippingUseCase(fx.repo, fx.storage, fx.queue, fx.normalizer, 20)
	return fx
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	fx := newSubmitFixture()

	_, err := fx.uc.Submit(context.Background(), "   ", nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(fx.queue.published) != 0 {
		t.Fatalf("nothing may be published for a rejected submission")
	}
}

func TestSubmitRejectsTooManyFiles(t *testing.T) {
	fx := newSubmitFixture()

	files := make([]ports.ClippingUpload, 21)
	for i := range files {
		files[i] = ports.ClippingUpload{Filename: "f.jpg", Data: jpegBytes}
	}

	_, err := fx.uc.Submit(context.Background(), "", files)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for 21 files, got %v", err)
	}
}

func TestSubmitRejectsWhenOnlyUnsupportedFiles(t *testing.T) {
	fx := newSubmitFixture()

	_, err := fx.uc.Submit(context.Background(), "", []ports.ClippingUpload{
		{Filename: "notes.txt", Data: []byte("plain text, not an image")},
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "notes.txt") {
		t.Fatalf("error should name the rejected file, got %v", err)
	}
}

func TestSubmitSkipsUnsupportedFileWithWarning(t *testing.T) {
	fx := newSubmitFixture()
	fx.normalizer.cropNames["photo.jpg"] = true

	sub, err := fx.uc.Submit(context.Background(), "pasted", []ports.ClippingUpload{
		{Filename: "photo.jpg", Data: jpegBytes},
		{Filename: "notes.txt", Data: []byte("plain text, not an image")},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(sub.Files) != 1 {
		t.Fatalf("expected 1 stored file, got %d", len(sub.Files))
	}
	if len(sub.Warnings) != 1 || !strings.Contains(sub.Warnings[0], "notes.txt") {
		t.Fatalf("expected a warning naming notes.txt, got %v", sub.Warnings)
	}
	if !sub.Files[0].WasCropped {
		t.Fatalf("expected the normalized image to record the crop")
	}
	if sub.Files[0].StoredName != "photo-cropped.jpg" {
		t.Fatalf("unexpected stored name %q", sub.Files[0].StoredName)
	}
	if len(fx.queue.published) != 1 || fx.queue.published[0] != sub.ID {
		t.Fatalf("expected submission id published once, got %v", fx.queue.published)
	}
	if _, ok := fx.storage.files[sub.Files[0].StoragePath]; !ok {
		t.Fatalf("stored file missing from object storage")
	}
}

func TestSubmitAcceptsPDFWithoutNormalization(t *testing.T) {
	fx := newSubmitFixture()

	sub, err := fx.uc.Submit(context.Background(), "", []ports.ClippingUpload{
		{Filename: "page.pdf", Data: pdfBytes},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(fx.normalizer.calls) != 0 {
		t.Fatalf("PDFs must not pass through the image normalizer, calls=%v", fx.normalizer.calls)
	}
	if sub.Files[0].MimeType != "application/pdf" {
		t.Fatalf("unexpected mime %q", sub.Files[0].MimeType)
	}
	if sub.Files[0].WasCropped {
		t.Fatalf("PDFs are never cropped")
	}
}

func TestSubmitDetectsTypeFromBytesNotFilename(t *testing.T) {
	fx := newSubmitFixture()

	sub, err := fx.uc.Submit(context.Background(), "", []ports.ClippingUpload{
		{Filename: "actually-a-png.pdf", Data: pngBytes},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(fx.normalizer.calls) != 1 {
		t.Fatalf("sniffed PNG must be normalized despite its .pdf name")
	}
	if len(sub.Files) != 1 {
		t.Fatalf("expected 1 stored file, got %d", len(sub.Files))
	}
}

func TestSubmitTextOnlyPublishesWithoutFiles(t *testing.T) {
	fx := newSubmitFixture()

	sub, err := fx.uc.Submit(context.Background(), "  a pasted article  ", nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if sub.Text != "a pasted article" {
		t.Fatalf("expected trimmed text, got %q", sub.Text)
	}
	if sub.Status != domain.StatusAccepted {
		t.Fatalf("expected accepted status, got %q", sub.Status)
	}
	if len(fx.queue.published) != 1 {
		t.Fatalf("expected one published event, got %v", fx.queue.published)
	}
}
