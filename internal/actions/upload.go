package actions

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"

	"github.com/CageChen/filedeck/internal/logging"
	"github.com/CageChen/filedeck/internal/metrics"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
)

// UploadField is the multipart field carrying the file.
const UploadField = "file"

// SelectedFile is a file chosen for upload.
type SelectedFile struct {
	Name string
	// Size in bytes, or -1 when unknown
	Size int64
	Open func() (io.ReadCloser, error)
}

// Selection holds the file currently chosen for upload.
type Selection struct {
	mu   sync.Mutex
	file *SelectedFile
}

// Select replaces the selected file.
func (s *Selection) Select(f SelectedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = &f
}

// Clear drops the selected file.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = nil
}

// Selected returns the selected file, if any.
func (s *Selection) Selected() (SelectedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return SelectedFile{}, false
	}
	return *s.file, true
}

// Label returns what the upload form shows next to the picker.
func (s *Selection) Label() string {
	if f, ok := s.Selected(); ok {
		return f.Name
	}
	return "No file selected"
}

// Upload sends the selected file to the server. On success the selection
// is cleared and the list refreshed; on failure the selection is kept.
func (d *Dispatcher) Upload(ctx context.Context, sel *Selection) error {
	if sel == nil {
		sel = &Selection{}
	}
	f, ok := sel.Selected()
	if !ok || f.Open == nil {
		metrics.RecordAction("upload", "no_selection")
		d.notifier.Notify(Warnf("Please select a file first"))
		return ErrNoSelection
	}

	limit := int64(d.cfg.MaxUpload.Bytes())
	if limit > 0 && f.Size > limit {
		metrics.RecordAction("upload", "too_large")
		d.notifier.Notify(Errorf("Upload failed: %s is larger than %s", f.Name, d.cfg.MaxUpload.HR()))
		return ErrTooLarge
	}

	src, err := f.Open()
	if err != nil {
		metrics.RecordAction("upload", "error")
		d.notifier.Notify(Errorf("Upload failed: %v", err))
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer src.Close()

	pipeReader, pipeWriter := io.Pipe()
	multipartWriter := multipart.NewWriter(pipeWriter)
	sent := make(chan int64, 1)

	go func() {
		n, err := writeFilePart(multipartWriter, f.Name, src, limit)
		if err == nil {
			err = multipartWriter.Close()
		}
		sent <- n
		_ = pipeWriter.CloseWithError(err)
	}()

	uploadURL := d.lister.UploadURL()
	err = d.send(ctx, http.MethodPost, uploadURL, pipeReader, multipartWriter.FormDataContentType())
	_ = pipeReader.Close()
	n := <-sent
	if err != nil {
		metrics.RecordAction("upload", "error")
		logging.L().Warn("upload failed", zap.String("file", f.Name), zap.Error(err))
		d.notifier.Notify(Errorf("Upload failed: %v", err))
		return err
	}

	metrics.RecordAction("upload", "ok")
	metrics.RecordUpload(n)
	logging.L().Info("file uploaded", zap.String("file", f.Name), zap.Int64("bytes", n))
	sel.Clear()
	d.notifier.Notify(Infof("Uploaded %s", f.Name))
	_, _ = d.Refresh(ctx)
	return nil
}

// writeFilePart writes src as the file part, sniffing its content type
// from the leading bytes.
func writeFilePart(w *multipart.Writer, name string, src io.Reader, limit int64) (int64, error) {
	br := bufio.NewReaderSize(src, 512)
	head, _ := br.Peek(261)

	contentType := "application/octet-stream"
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}

	disposition := mime.FormatMediaType("form-data", map[string]string{
		"name":     UploadField,
		"filename": name,
	})
	if disposition == "" {
		return 0, fmt.Errorf("invalid file name %q", name)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", disposition)
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return 0, err
	}

	var r io.Reader = br
	if limit > 0 {
		r = &limitReader{r: br, remaining: limit}
	}
	return io.Copy(part, r)
}

// limitReader fails with ErrTooLarge once more than remaining bytes are read.
type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
