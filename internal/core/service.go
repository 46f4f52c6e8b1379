package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/tabconvert/internal/config"
	"github.com/JonMunkholm/tabconvert/internal/logging"
)

// Recorder receives the outcome of every conversion attempt.
type Recorder interface {
	RecordConversion(ctx context.Context, req ConversionRequest, res *ConversionResult, elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordConversion(context.Context, ConversionRequest, *ConversionResult, time.Duration, error) {
}

// Service runs conversions for transports such as the HTTP server.
// Each call is independent; the only shared state is the concurrency limiter.
type Service struct {
	limiter         *Limiter
	recorder        Recorder
	tempDir         string
	maxFileSize     int64
	timeout         time.Duration
	defaultEncoding string
}

// NewService builds a Service from configuration. A nil recorder disables
// metrics.
func NewService(cfg *config.Config, rec Recorder) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		limiter:         NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		recorder:        rec,
		tempDir:         cfg.Upload.TempDir,
		maxFileSize:     cfg.Upload.MaxFileSize,
		timeout:         cfg.Upload.Timeout,
		defaultEncoding: cfg.Pipeline.DefaultEncoding,
	}
}

// Convert reads src as req.Source, cleans it and returns it as req.Target.
//
// The upload is spooled into a private workspace that is removed before
// Convert returns, whatever the outcome. The conversion is bounded by the
// configured timeout, when set, and waits for a limiter slot first.
func (s *Service) Convert(ctx context.Context, req ConversionRequest, src io.Reader) (*ConversionResult, error) {
	start := time.Now()
	id := uuid.NewString()
	ctx = logging.WithAttrs(ctx, "conversion_id", id)

	res, err := s.convert(ctx, id, req, src)
	elapsed := time.Since(start)
	if res != nil {
		res.Duration = elapsed
	}

	s.recorder.RecordConversion(ctx, req, res, elapsed, err)
	return res, err
}

func (s *Service) convert(ctx context.Context, id string, req ConversionRequest, src io.Reader) (*ConversionResult, error) {
	logger := logging.WithFields(ctx, "file", req.FileName, "source", req.Source, "target", req.Target)

	srcDef, ok := LookupFormat(req.Source)
	if !ok || srcDef.Read == nil {
		return nil, fmt.Errorf("%w: cannot read %q", ErrUnsupportedFormat, req.Source)
	}
	dstDef, ok := LookupFormat(req.Target)
	if !ok || dstDef.Write == nil {
		return nil, fmt.Errorf("%w: cannot write %q", ErrUnsupportedFormat, req.Target)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ws, err := NewWorkspace(s.tempDir, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Warn("workspace cleanup failed", "dir", ws.Dir(), "error", err)
		}
	}()

	path, n, err := ws.WriteFrom("input"+srcDef.Extension(), src, s.maxFileSize)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptyFile
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	encoding := req.Encoding
	if encoding == "" {
		encoding = s.defaultEncoding
	}

	conv, err := Convert(ctx, raw, req.Source, req.Target, ReadOptions{Encoding: encoding})
	if err != nil {
		return nil, err
	}

	if conv.Read.Parse.MalformedRows > 0 {
		logger.Debug("skipped malformed rows", "count", conv.Read.Parse.MalformedRows)
	}
	if conv.Read.Text.Replacements > 0 {
		logger.Debug("replaced undecodable bytes", "count", conv.Read.Text.Replacements)
	}

	logger.Info("conversion complete",
		"bytes_in", n,
		"bytes_out", len(conv.Data),
		"rows", conv.Cleaned.Len(),
		"delimiter", string(conv.Read.Dialect.Delimiter),
		"malformed_rows", conv.Read.Parse.MalformedRows,
		"empty_rows", conv.Clean.EmptyRowsDropped,
		"duplicate_rows", conv.Clean.DuplicateRowsDropped,
	)

	return &ConversionResult{
		ID:          id,
		FileName:    DownloadName(req.FileName, dstDef.Extension()),
		ContentType: dstDef.ContentType,
		Data:        conv.Data,
		Source:      req.Source,
		Target:      req.Target,
		Dialect:     conv.Read.Dialect,
		Parse:       conv.Read.Parse,
		Clean:       conv.Clean,
		Rows:        conv.Cleaned.Len(),
		Columns:     len(conv.Cleaned.Columns),
	}, nil
}

// LimiterStatus reports conversion slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForConversions blocks until in-flight conversions finish or ctx ends.
func (s *Service) WaitForConversions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// DownloadName swaps the extension of the uploaded file name for ext.
func DownloadName(uploaded, ext string) string {
	base := filepath.Base(strings.ReplaceAll(uploaded, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "converted"
	}
	return base + ext
}
