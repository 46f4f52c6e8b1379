package web

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/tabconvert/internal/core"
	"github.com/JonMunkholm/tabconvert/internal/logging"
)

// Form and query fields accepted by the convert endpoints.
const (
	fieldFile     = "file"
	fieldEncoding = "encoding"
	fieldFrom     = "from"
	fieldTo       = "to"
)

// Diagnostic response headers.
const (
	headerConversionID  = "X-Conversion-Id"
	headerRowsMalformed = "X-Rows-Malformed"
	headerRowsEmpty     = "X-Rows-Empty-Dropped"
	headerRowsDuplicate = "X-Rows-Duplicate-Dropped"
	headerDelimiter     = "X-Delimiter"
)

const (
	// multipartMemory is how much of a multipart body is held in memory;
	// the rest spills to temporary files removed after the request.
	multipartMemory = 8 << 20

	// multipartOverhead allows for boundaries and extra form fields on top
	// of the file size limit.
	multipartOverhead = 1 << 20
)

var delimiterNames = map[rune]string{
	',':  "comma",
	';':  "semicolon",
	'\t': "tab",
	'|':  "pipe",
}

// handleConvertFixed serves an endpoint with a fixed source and target format.
func (s *Server) handleConvertFixed(source, target core.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := s.readUpload(w, r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		defer file.Close()

		s.convert(w, r, file, header, source, target)
	}
}

// handleConvert converts between any registered formats. The target comes
// from the "to" field; the source from "from" or the file extension.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	target, err := core.ParseFormat(formOrQuery(r, fieldTo))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("target: %w", err))
		return
	}

	var source core.Format
	if from := formOrQuery(r, fieldFrom); from != "" {
		source, err = core.ParseFormat(from)
	} else {
		source, err = core.FormatForFile(header.Filename)
	}
	if err != nil {
		s.respondError(w, r, fmt.Errorf("source: %w", err))
		return
	}

	s.convert(w, r, file, header, source, target)
}

// convert runs the conversion and writes the result as an attachment.
func (s *Server) convert(w http.ResponseWriter, r *http.Request, file multipart.File, header *multipart.FileHeader, source, target core.Format) {
	req := core.ConversionRequest{
		FileName: header.Filename,
		Source:   source,
		Target:   target,
		Encoding: formOrQuery(r, fieldEncoding),
	}

	res, err := s.service.Convert(r.Context(), req, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", res.ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	h.Set("Content-Length", strconv.Itoa(len(res.Data)))
	h.Set("Cache-Control", "no-store")
	h.Set(headerConversionID, res.ID)
	h.Set(headerRowsMalformed, strconv.Itoa(res.Parse.MalformedRows))
	h.Set(headerRowsEmpty, strconv.Itoa(res.Clean.EmptyRowsDropped))
	h.Set(headerRowsDuplicate, strconv.Itoa(res.Clean.DuplicateRowsDropped))
	if name, ok := delimiterNames[res.Dialect.Delimiter]; ok {
		h.Set(headerDelimiter, name)
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		logging.FromContext(r.Context()).Warn("response write failed", "error", err)
	}
}

// readUpload parses the multipart body and returns the "file" part.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if limit := s.cfg.Upload.MaxFileSize; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, nil, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
		}
		return nil, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	file, header, err := r.FormFile(fieldFile)
	if errors.Is(err, http.ErrMissingFile) {
		// A file input submitted without a selection arrives as a plain
		// field with an empty filename.
		if _, ok := r.MultipartForm.Value[fieldFile]; ok {
			return nil, nil, core.ErrNoFileSelected
		}
		return nil, nil, core.ErrNoFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	if header.Filename == "" {
		file.Close()
		return nil, nil, core.ErrNoFileSelected
	}
	if limit := s.cfg.Upload.MaxFileSize; limit > 0 && header.Size > limit {
		file.Close()
		return nil, nil, fmt.Errorf("%w: %d bytes", core.ErrFileTooLarge, header.Size)
	}
	return file, header, nil
}

// formOrQuery returns a query parameter, falling back to the parsed form.
// It must run after readUpload so the size limit applies to the body.
func formOrQuery(r *http.Request, key string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return r.FormValue(key)
}
