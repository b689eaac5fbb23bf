package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/VRUSHIL1/shop-chatbot-v2/core"
	"github.com/VRUSHIL1/shop-chatbot-v2/store"
)

// maxUploadBytes caps a single multipart upload.
const maxUploadBytes = 50 << 20

type uploadResult struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks_added,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	if err := os.MkdirAll(s.opts.VectorDir, 0o755); err != nil {
		s.opts.Logger.Error("vector dir create failed", "dir", s.opts.VectorDir, "error", err)
		respondError(w, http.StatusInternalServerError, "could not prepare storage")
		return
	}

	results := make([]uploadResult, 0, len(files))
	for _, header := range files {
		results = append(results, s.indexUpload(r, header))
	}
	respondJSON(w, http.StatusOK, results)
}

// indexUpload extracts one uploaded PDF's text, builds its vector index and
// records the document. Failures are reported per file, not per request.
func (s *Server) indexUpload(r *http.Request, header *multipart.FileHeader) uploadResult {
	result := uploadResult{Filename: header.Filename}

	file, err := header.Open()
	if err != nil {
		result.Error = "could not read upload"
		return result
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		result.Error = "could not stage upload"
		return result
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		result.Error = "could not stage upload"
		return result
	}
	tmp.Close()

	text, err := s.opts.ExtractText(tmpPath)
	if err != nil {
		result.Error = "No extractable text found in the PDF."
		return result
	}

	vectorPath := filepath.Join(s.opts.VectorDir, fmt.Sprintf("%s.json", core.NewID()))
	chunks, err := s.vectors.BuildIndex(r.Context(), header.Filename, text, vectorPath)
	if err != nil {
		s.opts.Logger.Error("index build failed", "filename", header.Filename, "error", err)
		result.Error = "could not index document"
		return result
	}

	if _, err := s.store.AddDocument(r.Context(), header.Filename, vectorPath); err != nil {
		s.opts.Logger.Error("document record failed", "filename", header.Filename, "error", err)
		os.Remove(vectorPath)
		s.vectors.Refresh(vectorPath)
		result.Error = "could not record document"
		return result
	}

	result.Chunks = chunks
	return result
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		s.opts.Logger.Error("document list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list documents")
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "documentID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := s.store.DeleteDocument(r.Context(), id)
	if err != nil {
		if err == store.ErrNotFound {
			respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.opts.Logger.Error("document delete failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "could not delete document")
		return
	}

	if err := os.Remove(doc.VectorPath); err != nil && !os.IsNotExist(err) {
		s.opts.Logger.Warn("vector file cleanup failed", "path", doc.VectorPath, "error", err)
	}
	s.vectors.Refresh(doc.VectorPath)

	respondJSON(w, http.StatusOK, map[string]any{"status": "deleted", "id": id})
}
