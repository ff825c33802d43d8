package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/forgetools/forge/errors"
)

// maxUploadBytes bounds multipart uploads; forge handles source files,
// not archives.
const maxUploadBytes = 10 << 20

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := errorBody{Code: string(errors.ErrCodeInternal), Message: err.Error()}
	if fe, ok := err.(*errors.ForgeError); ok {
		body.Code = string(fe.Code)
		body.Message = fe.Message
		body.Details = fe.Details
	}
	s.logger.WithField("code", body.Code).Warnf("Request failed: %s", body.Message)
	writeJSON(w, errors.HTTPStatus(err), map[string]errorBody{"error": body})
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid JSON body").WithDetail("cause", err.Error())
	}
	return nil
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "missing required field").WithDetail("field", name)
	}
	return nil
}

func (s *Server) handleSetProjectRoot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectRoot string `json:"project_root"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := requireField("project_root", req.ProjectRoot); err != nil {
		s.writeError(w, err)
		return
	}

	root, err := s.assistant.SetRoot(req.ProjectRoot)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"project_root": root,
		"message":      "Project root set successfully",
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename      string   `json:"filename"`
		Instructions  string   `json:"instructions"`
		RelevantFiles []string `json:"relevant_files"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := requireField("filename", req.Filename); err != nil {
		s.writeError(w, err)
		return
	}
	if err := requireField("instructions", req.Instructions); err != nil {
		s.writeError(w, err)
		return
	}

	path, err := s.assistant.Generate(r.Context(), req.Filename, req.Instructions, req.RelevantFiles)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"filepath": path})
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filepath     string `json:"filepath"`
		Instructions string `json:"instructions"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := requireField("filepath", req.Filepath); err != nil {
		s.writeError(w, err)
		return
	}
	if err := requireField("instructions", req.Instructions); err != nil {
		s.writeError(w, err)
		return
	}

	diff, err := s.assistant.Modify(r.Context(), req.Filepath, req.Instructions)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"filepath": req.Filepath,
		"diff":     diff,
	})
}

func (s *Server) handleConfirmModify(w http.ResponseWriter, r *http.Request) {
	path, err := s.decodeFilepath(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.assistant.Confirm(path); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"filepath": path,
		"message":  "Modification applied",
	})
}

func (s *Server) handleCancelModify(w http.ResponseWriter, r *http.Request) {
	path, err := s.decodeFilepath(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.assistant.Cancel(path); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"filepath": path,
		"message":  "Modification discarded",
	})
}

func (s *Server) decodeFilepath(r *http.Request) (string, error) {
	var req struct {
		Filepath string `json:"filepath"`
	}
	if err := decodeBody(r, &req); err != nil {
		return "", err
	}
	if err := requireField("filepath", req.Filepath); err != nil {
		return "", err
	}
	return req.Filepath, nil
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.assistant.Sync(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := requireField("message", req.Message); err != nil {
		s.writeError(w, err)
		return
	}

	reply, err := s.assistant.Chat(r.Context(), req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	infos, err := s.proj.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	paths := make([]string, 0, len(infos))
	for _, info := range infos {
		paths = append(paths, info.Path)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": paths})
}

func (s *Server) handleFileContent(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("filepath")
	if err := requireField("filepath", path); err != nil {
		s.writeError(w, err)
		return
	}

	content, err := s.proj.Read(path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"filepath": path,
		"content":  content,
	})
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid multipart form").WithDetail("cause", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing file field"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, errors.IO(err, "read", header.Filename))
		return
	}

	rel, err := s.proj.SaveUpload(header.Filename, content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"filepath": rel})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.assistant.Snapshot())
}

func (s *Server) handlePendingDiff(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("filepath")
	if err := requireField("filepath", path); err != nil {
		s.writeError(w, err)
		return
	}

	diff, err := s.assistant.PendingDiff(path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"filepath": path,
		"diff":     diff,
	})
}
