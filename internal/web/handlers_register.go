package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/registrar/internal/core"
	"github.com/JonMunkholm/registrar/internal/web/templates"
)

// RegisterResponse is the body of a successful registration.
type RegisterResponse struct {
	Success   bool   `json:"success"`
	CompanyID string `json:"company_id"`
	Message   string `json:"message"`
}

// handleRegister processes a multipart registration: company fields,
// applicant fields and up to MaxFiles parts named "files".
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	policy := s.cfg.Register
	r.Body = http.MaxBytesReader(w, r.Body, policy.MaxRequestSize())

	if err := r.ParseMultipartForm(policy.MaxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, core.FilePolicyError(core.ErrRequestTooLarge,
				fmt.Sprintf("Request exceeds maximum size of %dMB", policy.MaxRequestSize()>>20)))
			return
		}
		s.respondError(w, r, core.ValidationError("parse form", "Request must be multipart/form-data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	in, err := registrationInput(r.MultipartForm)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := core.ValidateRegistration(in.Normalize()); err != nil {
		s.respondError(w, r, err)
		return
	}

	headers := fileHeaders(r.MultipartForm)
	if len(headers) > policy.MaxFiles {
		s.respondError(w, r, core.FilePolicyError(core.ErrTooManyFiles,
			fmt.Sprintf("Maximum %d files allowed per registration", policy.MaxFiles)))
		return
	}

	files := make([]core.FileUpload, len(headers))
	for i, h := range headers {
		if h.Size > policy.MaxFileSize {
			s.respondError(w, r, core.FilePolicyError(core.ErrFileTooLarge,
				fmt.Sprintf("File %s exceeds maximum size of %dMB", h.Filename, policy.MaxFileSize>>20)))
			return
		}
		files[i] = core.FileUpload{
			Name: h.Filename,
			Size: h.Size,
			Open: func() (io.ReadCloser, error) { return h.Open() },
		}
	}

	ctx := WithRequestMetadata(r.Context(), r)
	id, err := s.service.RegisterCompany(ctx, in, files)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		templates.RegistrationSuccess(in.Normalize().CompanyName, id.String()).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{
		Success:   true,
		CompanyID: id.String(),
		Message:   "Registration successful",
	})
}

// registrationInput reads the text fields of a registration. Applicant
// details come from applicant.* fields, or from a JSON "applicant" field
// when those are absent.
func registrationInput(form *multipart.Form) (core.RegistrationInput, error) {
	in := core.RegistrationInput{
		CompanyName:   formValue(form, "company_name"),
		AreaOfService: formValue(form, "area_of_service"),
		Applicant: core.ApplicantInput{
			FullName: formValue(form, "applicant.full_name"),
			Email:    formValue(form, "applicant.email"),
			Phone:    formValue(form, "applicant.phone"),
		},
	}

	if raw := formValue(form, "applicant"); raw != "" && in.Applicant == (core.ApplicantInput{}) {
		if err := json.Unmarshal([]byte(raw), &in.Applicant); err != nil {
			return in, core.ValidationError("parse applicant", "applicant must be a JSON object with full_name, email and phone")
		}
	}
	return in, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// fileHeaders returns the "files" parts, skipping the empty part browsers
// send when no file was chosen.
func fileHeaders(form *multipart.Form) []*multipart.FileHeader {
	var out []*multipart.FileHeader
	for _, h := range form.File["files"] {
		if h.Filename == "" && h.Size == 0 {
			continue
		}
		out = append(out, h)
	}
	return out
}
