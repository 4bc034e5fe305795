package validators

import (
	"path"
	"strings"
	"unicode/utf8"

	"github.com/engmung/portfolio-Nat/domain/config"
	"github.com/engmung/portfolio-Nat/pkg/errors"
)

// KnowledgeFileValidator validates the files and questions forwarded to the store
type KnowledgeFileValidator struct {
	allowedExtensions []string
	maxUploadBytes    int64
	maxQueryLength    int
}

// NewKnowledgeFileValidator creates a validator from the domain rules
func NewKnowledgeFileValidator(cfg *config.DomainConfig) *KnowledgeFileValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &KnowledgeFileValidator{
		allowedExtensions: cfg.AllowedUploadExtensions,
		maxUploadBytes:    cfg.MaxUploadBytes,
		maxQueryLength:    cfg.MaxAIQueryLength,
	}
}

// ValidateFileName rejects names that are empty, hidden or could escape the store's
// knowledge directory
func (v *KnowledgeFileValidator) ValidateFileName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name {
		return errors.ErrInvalidFileName.With("filename", name)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || strings.HasPrefix(name, ".") {
		return errors.ErrInvalidFileName.With("filename", name)
	}
	if strings.ContainsRune(name, 0) {
		return errors.ErrInvalidFileName.With("filename", name)
	}
	return nil
}

// ValidateUpload checks name, type and size of an uploaded knowledge file
func (v *KnowledgeFileValidator) ValidateUpload(name string, size int64) error {
	validationErrors := errors.NewValidationErrors()

	if err := v.ValidateFileName(name); err != nil {
		validationErrors.AddError(err.(*errors.DomainError).With("field", "filename"))
	} else if !v.allowedExtension(name) {
		validationErrors.AddError(errors.ErrUnsupportedFileType.
			With("field", "filename").
			With("allowed", v.allowedExtensions))
	}

	switch {
	case size <= 0:
		validationErrors.AddError(errors.ErrEmptyFile.With("field", "file"))
	case size > v.maxUploadBytes:
		validationErrors.AddError(errors.ErrFileTooLarge.
			With("field", "file").
			With("max_bytes", v.maxUploadBytes).
			With("actual_bytes", size))
	}

	if validationErrors.HasErrors() {
		return validationErrors
	}
	return nil
}

// ValidateQuery checks a natural-language question before it is forwarded
func (v *KnowledgeFileValidator) ValidateQuery(query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return errors.ErrEmptyQuery
	}
	if n := utf8.RuneCountInString(q); v.maxQueryLength > 0 && n > v.maxQueryLength {
		return errors.ErrQueryTooLong.With("max_length", v.maxQueryLength).With("actual_length", n)
	}
	return nil
}

// MaxUploadBytes returns the upload size limit
func (v *KnowledgeFileValidator) MaxUploadBytes() int64 {
	return v.maxUploadBytes
}

func (v *KnowledgeFileValidator) allowedExtension(name string) bool {
	ext := path.Ext(name)
	for _, allowed := range v.allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
