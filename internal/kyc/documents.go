package kyc

import (
	"fmt"
	"path/filepath"
	"strings"

	"investgate/internal/sequence"
)

// MaxProofSize is the upload ceiling for bank proof documents.
const MaxProofSize = 5 << 20 // 5 MB

var allowedProofExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var allowedProofMIMETypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// CheckProofDocument validates an upload by extension AND declared MIME
// type; either failing rejects the file. Size is checked against
// MaxProofSize. Causes mirror the inline messages shown next to the upload
// control.
func CheckProofDocument(fileName string, size int64, contentType string) []sequence.FieldCause {
	var causes []sequence.FieldCause
	if size <= 0 {
		causes = append(causes, sequence.FieldCause{Field: "bank_proof", Message: "Attach a bank proof document"})
		return causes
	}
	if size > MaxProofSize {
		causes = append(causes, sequence.FieldCause{Field: "bank_proof", Message: "File must be 5 MB or smaller"})
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedProofExtensions[ext] {
		causes = append(causes, sequence.FieldCause{Field: "bank_proof", Message: "File must be PDF, JPG, JPEG or PNG"})
	}
	mime := contentType
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	if !allowedProofMIMETypes[strings.ToLower(strings.TrimSpace(mime))] {
		causes = append(causes, sequence.FieldCause{Field: "bank_proof", Message: fmt.Sprintf("Unsupported file type %q", contentType)})
	}
	return causes
}
