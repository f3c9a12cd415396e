// Package extract pulls plain text out of uploaded resume files. PDF and
// DOCX are the only accepted formats, matching what applicant tracking
// systems and the optimization chain can work with.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"resume-optimizer/internal/common/errors"
)

const (
	// MaxFileSize caps uploaded resume files at 5MB
	MaxFileSize = 5 << 20

	TypePDF  = "application/pdf"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ValidateUpload rejects uploads before any parsing happens: unsupported
// content types, empty files and files over the size cap.
func ValidateUpload(data []byte, contentType, filename string) error {
	if filename == "" {
		return errors.ValidationError("file name is required")
	}
	if contentType != TypePDF && contentType != TypeDOCX {
		return errors.ValidationError("unsupported file type: only PDF and DOCX resumes are accepted")
	}
	if len(data) == 0 {
		return errors.ValidationError("uploaded file is empty")
	}
	if len(data) > MaxFileSize {
		return errors.ValidationError("file exceeds the 5MB size limit")
	}
	return nil
}

// FromUpload extracts text from an uploaded file based on its content type.
// ValidateUpload must have accepted the upload first.
func FromUpload(data []byte, contentType string) (string, error) {
	switch contentType {
	case TypePDF:
		return FromPDF(data)
	case TypeDOCX:
		return FromDOCX(data)
	default:
		return "", errors.ValidationError("unsupported file type: only PDF and DOCX resumes are accepted")
	}
}

// FromPDF extracts the plain text of every page in the document.
func FromPDF(data []byte) (text string, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return "", errors.ValidationError("file is not a valid PDF document")
	}

	// The pdf reader panics on some malformed files instead of returning
	// an error; treat those the same as a parse failure.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = errors.ValidationError("failed to read PDF document")
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.ValidationError("failed to read PDF document").WithCause(err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", errors.ValidationError("failed to extract text from PDF").WithCause(err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", errors.ValidationError("failed to extract text from PDF").WithCause(err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// FromDOCX extracts the text runs of the main document part. A DOCX file is
// a zip archive whose word/document.xml holds the text in <w:t> elements.
func FromDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.ValidationError("file is not a valid DOCX document").WithCause(err)
	}

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", errors.ValidationError("file is not a valid DOCX document")
	}

	part, err := document.Open()
	if err != nil {
		return "", errors.ValidationError("failed to read DOCX document").WithCause(err)
	}
	defer part.Close()

	text, err := textRuns(part)
	if err != nil {
		return "", errors.ValidationError("failed to extract text from DOCX").WithCause(err)
	}

	return text, nil
}

// textRuns walks the WordprocessingML stream collecting the contents of
// <w:t> elements, with a line break at the end of each paragraph.
func textRuns(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var builder strings.Builder
	var inRun bool
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed document xml: %w", err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			inRun = element.Name.Local == "t"
		case xml.EndElement:
			inRun = false
			if element.Name.Local == "p" {
				builder.WriteByte('\n')
			}
		case xml.CharData:
			if inRun {
				builder.Write(element)
			}
		}
	}

	return strings.TrimSpace(builder.String()), nil
}
