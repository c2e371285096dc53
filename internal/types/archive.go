package types

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryKendaraan  Category = "kendaraan"
	CategoryStaf       Category = "staf"
	CategoryInventaris Category = "inventaris"
)

// Categories lists the closed set of archive categories.
var Categories = []Category{CategoryKendaraan, CategoryStaf, CategoryInventaris}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

var categoryLabels = map[Category]string{
	CategoryKendaraan:  "Data Kendaraan & Riwayat Uji",
	CategoryStaf:       "Data Staf/Pegawai",
	CategoryInventaris: "Data Inventaris",
}

// Label is the display name used in exported reports; unknown values pass through.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Archive is one uploaded document: metadata plus the name of its stored file.
type Archive struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Category         Category   `json:"category"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	FileSize         int64      `json:"file_size"`
	MimeType         string     `json:"mime_type"`
	UploaderID       uuid.UUID  `json:"uploader_id"`
	UploaderName     string     `json:"uploader_name,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// ArchiveFilter narrows List. Zero value matches everything.
// CreatedFrom is inclusive, CreatedTo exclusive.
type ArchiveFilter struct {
	Category    Category
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

func (f ArchiveFilter) Validate() error {
	if f.Category != "" && !f.Category.Valid() {
		return NewValidationError("category", "must be one of kendaraan, staf, inventaris")
	}
	return nil
}

// UploadArchiveParams is the upload input; Content is read once.
type UploadArchiveParams struct {
	Title            string
	Description      string
	Category         Category
	OriginalFilename string
	MimeType         string
	Size             int64
	Content          io.Reader
}

func (p *UploadArchiveParams) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Category = Category(strings.TrimSpace(string(p.Category)))
}

func (p UploadArchiveParams) Validate() error {
	if p.Content == nil || p.OriginalFilename == "" {
		return NewValidationError("file", "is required")
	}
	if err := validateArchiveFields(p.Title, p.Description, p.Category); err != nil {
		return err
	}
	return nil
}

// UpdateArchiveParams replaces the editable metadata of an archive.
type UpdateArchiveParams struct {
	Title       string   `json:"title" example:"STNK B 1234 XYZ"`
	Description string   `json:"description" example:"Scan of the registration certificate"`
	Category    Category `json:"category" example:"kendaraan"`
}

func (p *UpdateArchiveParams) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Category = Category(strings.TrimSpace(string(p.Category)))
}

func (p UpdateArchiveParams) Validate() error {
	return validateArchiveFields(p.Title, p.Description, p.Category)
}

func validateArchiveFields(title, description string, category Category) error {
	if err := requireField("title", title); err != nil {
		return err
	}
	if err := requireField("description", description); err != nil {
		return err
	}
	if err := requireField("category", string(category)); err != nil {
		return err
	}
	if !category.Valid() {
		return NewValidationError("category", "must be one of kendaraan, staf, inventaris")
	}
	return nil
}
