package types

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var ve *ValidationError
	if assert.True(t, errors.As(err, &ve), "want *ValidationError, got %v", err) {
		assert.Equal(t, field, ve.Field)
	}
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("title", "is required")
	assert.EqualError(t, err, "title: is required")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCategory_Valid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Category("Kendaraan").Valid())
	assert.False(t, Category("").Valid())
}

func TestUploadArchiveParams_Validate(t *testing.T) {
	valid := func() UploadArchiveParams {
		return UploadArchiveParams{
			Title:            "STNK",
			Description:      "Registration",
			Category:         CategoryKendaraan,
			OriginalFilename: "stnk.pdf",
			Content:          strings.NewReader("%PDF"),
		}
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*UploadArchiveParams)
		field  string
	}{
		{"missing file", func(p *UploadArchiveParams) { p.Content = nil }, "file"},
		{"missing filename", func(p *UploadArchiveParams) { p.OriginalFilename = "" }, "file"},
		{"missing title", func(p *UploadArchiveParams) { p.Title = "" }, "title"},
		{"missing description", func(p *UploadArchiveParams) { p.Description = "" }, "description"},
		{"missing category", func(p *UploadArchiveParams) { p.Category = "" }, "category"},
		{"unknown category", func(p *UploadArchiveParams) { p.Category = "keuangan" }, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			assertFieldError(t, p.Validate(), tt.field)
		})
	}
}

func TestUploadArchiveParams_Normalize(t *testing.T) {
	p := UploadArchiveParams{Title: "  STNK ", Description: "\tdoc\n", Category: " staf "}
	p.Normalize()
	assert.Equal(t, "STNK", p.Title)
	assert.Equal(t, "doc", p.Description)
	assert.Equal(t, CategoryStaf, p.Category)
}

func TestUpdateArchiveParams_Normalize(t *testing.T) {
	p := UpdateArchiveParams{Title: " SK ", Description: "decree ", Category: " staf"}
	p.Normalize()
	assert.Equal(t, "SK", p.Title)
	assert.Equal(t, "decree", p.Description)
	assert.Equal(t, CategoryStaf, p.Category)
	assert.NoError(t, p.Validate())
}

func TestArchiveFilter_Validate(t *testing.T) {
	assert.NoError(t, ArchiveFilter{}.Validate())
	assert.NoError(t, ArchiveFilter{Category: CategoryInventaris}.Validate())
	assertFieldError(t, ArchiveFilter{Category: "other"}.Validate(), "category")
}

func TestCreateUserParams_Validate(t *testing.T) {
	valid := CreateUserParams{Username: "budi", Name: "Budi", Email: "budi@example.com", Password: "pw", Role: RoleUser}
	assert.NoError(t, valid.Validate())

	noPassword := valid
	noPassword.Password = ""
	assertFieldError(t, noPassword.Validate(), "password")

	badRole := valid
	badRole.Role = "root"
	assertFieldError(t, badRole.Validate(), "role")
}

func TestUpdateUserParams_Validate(t *testing.T) {
	valid := UpdateUserParams{Username: "budi", Name: "Budi", Email: "b@example.com", Role: RoleAdmin, Status: UserStatusInactive}
	assert.NoError(t, valid.Validate())

	badStatus := valid
	badStatus.Status = "banned"
	assertFieldError(t, badStatus.Validate(), "status")

	noName := valid
	noName.Name = ""
	assertFieldError(t, noName.Validate(), "name")
}

func TestUpdateProfileParams_Validate(t *testing.T) {
	assert.NoError(t, UpdateProfileParams{Name: "Budi", Email: "b@example.com"}.Validate())
	assertFieldError(t, UpdateProfileParams{Name: "Budi"}.Validate(), "email")
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, LoginRequest{Username: "admin", Password: "x"}.Validate())
	assertFieldError(t, LoginRequest{Password: "x"}.Validate(), "username")
	assertFieldError(t, LoginRequest{Username: "admin"}.Validate(), "password")
}
