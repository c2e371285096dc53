package types

import (
	"time"

	"github.com/google/uuid"
)

type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// Window returns the [from, to) creation-time range of the period relative to now.
// Any period other than month or year is unrestricted and returns nil bounds.
func (p Period) Window(now time.Time) (from, to *time.Time) {
	var start, end time.Time
	switch p {
	case PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)
	case PeriodYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(1, 0, 0)
	default:
		return nil, nil
	}
	return &start, &end
}

type CategoryStat struct {
	Category Category `json:"category"`
	Count    int64    `json:"count"`
}

type UploaderStat struct {
	UploaderID   uuid.UUID `json:"uploader_id"`
	UploaderName string    `json:"uploader_name"`
	UploadCount  int64     `json:"upload_count"`
}

type ArchiveReport struct {
	Archives      []Archive      `json:"archives"`
	CategoryStats []CategoryStat `json:"categoryStats"`
	UploaderStats []UploaderStat `json:"uploaderStats"`
	Period        Period         `json:"period"`
}

type DashboardStats struct {
	TotalArchives int64              `json:"totalArchives"`
	MyArchives    int64              `json:"myArchives"`
	TotalUsers    int64              `json:"totalUsers"`
	Categories    map[Category]int64 `json:"categories"`
	ThisMonth     int64              `json:"thisMonth"`
}

// Response is the generic JSON envelope for messages.
type Response struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Operation successful"`
	Error   string `json:"error,omitempty" example:"Resource not found"`
}

// CreatedResponse answers a successful create with the new id.
type CreatedResponse struct {
	Success bool      `json:"success" example:"true"`
	Message string    `json:"message" example:"Archive uploaded successfully"`
	ID      uuid.UUID `json:"id"`
}
