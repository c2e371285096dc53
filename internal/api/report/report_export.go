package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/FACorreiaa/sidara-archive/internal/types"
)

var csvHeader = []string{"Judul", "Deskripsi", "Kategori", "Uploader", "Tanggal Upload", "Ukuran File"}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// writeArchiveCSV writes one row per archive under an Indonesian header.
func writeArchiveCSV(w io.Writer, archives []types.Archive, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}
	for _, a := range archives {
		record := []string{
			a.Title,
			a.Description,
			a.Category.Label(),
			a.UploaderName,
			formatDate(a.CreatedAt.In(loc)),
			formatFileSize(a.FileSize),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("error writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("error flushing csv: %w", err)
	}
	return nil
}

// exportFilename names the download after the period and the export day.
func exportFilename(period types.Period, now time.Time) string {
	switch period {
	case types.PeriodMonth, types.PeriodYear:
	default:
		period = types.PeriodAll
	}
	return fmt.Sprintf("laporan_arsip_%s_%s.csv", period, now.Format(time.DateOnly))
}

// formatDate renders e.g. "14 Maret 2025".
func formatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// formatFileSize uses 1024 steps and at most two decimals, e.g. "1.5 KB".
func formatFileSize(size int64) string {
	if size <= 0 {
		return "0 Bytes"
	}
	units := [...]string{"Bytes", "KB", "MB", "GB"}
	i := 0
	for i < len(units)-1 && size >= int64(1)<<(10*(i+1)) {
		i++
	}
	v := math.Round(float64(size)/float64(int64(1)<<(10*i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + units[i]
}
