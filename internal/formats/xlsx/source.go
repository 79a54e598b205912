package xlsx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxDownload bounds how much of a remote workbook is read.
const maxDownload = 64 << 20

// Source loads worksheet rows from a workbook location: a local path or an
// http(s) URL.
type Source struct {
	Location string
	// Sheet selects a worksheet by name. Empty means the active sheet.
	Sheet string
	// Client is used for URL locations. Defaults to a client with a 30s timeout.
	Client *http.Client
	// MaxBytes caps a remote download. Zero means 64 MiB.
	MaxBytes int64
}

// IsRemote reports whether the location is fetched over HTTP.
func (s *Source) IsRemote() bool {
	return IsURL(s.Location)
}

// IsURL reports whether location is an http(s) URL rather than a path.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Load opens the workbook.
func (s *Source) Load(ctx context.Context) (*Workbook, error) {
	if s.Location == "" {
		return nil, fmt.Errorf("no workbook location configured")
	}
	if !s.IsRemote() {
		return ReadFile(s.Location)
	}

	data, err := s.download(ctx)
	if err != nil {
		return nil, err
	}
	return ReadBytes(data)
}

// Rows returns the rows of the selected worksheet.
func (s *Source) Rows(ctx context.Context) ([][]string, error) {
	wb, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.Sheet == "" {
		return wb.Active().Rows, nil
	}
	sheet, err := wb.GetSheet(s.Sheet)
	if err != nil {
		return nil, err
	}
	return sheet.Rows, nil
}

func (s *Source) download(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Location, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid workbook URL %s: %w", s.Location, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch %s: %w", s.Location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("could not fetch %s: HTTP %d", s.Location, resp.StatusCode)
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = maxDownload
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", s.Location, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("workbook %s is larger than %s", s.Location, sizeLabel(limit))
	}
	return data, nil
}

func sizeLabel(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MiB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
