package fetch

import (
	"context"
	"errors"
	"time"
)

// FetchOrArchive fetches directURL for sourceCode/date, scoped to that
// source's circuit breaker and rate limiter. On a 404 it falls back to
// archiveURL (if non-empty), treating it as a ZIP archive and extracting
// the member matching the date or filenameStem. Returns the bytes and the
// URL that was actually used to satisfy the request.
func (c *Client) FetchOrArchive(ctx context.Context, sourceCode, directURL, archiveURL string, date time.Time, filenameStem string) ([]byte, string, error) {
	body, err := c.fetchFor(ctx, sourceCode, directURL)
	if err == nil {
		return body, directURL, nil
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		return nil, "", err
	}
	if archiveURL == "" {
		return nil, "", err
	}

	archiveBytes, err := c.fetchFor(ctx, sourceCode, archiveURL)
	if err != nil {
		return nil, "", err
	}

	dateCompact := date.Format("20060102")
	member, _, err := extractMember(archiveBytes, dateCompact, filenameStem)
	if err != nil {
		return nil, "", err
	}
	return member, archiveURL, nil
}
