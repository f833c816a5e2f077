package fetch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// extractMember opens a ZIP archive and returns the bytes of the member
// whose filename contains dateCompact (YYYYMMDD) or, failing that, the
// filenameStem. Returns a *DecodeError if no candidate member is found or
// the archive/member cannot be read.
func extractMember(archiveBytes []byte, dateCompact, filenameStem string) ([]byte, string, error) {
	zr, err := zip.NewReader(bytes.NewReader(archiveBytes), int64(len(archiveBytes)))
	if err != nil {
		return nil, "", &DecodeError{Reason: fmt.Sprintf("open zip: %v", err)}
	}

	var byDate, byStem *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if dateCompact != "" && strings.Contains(f.Name, dateCompact) {
			byDate = f
			break
		}
		if filenameStem != "" && byStem == nil && strings.Contains(f.Name, filenameStem) {
			byStem = f
		}
	}

	chosen := byDate
	if chosen == nil {
		chosen = byStem
	}
	if chosen == nil {
		return nil, "", &DecodeError{Reason: "no archive member matched date or filename stem"}
	}

	rc, err := chosen.Open()
	if err != nil {
		return nil, "", &DecodeError{Reason: fmt.Sprintf("open member %s: %v", chosen.Name, err)}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", &DecodeError{Reason: fmt.Sprintf("read member %s: %v", chosen.Name, err)}
	}
	return data, chosen.Name, nil
}
