package update

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
)

// PreviewMaxLines caps the rendered dry-run diff.
const PreviewMaxLines = 40

// Preview describes what Update would change without touching the target.
type Preview struct {
	Target      string
	Bytes       int64
	UnifiedDiff string
	Truncated   bool
}

// Preview downloads remoteURL into memory and diffs it against the installed target.
// Binary content is summarized instead of diffed.
func (u *Updater) Preview(ctx context.Context, remoteURL string) (Preview, error) {
	var buf strings.Builder
	n, err := u.download(ctx, remoteURL, &buf)
	if err != nil {
		return Preview{}, err
	}
	if n == 0 {
		return Preview{}, &UpdateError{Reason: messages.UpdateReasonEmpty}
	}

	current, err := readCapped(u.target, u.maxBytes)
	if err != nil && !os.IsNotExist(err) {
		return Preview{}, &UpdateError{Reason: messages.UpdateReasonReadTarget, Err: err}
	}

	preview := Preview{Target: u.target, Bytes: n}
	next := buf.String()
	if isBinary(current) || isBinary(next) {
		preview.UnifiedDiff = fmt.Sprintf(messages.UpdatePreviewBinaryFmt, len(current), n)
		return preview, nil
	}
	preview.UnifiedDiff, preview.Truncated = renderTruncatedDiff(
		u.target+" (installed)",
		u.target+" (remote)",
		current,
		next,
		PreviewMaxLines,
	)
	return preview, nil
}

func renderTruncatedDiff(fromName string, toName string, from string, to string, limit int) (string, bool) {
	diff := strings.TrimRight(udiff.Unified(fromName, toName, from, to), "\n")
	if diff == "" {
		return "", false
	}
	lines := strings.Split(diff, "\n")
	if len(lines) <= limit {
		return diff + "\n", false
	}
	lines = append(lines[:limit], fmt.Sprintf(messages.UpdatePreviewTruncatedFmt, limit))
	return strings.Join(lines, "\n") + "\n", true
}

func readCapped(path string, maxBytes int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(io.LimitReader(file, maxBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func isBinary(content string) bool {
	return strings.HasPrefix(content, string(elfMagic)) || strings.ContainsRune(content, 0)
}
