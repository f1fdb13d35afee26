package pipeline

import (
	"errors"
	"fmt"

	"portal/internal/upstream"
)

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-visible message attached to a rendered section.
type Notice struct {
	Level NoticeLevel
	Text  string
}

func noticef(level NoticeLevel, format string, args ...any) Notice {
	return Notice{Level: level, Text: fmt.Sprintf(format, args...)}
}

// upstreamNotice converts a failed upstream call into the message shown in
// place of the section that needed it.
func upstreamNotice(what string, err error) Notice {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		return noticef(NoticeError, "Error fetching %s: %d", what, statusErr.StatusCode)
	}
	return noticef(NoticeError, "Exception fetching %s: %v", what, err)
}
