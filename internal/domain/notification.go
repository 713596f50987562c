package domain

import (
	"fmt"
	"strings"
	"time"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func ParseSeverity(raw string) (Severity, error) {
	severity := Severity(strings.ToLower(strings.TrimSpace(raw)))
	switch severity {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return severity, nil
	case "":
		return SeverityInfo, nil
	default:
		return "", fmt.Errorf("unsupported severity %q", raw)
	}
}

// Notification is a transient message shown to the user. ID only
// disambiguates otherwise identical notifications.
type Notification struct {
	ID        string
	Message   string
	Severity  Severity
	CreatedAt time.Time
}
