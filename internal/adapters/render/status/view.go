package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Status is everything the overview shows about the local client.
type Status struct {
	Session     domain.Session
	AvatarURL   string
	TokenExpiry time.Time
	BaseURL     string
	Storage     string
	Alerts      []domain.Notification
}

type RenderOptions struct {
	Now time.Time
}

func renderView(status Status, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Compass"),
		s.header.Render(fmt.Sprintf("backend: %s", orNone(status.BaseURL))),
	}
	if status.Storage != "" {
		lines = append(lines, s.header.Render(fmt.Sprintf("storage: %s", status.Storage)))
	}

	lines = append(lines, s.section.Render(renderSession(status, opts, s)))

	if alerts := renderAlerts(status.Alerts, s); alerts != "" {
		lines = append(lines, s.section.Render(alerts))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(status Status, opts RenderOptions, s styles) string {
	session := status.Session
	if !session.IsLoggedIn() {
		return s.empty.Render("Not logged in. Run `compass login` to authenticate.")
	}

	name := session.User.DisplayName()
	if name == "" {
		name = "unknown user"
	}
	title := s.user.Render(name)
	if session.Role == domain.RoleAdmin {
		title = lipgloss.JoinHorizontal(lipgloss.Top, title, " ", s.admin.Render("[admin]"))
	}

	parts := []string{title}
	if session.User != nil && session.User.ID != "" {
		parts = append(parts, field(s, "id", session.User.ID))
	}
	parts = append(parts, field(s, "role", session.Role.String()))
	if status.AvatarURL != "" {
		parts = append(parts, field(s, "avatar", status.AvatarURL))
	}
	parts = append(parts, tokenLine(status.TokenExpiry, opts.Now, s))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func field(s styles, label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render(label+":"), " ", s.detail.Render(value))
}

func tokenLine(expiry, now time.Time, s styles) string {
	if expiry.IsZero() {
		return field(s, "token", "opaque (no expiry claim)")
	}
	if !now.IsZero() && !expiry.After(now) {
		return lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render("token:"), " ", s.warning.Render("expired "+formatAt(expiry, now)))
	}
	return field(s, "token", formatExpiryRelative(expiry, now))
}

// RenderAlerts draws notifications one per line, active first. It returns an
// empty string when there is nothing to show.
func RenderAlerts(alerts []domain.Notification) string {
	return renderAlerts(alerts, newStyles())
}

func renderAlerts(alerts []domain.Notification, s styles) string {
	if len(alerts) == 0 {
		return ""
	}

	lines := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		lines = append(lines, s.forSeverity(alert.Severity).Render(fmt.Sprintf("%s %s", severityMarker(alert.Severity), alert.Message)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func severityMarker(severity domain.Severity) string {
	switch severity {
	case domain.SeveritySuccess:
		return "✓"
	case domain.SeverityWarning:
		return "!"
	case domain.SeverityError:
		return "✗"
	default:
		return "•"
	}
}

func formatAt(at, now time.Time) string {
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := at.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return at.Format("15:04")
	}

	return at.Format("15:04 on 02 Jan")
}

func formatExpiryRelative(expiry, now time.Time) string {
	if now.IsZero() {
		return "expires " + formatAt(expiry, now)
	}

	remaining := expiry.Sub(now)
	if remaining < 24*time.Hour {
		hours := int(math.Ceil(remaining.Hours()))
		if hours < 1 {
			hours = 1
		}
		return fmt.Sprintf("expires in %d %s (%s)", hours, plural(hours, "hour"), expiry.Format("15:04"))
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	return fmt.Sprintf("expires in %d %s (%s)", days, plural(days, "day"), expiry.Format("15:04 on 02 Jan"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func orNone(value string) string {
	if strings.TrimSpace(value) == "" {
		return "none"
	}
	return value
}
