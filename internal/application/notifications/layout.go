package notifications

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary  = "#1D4ED8"
	themeTextMain = "#1F2937"
	themeBgBody   = "#F3F4F6"
	themeWhite    = "#FFFFFF"
)

// Layout wraps content in the shared email shell.
func Layout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>PropertyOps</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 16px 0; font-size: 15px; line-height: 1.5; }
    .content-body h1 { font-size: 20px; margin: 0 0 16px 0; }
    .label { color: %s; font-weight: 600; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0" style="background-color: %s;">
    <tr>
      <td align="center" style="padding: 32px 0;">
        <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background-color: %s; border-radius: 8px;">
          <tr><td class="content-body" style="padding: 32px 40px;">%s</td></tr>
          <tr><td style="padding: 0 40px 24px 40px; font-size: 12px; color: #6B7280;">&copy; %d PropertyOps operations</td></tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		themeBgBody, themeTextMain, themePrimary, themeBgBody, themeWhite, contentHTML, time.Now().Year())
}

func maintenanceContent(n MaintenanceNotice) string {
	return fmt.Sprintf(`
    <h1>New maintenance request</h1>
    <p><span class="label">Unit:</span> %s</p>
    <p><span class="label">Address:</span> %s</p>
    <p><span class="label">Category:</span> %s &nbsp; <span class="label">Priority:</span> %d</p>
    <p><span class="label">Reported:</span> %s</p>
    <p>%s</p>
    <p style="font-size: 12px; color: #6B7280;">Request %s</p>
`, html.EscapeString(n.UnitName), html.EscapeString(n.Address), html.EscapeString(n.Category), n.Priority,
		n.CreatedAt.UTC().Format("2006-01-02 15:04 MST"), html.EscapeString(n.Description), html.EscapeString(n.RequestID))
}
