package responses

import (
	"strings"

	"formulate-backend/src/models"

	"github.com/mssola/user_agent"
)

// Client is what the User-Agent header tells about the respondent.
type Client struct {
	Device  string
	Browser string
	OS      string
}

// ParseUserAgent classifies the respondent's device and names the browser and
// operating system with their versions, e.g. "Chrome 120.0.0.0".
func ParseUserAgent(raw string) Client {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Client{Device: models.DeviceUnknown}
	}
	ua := user_agent.New(raw)

	name, version := ua.Browser()
	info := ua.OSInfo()
	return Client{
		Device:  deviceClass(ua, raw),
		Browser: strings.TrimSpace(name + " " + version),
		OS:      strings.TrimSpace(info.Name + " " + info.Version),
	}
}

func deviceClass(ua *user_agent.UserAgent, raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case ua.Platform() == "iPad", strings.Contains(lower, "tablet"),
		strings.Contains(lower, "android") && !strings.Contains(lower, "mobile"):
		return models.DeviceTablet
	case ua.Mobile():
		return models.DeviceMobile
	default:
		return models.DeviceDesktop
	}
}
