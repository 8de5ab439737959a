package http

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"goodsncart-auth/internal/domain"
)

// sessionMetadataFromRequest captura IP y un sniffing grueso del User-Agent.
// Suficiente para mostrar "sesiones activas" al usuario; no pretende ser un
// parser completo de UA.
func sessionMetadataFromRequest(c *gin.Context) domain.SessionMetadata {
	ip := c.ClientIP()
	ua := c.Request.UserAgent()

	location := "Unknown"
	if isPrivateIP(ip) {
		location = "Localhost"
	}

	return domain.SessionMetadata{
		IPAddress: ip,
		Location:  location,
		Device:    deviceFromUA(ua),
		Browser:   browserFromUA(ua),
		OS:        osFromUA(ua),
	}
}

func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() || parsed.IsPrivate()
}

func browserFromUA(ua string) string {
	switch {
	case strings.Contains(ua, "Edg/"):
		return "Edge"
	case strings.Contains(ua, "OPR/"), strings.Contains(ua, "Opera"):
		return "Opera"
	case strings.Contains(ua, "Firefox/"):
		return "Firefox"
	case strings.Contains(ua, "Chrome/"):
		return "Chrome"
	case strings.Contains(ua, "Safari/"):
		return "Safari"
	default:
		return "Unknown Browser"
	}
}

func osFromUA(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Mac OS X"):
		return "macOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	default:
		return "Unknown OS"
	}
}

func deviceFromUA(ua string) string {
	switch {
	case strings.Contains(ua, "iPhone"):
		return "iPhone"
	case strings.Contains(ua, "iPad"):
		return "iPad"
	case strings.Contains(ua, "Android"):
		return "Android"
	case ua == "":
		return "Unknown Device"
	default:
		return "Desktop"
	}
}
