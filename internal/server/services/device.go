package services

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceInfo is what the transport layer knows about the caller.
type DeviceInfo struct {
	UserAgent string
	IP        string
}

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	unknown       = "Unknown"
)

// parseDevice extracts browser, OS and device class from a User-Agent header.
func parseDevice(raw string) (browser, os, deviceType string) {
	if strings.TrimSpace(raw) == "" {
		return unknown, unknown, DeviceDesktop
	}
	ua := useragent.New(raw)

	name, version := ua.Browser()
	browser = name
	if major, _, _ := strings.Cut(version, "."); major != "" {
		browser = name + " " + major
	}
	if browser == "" {
		browser = unknown
	}

	os = ua.OS()
	if os == "" {
		os = unknown
	}

	switch {
	case ua.Bot():
		deviceType = DeviceBot
	case strings.Contains(raw, "iPad") || strings.Contains(raw, "Tablet"):
		deviceType = DeviceTablet
	case ua.Mobile():
		deviceType = DeviceMobile
	default:
		deviceType = DeviceDesktop
	}
	return browser, os, deviceType
}
