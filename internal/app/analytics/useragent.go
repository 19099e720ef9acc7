// Package analytics classifies visitors for click records.
package analytics

import "regexp"

const (
	DeviceAndroid = "Android"
	DeviceIOS     = "iOS"
	DeviceMobile  = "Mobile"
	DeviceDesktop = "Desktop"

	BrowserEdge    = "Edge"
	BrowserOpera   = "Opera"
	BrowserFirefox = "Firefox"
	BrowserChrome  = "Chrome"
	BrowserSafari  = "Safari"
	BrowserOther   = "Other"
)

var (
	androidRe     = regexp.MustCompile(`(?i)android`)
	iosRe         = regexp.MustCompile(`(?i)iphone|ipad|ipod`)
	mobileRe      = regexp.MustCompile(`(?i)mobile`)
	edgeRe        = regexp.MustCompile(`(?i)edg/`)
	operaRe       = regexp.MustCompile(`(?i)opr/|opera`)
	firefoxRe     = regexp.MustCompile(`(?i)firefox/\d`)
	chromeRe      = regexp.MustCompile(`(?i)chrome/\d`)
	notChromeRe   = regexp.MustCompile(`(?i)chromium|edg`)
	safariRe      = regexp.MustCompile(`(?i)safari/\d`)
	chromeTokenRe = regexp.MustCompile(`(?i)chrome`)
)

// Classify maps a raw User-Agent to a device and browser class.
// Checks run in priority order because UA strings carry overlapping tokens
// (every Chrome UA also claims Safari); the first match wins.
func Classify(ua string) (device, browser string) {
	return classifyDevice(ua), classifyBrowser(ua)
}

func classifyDevice(ua string) string {
	switch {
	case androidRe.MatchString(ua):
		return DeviceAndroid
	case iosRe.MatchString(ua):
		return DeviceIOS
	case mobileRe.MatchString(ua):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

func classifyBrowser(ua string) string {
	switch {
	case edgeRe.MatchString(ua):
		return BrowserEdge
	case operaRe.MatchString(ua):
		return BrowserOpera
	case firefoxRe.MatchString(ua):
		return BrowserFirefox
	case chromeRe.MatchString(ua) && !notChromeRe.MatchString(ua):
		return BrowserChrome
	case safariRe.MatchString(ua) && !chromeTokenRe.MatchString(ua):
		return BrowserSafari
	default:
		return BrowserOther
	}
}
