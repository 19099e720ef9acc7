package analytics

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		device  string
		browser string
	}{
		{
			name:    "iphone safari",
			ua:      "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Mobile/15E148 Safari/604.1",
			device:  DeviceIOS,
			browser: BrowserSafari,
		},
		{
			name:    "desktop chrome",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36",
			device:  DeviceDesktop,
			browser: BrowserChrome,
		},
		{
			name:    "edge claims chrome and safari",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36 Edg/115.0.1901.188",
			device:  DeviceDesktop,
			browser: BrowserEdge,
		},
		{
			name:    "opera",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36 OPR/100.0.0.0",
			device:  DeviceDesktop,
			browser: BrowserOpera,
		},
		{
			name:    "android chrome",
			ua:      "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Mobile Safari/537.36",
			device:  DeviceAndroid,
			browser: BrowserChrome,
		},
		{
			name:    "firefox",
			ua:      "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
			device:  DeviceDesktop,
			browser: BrowserFirefox,
		},
		{
			name:    "chromium is not chrome",
			ua:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chromium/115.0 Chrome/115.0 Safari/537.36",
			device:  DeviceDesktop,
			browser: BrowserOther,
		},
		{
			name:    "generic mobile",
			ua:      "SomePhone/1.0 Mobile",
			device:  DeviceMobile,
			browser: BrowserOther,
		},
		{
			name:    "empty",
			ua:      "",
			device:  DeviceDesktop,
			browser: BrowserOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, browser := Classify(tt.ua)
			if device != tt.device {
				t.Errorf("device = %q, want %q", device, tt.device)
			}
			if browser != tt.browser {
				t.Errorf("browser = %q, want %q", browser, tt.browser)
			}
		})
	}
}
