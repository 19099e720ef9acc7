package middleware

import (
	"net/url"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// blockedExtensions are config and data files that may sit next to the web root.
var blockedExtensions = map[string]struct{}{
	".env":    {},
	".yaml":   {},
	".yml":    {},
	".toml":   {},
	".db":     {},
	".sqlite": {},
}

// HiddenFiles answers 404 for dotfiles and config or data files so they are
// never reached by the static file handler or the index.html fallback.
func HiddenFiles() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// The static handler serves the decoded path, so check that one.
		p, err := url.PathUnescape(c.Path())
		if err != nil || IsHiddenPath(p) {
			return fiber.ErrNotFound
		}
		return c.Next()
	}
}

// IsHiddenPath reports whether any segment of p is a dotfile or p names a
// blocked file type.
func IsHiddenPath(p string) bool {
	for _, segment := range strings.Split(p, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	_, blocked := blockedExtensions[strings.ToLower(path.Ext(p))]
	return blocked
}
