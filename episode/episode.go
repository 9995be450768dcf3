// Package episode describes a single conversion request and the name under
// which its audio is served.
package episode

import (
	"errors"
	"strings"

	"github.com/samber/lo"
)

const (
	DefaultTitle = "episode"
	Ext          = "mp3"

	maxNameLen = 120
)

var ErrMissingURL = errors.New("url is required")

type Request struct {
	URL         string
	Title       string
	Description string
	Filename    string
}

func NewRequest(url, title, description, filename string) (Request, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Request{}, ErrMissingURL //nolint:exhaustruct
	}

	return Request{
		URL:         url,
		Title:       lo.Ternary(title == "", DefaultTitle, title),
		Description: description,
		Filename:    filename,
	}, nil
}

// OutputFilename is the attachment name the audio is served under. An
// explicit filename takes precedence over the title.
func (r Request) OutputFilename() string {
	return Filename(lo.Ternary(strings.TrimSpace(r.Filename) != "", r.Filename, r.Title))
}

var illegal = strings.NewReplacer(
	`\`, "",
	"/", "",
	":", "",
	"*", "",
	"?", "",
	`"`, "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeName drops characters most filesystems reject and caps the result at
// 120 runes. It returns DefaultTitle if nothing is left.
func SanitizeName(name string) string {
	name = strings.TrimSpace(illegal.Replace(name))
	if runes := []rune(name); len(runes) > maxNameLen {
		name = strings.TrimSpace(string(runes[:maxNameLen]))
	}

	return lo.Ternary(name == "", DefaultTitle, name)
}

// Filename sanitizes name and appends the mp3 extension. A name already
// carrying the extension does not get it twice.
func Filename(name string) string {
	name = strings.TrimSpace(name)
	if suffix := "." + Ext; len(name) > len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
		name = name[:len(name)-len(suffix)]
	}

	return SanitizeName(name) + "." + Ext
}
