package interceptor

import (
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Class is one of the five cache namespaces.
type Class string

const (
	ClassNavigations Class = "navigations"
	ClassStories     Class = "stories-cache"
	ClassImages      Class = "images-cache"
	ClassAPI         Class = "api-cache"
	ClassStatic      Class = "static-assets"
)

// KnownClasses lists every namespace this version owns. Anything else found
// at activation time is deleted.
func KnownClasses() []Class {
	return []Class{ClassNavigations, ClassStories, ClassImages, ClassAPI, ClassStatic}
}

type Strategy int

const (
	StrategyNetworkFirst Strategy = iota
	StrategyCacheFirst
	StrategyStaleWhileRevalidate
)

// policy binds a class to its strategy and eviction limits. Zero limits mean
// unbounded.
type policy struct {
	class      Class
	strategy   Strategy
	maxEntries int
	maxAge     time.Duration
}

var policies = map[Class]policy{
	ClassNavigations: {class: ClassNavigations, strategy: StrategyNetworkFirst},
	ClassStories:     {class: ClassStories, strategy: StrategyStaleWhileRevalidate, maxEntries: 50, maxAge: 7 * 24 * time.Hour},
	ClassImages:      {class: ClassImages, strategy: StrategyCacheFirst, maxEntries: 60, maxAge: 30 * 24 * time.Hour},
	ClassAPI:         {class: ClassAPI, strategy: StrategyNetworkFirst, maxEntries: 30, maxAge: 24 * time.Hour},
	ClassStatic:      {class: ClassStatic, strategy: StrategyStaleWhileRevalidate, maxEntries: 60, maxAge: 7 * 24 * time.Hour},
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".ico": true, ".avif": true,
}

var staticExtensions = map[string]bool{
	".css": true, ".js": true, ".mjs": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true,
}

// classify assigns a request to a cache class, mirroring the route table:
// navigations, story API, images, other backend API, static assets. Anything
// else stays network-only. Only idempotent reads are ever cached.
func (t *Transport) classify(req *http.Request) (policy, bool) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return policy{}, false
	}

	u := req.URL
	api := sameOrigin(u, t.apiOrigin)

	switch {
	case isNavigation(req):
		return policies[ClassNavigations], true
	case api && strings.Contains(u.Path, "/stories"):
		return policies[ClassStories], true
	case (api && strings.HasPrefix(u.Path, "/images/")) || isImage(req):
		return policies[ClassImages], true
	case api:
		return policies[ClassAPI], true
	case isStaticAsset(req):
		return policies[ClassStatic], true
	}

	return policy{}, false
}

func sameOrigin(u, origin *url.URL) bool {
	return u.Scheme == origin.Scheme && u.Host == origin.Host
}

func isNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

func isImage(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Dest") == "image" {
		return true
	}
	return imageExtensions[strings.ToLower(path.Ext(req.URL.Path))]
}

func isStaticAsset(req *http.Request) bool {
	switch req.Header.Get("Sec-Fetch-Dest") {
	case "style", "script", "font":
		return true
	}
	return staticExtensions[strings.ToLower(path.Ext(req.URL.Path))]
}
