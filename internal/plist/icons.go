package plist

import (
	"strings"
)

// iconKeyPrefixes are the key prefixes that reference an application icon.
var iconKeyPrefixes = []string{"CFBundleIcon", "AppIcon"}

// IsIconKey reports whether key references an application icon.
func IsIconKey(key string) bool {
	for _, prefix := range iconKeyPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}

	return false
}

// RewriteIconKeys sets every icon key in doc, at any depth, to name and returns how many
// keys were rewritten. A matching key is replaced wholesale, whatever its value was.
func RewriteIconKeys(doc *Document, name string) int {
	n := 0

	for _, key := range doc.keys {
		if IsIconKey(key) {
			doc.values[key] = String(name)
			n++

			continue
		}

		n += rewriteValue(doc.values[key], name)
	}

	return n
}

// rewriteValue descends into documents and lists.
func rewriteValue(v Value, name string) int {
	switch t := v.(type) {
	case *Document:
		return RewriteIconKeys(t, name)

	case List:
		n := 0
		for _, e := range t {
			n += rewriteValue(e, name)
		}

		return n

	default:
		return 0
	}
}
