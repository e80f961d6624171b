package render

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formcollect/pkg/collect"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// maxSanitizePasses bounds how many layers of entity encoding are peeled.
const maxSanitizePasses = 8

// SanitizeText strips every HTML element from raw and returns plain text.
// Entities are decoded so "Tom & Jerry" survives unchanged, and the decoded
// text is stripped again until it is stable, so encoded markup such as
// "&lt;script&gt;" cannot come back as a live tag. Text still changing after
// maxSanitizePasses is returned escaped.
func SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	policy := textSanitizer()
	text := raw
	for range maxSanitizePasses {
		stripped := policy.Sanitize(text)
		decoded := html.UnescapeString(stripped)
		if decoded == text {
			return decoded
		}
		text = decoded
	}
	return policy.Sanitize(text)
}

// SanitizeRecord returns a copy of record with SanitizeText applied to every
// value except the fields named in skip (passwords must reach the sink
// byte-for-byte).
func SanitizeRecord(record collect.Record, skip collect.Names) collect.Record {
	out := make(collect.Record, len(record))
	for name, value := range record {
		if skip.Has(name) {
			out[name] = value
			continue
		}
		if value.IsMulti() {
			items := value.Strings()
			for i, item := range items {
				items[i] = SanitizeText(item)
			}
			out[name] = collect.Multi(items...)
			continue
		}
		out[name] = collect.Single(SanitizeText(value.String()))
	}
	return out
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
