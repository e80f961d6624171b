package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-formcollect/pkg/collect"
)

// OutputFormat controls how a collected record is serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits one name=value line per value.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// ParseOutputFormat accepts the format names case-insensitively. Empty means
// JSON.
func ParseOutputFormat(raw string) (OutputFormat, error) {
	switch format := OutputFormat(strings.ToLower(strings.TrimSpace(raw))); format {
	case "":
		return OutputFormatJSON, nil
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
		return format, nil
	default:
		return "", fmt.Errorf("prompt: unknown output format %q", raw)
	}
}

// ContentType reports the media type of format.
func (f OutputFormat) ContentType() string {
	switch f {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Serialize encodes record in format. Names are emitted in sorted order and
// list values keep their collected order.
func Serialize(record collect.Record, format OutputFormat) ([]byte, error) {
	switch format {
	case OutputFormatFormURLEncoded:
		return []byte(record.Values().Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(record)), nil
	case OutputFormatJSON, "":
		if record == nil {
			record = collect.Record{}
		}
		return json.Marshal(record)
	default:
		return nil, fmt.Errorf("prompt: unknown output format %q", format)
	}
}

func prettyPrint(record collect.Record) string {
	var b strings.Builder
	for _, name := range record.Names() {
		value, _ := record.Get(name)
		if !value.IsMulti() {
			fmt.Fprintf(&b, "%s=%s\n", name, value.String())
			continue
		}
		for idx, item := range value.Strings() {
			fmt.Fprintf(&b, "%s[%d]=%s\n", name, idx, item)
		}
	}
	return b.String()
}
