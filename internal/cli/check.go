package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcollect/pkg/collect"
	"github.com/goliatone/go-formcollect/pkg/formdef"
	"github.com/goliatone/go-formcollect/pkg/render"
	"github.com/goliatone/go-formcollect/pkg/sink"
	"github.com/goliatone/go-formcollect/pkg/validation"
)

// ErrInvalid is returned by check when the payload would be rejected.
var ErrInvalid = errors.New("cli: submission is invalid")

const maxCheckPayload = 1 << 20

type checkReport struct {
	Result string                   `json:"result"`
	Data   map[string]any           `json:"data"`
	Errors *validation.ErrorMapping `json:"errors,omitempty"`
}

func newCheckCmd(a *app) *cobra.Command {
	var constraints bool

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a captured submission",
		Long: `Collect a url-encoded or JSON payload exactly as the server would and
report whether it would be accepted. The payload is read from file, or from
stdin when file is omitted or "-". Exits non-zero when it would be rejected.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			if cmd.Flags().Changed("constraints") {
				a.cfg.Form.EnforceConstraints = constraints
			}
			return a.check(cmd, source)
		},
	}
	cmd.Flags().BoolVar(&constraints, "constraints", false, "Also check required, email, length and option constraints")
	return cmd
}

func (a *app) check(cmd *cobra.Command, source string) error {
	raw, err := readPayload(cmd.InOrStdin(), source)
	if err != nil {
		return err
	}

	def, err := loadDefinition(cmd.Context(), a.cfg.Form)
	if err != nil {
		return err
	}
	entries, err := parsePayload(raw, def)
	if err != nil {
		return err
	}

	record := def.Collect(entries)
	report := checkReport{Result: "ok", Data: sink.Redact(record, def.Secrets()).Map()}

	var issues []validation.Issue
	result := validation.Validate(record)
	if result == validation.Mismatch {
		report.Result = result.String()
		issues = []validation.Issue{validation.MismatchIssue()}
	} else if a.cfg.Form.EnforceConstraints {
		issues = validation.CheckConstraints(record, def)
		if len(issues) > 0 {
			report.Result = "invalid"
		}
	}
	if len(issues) > 0 {
		known := make(map[string]struct{}, len(def.Fields))
		for _, name := range def.Order() {
			known[name] = struct{}{}
		}
		mapping := validation.MapIssues(known, issues)
		report.Errors = &mapping
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	a.lggr.Debugw("payload checked", "result", report.Result, "fields", len(record))
	switch {
	case result == validation.Mismatch:
		return fmt.Errorf("%w: %w", ErrInvalid, result.Err())
	case len(issues) > 0:
		return ErrInvalid
	}
	return nil
}

func readPayload(stdin io.Reader, source string) ([]byte, error) {
	var reader io.Reader = stdin
	if source != "-" {
		file, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("cli: open payload: %w", err)
		}
		defer file.Close()
		reader = file
	}
	raw, err := io.ReadAll(io.LimitReader(reader, maxCheckPayload+1))
	if err != nil {
		return nil, fmt.Errorf("cli: read payload: %w", err)
	}
	if len(raw) > maxCheckPayload {
		return nil, fmt.Errorf("cli: payload exceeds %d bytes", maxCheckPayload)
	}
	return raw, nil
}

// parsePayload accepts a JSON object or a url-encoded body and drops the
// reserved page inputs.
func parsePayload(raw []byte, def formdef.Definition) ([]collect.FieldEntry, error) {
	trimmed := bytes.TrimSpace(raw)

	var entries []collect.FieldEntry
	if bytes.HasPrefix(trimmed, []byte("{")) {
		payload := map[string]any{}
		decoder := json.NewDecoder(bytes.NewReader(trimmed))
		decoder.UseNumber()
		if err := decoder.Decode(&payload); err != nil {
			return nil, fmt.Errorf("cli: decode json payload: %w", err)
		}
		entries = collect.EntriesFromMap(payload, def.Order())
	} else {
		values, err := url.ParseQuery(string(trimmed))
		if err != nil {
			return nil, fmt.Errorf("cli: decode form payload: %w", err)
		}
		entries = collect.Entries(values, def.Order())
	}

	out := entries[:0]
	for _, entry := range entries {
		if !render.IsReserved(entry.Name) {
			out = append(out, entry)
		}
	}
	return out, nil
}
