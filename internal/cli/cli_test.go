package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formcollect/pkg/logger"
	"github.com/goliatone/go-formcollect/pkg/prompt"
	"github.com/goliatone/go-formcollect/pkg/sink"
	"github.com/goliatone/go-formcollect/pkg/validation"
)

func runCommand(t *testing.T, deps Deps, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	deps.In = strings.NewReader(stdin)
	deps.Out = &out
	deps.Err = &out
	if deps.Logger == nil {
		deps.Logger = logger.Test(t)
	}

	cmd := NewCommand(deps)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func findCmd(cmds []*cobra.Command, name string) *cobra.Command {
	for _, c := range cmds {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func TestNewCommand_Structure(t *testing.T) {
	cmd := NewCommand(Deps{})

	assert.Equal(t, "formcollect", cmd.Use)
	assert.NotEmpty(t, cmd.Long)
	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
	require.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))

	uses := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		uses = append(uses, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "prompt", "check"}, uses)

	promptCmd := findCmd(cmd.Commands(), "prompt")
	require.NotNil(t, promptCmd)
	format := promptCmd.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "f", format.Shorthand)
	assert.Equal(t, "json", format.DefValue)
	require.NotNil(t, promptCmd.Flags().Lookup("forward"))

	checkCmd := findCmd(cmd.Commands(), "check")
	require.NotNil(t, checkCmd)
	require.NotNil(t, checkCmd.Flags().Lookup("constraints"))

	serveCmd := findCmd(cmd.Commands(), "serve")
	require.NotNil(t, serveCmd)
	require.NotNil(t, serveCmd.Flags().Lookup("addr"))
}

const validPayload = "email=a%40b.com&password=secret1&confirm-password=secret1&first-name=A&last-name=B&role=student&acquisition=google&acquisition=friend&terms=on&_csrf=abc"

type report struct {
	Result string                   `json:"result"`
	Data   map[string]any           `json:"data"`
	Errors *validation.ErrorMapping `json:"errors"`
}

func decodeReport(t *testing.T, out string) report {
	t.Helper()
	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	return r
}

func TestCheck_AcceptsMatchingPasswordsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.txt")
	require.NoError(t, os.WriteFile(path, []byte(validPayload), 0o600))

	out, err := runCommand(t, Deps{}, "", "check", path)
	require.NoError(t, err)

	r := decodeReport(t, out)
	assert.Equal(t, "ok", r.Result)
	assert.Nil(t, r.Errors)
	assert.Equal(t, sink.RedactedValue, r.Data["password"])
	assert.Equal(t, []any{"google", "friend"}, r.Data["acquisition"])
	assert.NotContains(t, r.Data, "_csrf")
}

func TestCheck_MissingConfigFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.txt")
	require.NoError(t, os.WriteFile(path, []byte(validPayload), 0o600))

	_, err := runCommand(t, Deps{}, "", "--config", filepath.Join(t.TempDir(), "typo.yml"), "check", path)
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCheck_MismatchFromStdin(t *testing.T) {
	payload := `{"email":"a@b.com","password":"secret1","confirm-password":"other","terms":true}`

	out, err := runCommand(t, Deps{}, payload, "check", "-")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorIs(t, err, validation.ErrPasswordMismatch)

	r := decodeReport(t, out)
	assert.Equal(t, "mismatch", r.Result)
	require.NotNil(t, r.Errors)
	assert.Equal(t, []string{validation.PasswordMismatchMessage}, r.Errors.For(validation.ConfirmPasswordField))
	assert.Equal(t, "on", r.Data["terms"])
}

func TestCheck_Constraints(t *testing.T) {
	payload := strings.Replace(validPayload, "email=a%40b.com", "email=nope", 1)

	out, err := runCommand(t, Deps{}, payload, "check")
	require.NoError(t, err, "constraints are off by default")
	assert.Equal(t, "ok", decodeReport(t, out).Result)

	out, err = runCommand(t, Deps{}, payload, "check", "--constraints")
	require.ErrorIs(t, err, ErrInvalid)
	assert.False(t, errors.Is(err, validation.ErrPasswordMismatch))

	r := decodeReport(t, out)
	assert.Equal(t, "invalid", r.Result)
	assert.Equal(t, []string{"Please enter a valid email address."}, r.Errors.For("email"))
}

func TestCheck_MissingFile(t *testing.T) {
	_, err := runCommand(t, Deps{}, "", "check", filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorContains(t, err, "open payload")
}

type scriptedDriver struct {
	texts   []string
	secrets []string
}

func shift(queue *[]string, kind string) (string, error) {
	if len(*queue) == 0 {
		return "", errors.New("no " + kind + " scripted")
	}
	val := (*queue)[0]
	*queue = (*queue)[1:]
	return val, nil
}

func (d *scriptedDriver) Text(context.Context, prompt.Question) (string, error) {
	return shift(&d.texts, "text")
}

func (d *scriptedDriver) Secret(context.Context, prompt.Question) (string, error) {
	return shift(&d.secrets, "secret")
}

func (d *scriptedDriver) Multiline(context.Context, prompt.Question) (string, error) {
	return "", nil
}

func (d *scriptedDriver) Confirm(context.Context, prompt.Question) (bool, error) {
	return true, nil
}

func (d *scriptedDriver) Choose(context.Context, prompt.Question) (int, error) {
	return 0, nil
}

func (d *scriptedDriver) ChooseMany(context.Context, prompt.Question) ([]int, error) {
	return []int{0}, nil
}

func (d *scriptedDriver) Notify(context.Context, string) error {
	return nil
}

func TestPrompt_PrintsRedactedRecord(t *testing.T) {
	mem := sink.NewMemory()
	driver := &scriptedDriver{
		texts:   []string{"a@b.com", "A", "B", "a@b.com", "A", "B"},
		secrets: []string{"secret1", "other", "secret1", "secret1"},
	}

	out, err := runCommand(t, Deps{Driver: driver, Sink: mem}, "", "prompt", "--format", "pretty")
	require.NoError(t, err)

	assert.Contains(t, out, "password="+sink.RedactedValue+"\n")
	assert.Contains(t, out, "acquisition[0]=google\n")
	assert.Contains(t, out, "role=student\n")
	assert.NotContains(t, out, "secret1")

	require.Equal(t, 1, mem.Len())
	assert.Equal(t, "secret1", mem.All()[0].Record.String("password"))
}

func TestPrompt_RejectsUnknownFormat(t *testing.T) {
	_, err := runCommand(t, Deps{Driver: &scriptedDriver{}}, "", "prompt", "--format", "xml")
	require.ErrorContains(t, err, "unknown output format")
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	var out bytes.Buffer
	cmd := NewCommand(Deps{In: strings.NewReader(validPayload), Out: &out, Err: &out})
	cmd.SetArgs([]string{"--log-level", "loud", "check"})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}
