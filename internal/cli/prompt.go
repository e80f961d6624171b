package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcollect/pkg/prompt"
	"github.com/goliatone/go-formcollect/pkg/signup"
	"github.com/goliatone/go-formcollect/pkg/sink"
)

type promptFlags struct {
	format      string
	forward     string
	attempts    int
	showSecrets bool
}

func newPromptCmd(a *app) *cobra.Command {
	var flags promptFlags

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill in the form interactively",
		Long: `Ask for every field of the form in the terminal and print the accepted
record. With --forward the record is also posted to a URL; invalid answers
are asked again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.prompt(cmd, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.format, "format", "f", string(prompt.OutputFormatJSON), "Output format: json, form or pretty")
	cmd.Flags().StringVar(&flags.forward, "forward", "", "Post the accepted record to this URL")
	cmd.Flags().IntVar(&flags.attempts, "attempts", 3, "How many times to ask before giving up")
	cmd.Flags().BoolVar(&flags.showSecrets, "show-secrets", false, "Print password fields instead of masking them")
	return cmd
}

func (a *app) prompt(cmd *cobra.Command, flags promptFlags) error {
	format, err := prompt.ParseOutputFormat(flags.format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	def, err := loadDefinition(ctx, a.cfg.Form)
	if err != nil {
		return err
	}

	var target sink.Sink = sink.NewMemory()
	switch {
	case a.deps.Sink != nil:
		target = a.deps.Sink
	case flags.forward != "":
		httpCfg := a.cfg.Sink.HTTP
		target, err = sink.NewHTTP(flags.forward,
			sink.WithAttempts(httpCfg.Attempts),
			sink.WithDelay(httpCfg.Delay),
			sink.WithHTTPLogger(a.lggr),
		)
		if err != nil {
			return err
		}
	}

	session := signup.NewSession(
		signup.WithDefinition(def),
		signup.WithSink(target),
		signup.WithConstraints(a.cfg.Form.EnforceConstraints),
		signup.WithLogger(a.lggr),
	)

	driver := a.deps.Driver
	if driver == nil {
		driver = prompt.NewSurveyDriver(cmd.OutOrStdout())
	}
	collector := prompt.New(
		prompt.WithPromptDriver(driver),
		prompt.WithMaxAttempts(flags.attempts),
		prompt.WithLogger(a.lggr),
	)

	outcome, err := collector.Run(ctx, session)
	if err != nil {
		return err
	}

	record := outcome.Record
	if !flags.showSecrets {
		record = sink.Redact(record, def.Secrets())
	}
	payload, err := prompt.Serialize(record, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return err
}
