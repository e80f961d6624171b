package signup

import (
	"net/http"
	"time"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formcollect/pkg/formdef"
	"github.com/goliatone/go-formcollect/pkg/logger"
	"github.com/goliatone/go-formcollect/pkg/render"
	"github.com/goliatone/go-formcollect/pkg/sink"
)

const (
	defaultRoutePath    = "/signup"
	defaultMaxBodyBytes = 1 << 20
	maxMaxBodyBytes     = 32 << 20
)

// GuardFunc authorises a request before it is handled. Returning an error
// that implements HTTPError selects the response status; any other error
// yields 403.
type GuardFunc func(r *http.Request) error

// TokenFunc returns the CSRF token to embed in the rendered form.
type TokenFunc func(r *http.Request) string

// VerifyFunc checks the CSRF token posted with a submission; it is empty
// when none was sent. Errors map to a status like GuardFunc errors.
type VerifyFunc func(r *http.Request, token string) error

type Options struct {
	RoutePath          string
	Definition         formdef.Definition
	Sink               sink.Sink
	Guard              GuardFunc
	CSRFToken          TokenFunc
	CSRFVerify         VerifyFunc
	EnforceConstraints bool
	DisableSanitize    bool
	MaxBodyBytes       int64
	Logger             logger.Logger
	Renderer           *render.PageRenderer
	Themes             theme.ThemeSelector
	ThemeName          string
	ThemeVariant       string
	Clock              func() time.Time
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    defaultRoutePath,
		Definition:   formdef.Default(),
		MaxBodyBytes: defaultMaxBodyBytes,
		Logger:       logger.Nop(),
	}
}

// NewOptions applies fns over DefaultOptions and fills anything left empty.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = defaultRoutePath
	}
	if len(opts.Definition.Fields) == 0 {
		opts.Definition = formdef.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.MaxBodyBytes > maxMaxBodyBytes {
		opts.MaxBodyBytes = maxMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Sink == nil {
		opts.Sink = sink.NewLog(opts.Logger, opts.Definition.Secrets())
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return opts
}

// withDefaults fills the zero fields of o the way NewOptions does.
func (o Options) withDefaults() Options {
	return NewOptions(func(dst *Options) { *dst = o })
}

// WithRoutePath sets the path of the form below the mount base. "/" serves
// the form at the base itself.
func WithRoutePath(path string) OptionFn {
	return func(o *Options) { o.RoutePath = path }
}

func WithDefinition(def formdef.Definition) OptionFn {
	return func(o *Options) { o.Definition = def }
}

func WithSink(target sink.Sink) OptionFn {
	return func(o *Options) { o.Sink = target }
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) { o.Guard = guard }
}

// WithCSRFToken embeds a token in every rendered form. The component does
// not check it on POST unless WithCSRFVerify is also set.
func WithCSRFToken(token TokenFunc) OptionFn {
	return func(o *Options) { o.CSRFToken = token }
}

// WithCSRFVerify checks the posted _csrf input, or the X-CSRF-Token header,
// before anything is collected.
func WithCSRFVerify(verify VerifyFunc) OptionFn {
	return func(o *Options) { o.CSRFVerify = verify }
}

func WithEnforceConstraints(enabled bool) OptionFn {
	return func(o *Options) { o.EnforceConstraints = enabled }
}

// WithSanitize toggles stripping markup from free-text answers. Secrets are
// never sanitized.
func WithSanitize(enabled bool) OptionFn {
	return func(o *Options) { o.DisableSanitize = !enabled }
}

// WithMaxBodyBytes caps request bodies; larger ones get 413.
func WithMaxBodyBytes(limit int64) OptionFn {
	return func(o *Options) { o.MaxBodyBytes = limit }
}

func WithLogger(lggr logger.Logger) OptionFn {
	return func(o *Options) { o.Logger = lggr }
}

func WithRenderer(renderer *render.PageRenderer) OptionFn {
	return func(o *Options) { o.Renderer = renderer }
}

// WithTheme selects name/variant from selector for every rendered page.
func WithTheme(selector theme.ThemeSelector, name, variant string) OptionFn {
	return func(o *Options) {
		o.Themes = selector
		o.ThemeName = name
		o.ThemeVariant = variant
	}
}

func WithClock(now func() time.Time) OptionFn {
	return func(o *Options) { o.Clock = now }
}
