package signup

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/goliatone/go-formcollect/pkg/collect"
	"github.com/goliatone/go-formcollect/pkg/logger"
	"github.com/goliatone/go-formcollect/pkg/render"
	pkgsignup "github.com/goliatone/go-formcollect/pkg/signup"
	"github.com/goliatone/go-formcollect/pkg/sink"
	"github.com/goliatone/go-formcollect/pkg/validation"
)

// SubmittedParam carries the accepted submission ID on the redirect back to
// the form.
const SubmittedParam = "submitted"

const allowedMethods = http.MethodGet + ", " + http.MethodHead + ", " + http.MethodPost

type submitResponse struct {
	ID    string         `json:"id,omitempty"`
	State string         `json:"state"`
	Data  map[string]any `json:"data,omitempty"`
	// Errors is only set for invalid submissions.
	Errors *validation.ErrorMapping `json:"errors,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	return HandlerWithOptions(opts)
}

// HandlerWithOptions serves the signup form on GET and HEAD and accepts
// submissions on POST. Each request gets its own session, so the Idle,
// Invalid and Submitted states span exactly one round trip.
func HandlerWithOptions(opts Options) http.Handler {
	opts = opts.withDefaults()
	return &handler{opts: opts, lggr: opts.Logger.Named("http")}
}

type handler struct {
	opts Options
	lggr logger.Logger

	rendererOnce sync.Once
	renderer     *render.PageRenderer
	rendererErr  error
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	reqID := requestID(r)
	w.Header().Set(RequestIDHeader, reqID)
	lggr := h.lggr.With("request_id", reqID, "method", r.Method, "path", r.URL.Path)

	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodPost:
	default:
		w.Header().Set("Allow", allowedMethods)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if h.opts.Guard != nil {
		if err := h.opts.Guard(r); err != nil {
			lggr.Warnw("request refused by guard", "err", err)
			writeGuardError(w, err)
			return
		}
	}

	if r.Method == http.MethodPost {
		h.submit(w, r, lggr)
		return
	}

	submitted := strings.TrimSpace(r.URL.Query().Get(SubmittedParam))
	h.writePage(w, r, lggr, http.StatusOK, render.PageInput{SubmittedID: submitted})
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request, lggr logger.Logger) {
	def := h.opts.Definition
	asJSON := wantsJSON(r)

	entries, reserved, err := readEntries(w, r, def.Order(), h.opts.MaxBodyBytes)
	if err != nil {
		status := bodyErrorStatus(err)
		lggr.Infow("submission body rejected", "status", status, "err", err)
		h.writeError(w, asJSON, status, err)
		return
	}

	if h.opts.CSRFVerify != nil {
		if err := h.opts.CSRFVerify(r, submittedCSRF(r, reserved)); err != nil {
			status := guardStatus(err)
			lggr.Warnw("csrf token rejected", "status", status, "err", err)
			h.writeError(w, asJSON, status, errors.New(http.StatusText(status)))
			return
		}
	}

	session := pkgsignup.NewSession(
		pkgsignup.WithDefinition(def),
		pkgsignup.WithSink(h.opts.Sink),
		pkgsignup.WithConstraints(h.opts.EnforceConstraints),
		pkgsignup.WithSanitize(!h.opts.DisableSanitize),
		pkgsignup.WithLogger(lggr),
		pkgsignup.WithClock(h.opts.Clock),
	)

	outcome, err := session.Submit(r.Context(), entries)
	if err != nil {
		status := http.StatusBadGateway
		if !errors.Is(err, pkgsignup.ErrDelivery) {
			status = http.StatusInternalServerError
		}
		h.writeError(w, asJSON, status, errors.New(http.StatusText(status)))
		return
	}

	switch outcome.State {
	case pkgsignup.Invalid:
		if asJSON {
			errs := outcome.Errors
			writeJSON(w, http.StatusUnprocessableEntity, submitResponse{State: outcome.State.String(), Errors: &errs})
			return
		}
		h.writePage(w, r, lggr, http.StatusUnprocessableEntity, render.PageInput{
			Values: outcome.Record,
			Errors: outcome.Errors,
		})
	case pkgsignup.Submitted:
		if asJSON {
			writeJSON(w, http.StatusCreated, submitResponse{
				ID:    outcome.ID,
				State: outcome.State.String(),
				Data:  sink.Redact(outcome.Record, def.Secrets()).Map(),
			})
			return
		}
		target := url.URL{Path: r.URL.Path, RawQuery: url.Values{SubmittedParam: {outcome.ID}}.Encode()}
		http.Redirect(w, r, target.String(), http.StatusSeeOther)
	default:
		h.writeError(w, asJSON, http.StatusInternalServerError, errors.New(http.StatusText(http.StatusInternalServerError)))
	}
}

func (h *handler) writePage(w http.ResponseWriter, r *http.Request, lggr logger.Logger, status int, in render.PageInput) {
	renderer, err := h.pageRenderer()
	if err != nil {
		lggr.Errorw("page renderer unavailable", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	in.Definition = h.opts.Definition
	in.Action = r.URL.Path
	in.Hidden = render.HiddenFields{}.With(render.FormID(h.opts.Definition.ID))
	if h.opts.CSRFToken != nil {
		if token := h.opts.CSRFToken(r); token != "" {
			in.Hidden = in.Hidden.With(render.CSRFToken(token))
		}
	}
	in.Theme = h.pageTheme(lggr)
	if in.Values == nil {
		in.Values = collect.Record{}
	}

	var body strings.Builder
	if err := renderer.Render(&body, render.BuildPage(in)); err != nil {
		lggr.Errorw("page render failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write([]byte(body.String()))
}

func (h *handler) pageRenderer() (*render.PageRenderer, error) {
	if h.opts.Renderer != nil {
		return h.opts.Renderer, nil
	}
	h.rendererOnce.Do(func() {
		h.renderer, h.rendererErr = render.NewDefaultPageRenderer()
	})
	return h.renderer, h.rendererErr
}

// pageTheme resolves the configured theme. Failures only drop the styling.
func (h *handler) pageTheme(lggr logger.Logger) *render.PageTheme {
	if h.opts.Themes == nil {
		return nil
	}
	selection, err := h.opts.Themes.Select(h.opts.ThemeName, h.opts.ThemeVariant)
	if err != nil {
		lggr.Warnw("theme selection failed", "theme", h.opts.ThemeName, "err", err)
		return nil
	}
	return render.NewPageTheme(render.ThemeConfig(selection))
}

func (h *handler) writeError(w http.ResponseWriter, asJSON bool, status int, err error) {
	if asJSON {
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	http.Error(w, http.StatusText(status), status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := guardStatus(err)
	http.Error(w, http.StatusText(code), code)
}
