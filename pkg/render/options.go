package render

// RenderOptions describe per-request data renderers use without touching the
// component state.
type RenderOptions struct {
	// Action overrides the form's submission endpoint.
	Action string
	// HiddenFields are emitted as hidden inputs (CSRF token, session hints).
	HiddenFields map[string]string
	// Flash is shown above the form, e.g. the submission acknowledgement.
	Flash *Flash
	// Fragment renders only the <form> element without the page shell, for
	// partial updates after a change event.
	Fragment bool
	// Theme carries resolved theme tokens; nil uses the built-in defaults.
	Theme *ThemeConfig
}

// FlashLevel classifies a flash message.
type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashInfo    FlashLevel = "info"
	FlashError   FlashLevel = "error"
)

// Flash is a one-off message rendered with the form.
type Flash struct {
	Level   FlashLevel
	Message string
}
