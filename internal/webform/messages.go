package webform

import "github.com/wolfman30/leadform/internal/form"

// InboundMessage is what the page script sends for each DOM event.
type InboundMessage struct {
	Type string `json:"type"` // form event type or "ping"

	Field  string            `json:"field,omitempty"`
	Value  string            `json:"value,omitempty"`
	Values map[string]string `json:"values,omitempty"`

	Key    string `json:"key,omitempty"`
	Ctrl   bool   `json:"ctrl,omitempty"`
	Meta   bool   `json:"meta,omitempty"`
	InForm bool   `json:"inForm,omitempty"`

	Target   string  `json:"target,omitempty"`
	Selector string  `json:"selector,omitempty"`
	Ratio    float64 `json:"ratio,omitempty"`
}

// Outbound operations understood by the page script.
const (
	OpSession         = "session"
	OpPong            = "pong"
	OpShowFieldError  = "showFieldError"
	OpClearFieldError = "clearFieldError"
	OpSetLoading      = "setLoading"
	OpHideForm        = "hideForm"
	OpShowSuccess     = "showSuccess"
	OpScrollIntoView  = "scrollIntoView"
	OpSetScale        = "setScale"
	OpShowBanner      = "showBanner"
	OpRemoveBanner    = "removeBanner"
	OpFocusFirstInput = "focusFirstInput"
	OpPrepareReveal   = "prepareReveal"
	OpReveal          = "reveal"
	OpPreventDefault  = "preventDefault"
	OpState           = "state"
	OpError           = "error"
)

// OutboundMessage is a UI command sent to the page script.
type OutboundMessage struct {
	Op        string  `json:"op"`
	SessionID string  `json:"sessionId,omitempty"`
	Field     string  `json:"field,omitempty"`
	Message   string  `json:"message,omitempty"`
	Target    string  `json:"target,omitempty"`
	Block     string  `json:"block,omitempty"`
	ID        string  `json:"id,omitempty"`
	State     string  `json:"state,omitempty"`
	Loading   *bool   `json:"loading,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
}

// toEvent converts an inbound message. ok is false for unknown types.
func toEvent(msg InboundMessage) (*form.Event, bool) {
	t := form.EventType(msg.Type)
	switch t {
	case form.EventSubmit, form.EventInput, form.EventBlur, form.EventFocus,
		form.EventKeyDown, form.EventClick, form.EventIntersect:
	default:
		return nil, false
	}
	return &form.Event{
		Type:     t,
		Field:    msg.Field,
		Value:    msg.Value,
		Key:      msg.Key,
		Ctrl:     msg.Ctrl,
		Meta:     msg.Meta,
		InForm:   msg.InForm,
		Target:   msg.Target,
		Selector: msg.Selector,
		Ratio:    msg.Ratio,
	}, true
}
