package webform

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wolfman30/leadform/internal/form"
)

const writeWait = 10 * time.Second

// session is the form.View for one browser connection. Field values mirror
// what the page reports; they are only touched on the session's loop.
type session struct {
	id     string
	conn   *websocket.Conn
	out    chan OutboundMessage
	ctx    context.Context
	values map[string]string

	pingInterval time.Duration
}

func newSession(ctx context.Context, id string, conn *websocket.Conn, pingInterval time.Duration) *session {
	return &session{
		id:           id,
		conn:         conn,
		out:          make(chan OutboundMessage, 32),
		ctx:          ctx,
		values:       make(map[string]string),
		pingInterval: pingInterval,
	}
}

// writePump is the only goroutine that writes to the connection. It pings
// the browser every pingInterval so an idle but healthy tab keeps its read
// deadline moving.
func (s *session) writePump() error {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-s.ctx.Done():
			deadline := time.Now().Add(writeWait)
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return nil
		case msg := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				return err
			}
		}
	}
}

func (s *session) send(msg OutboundMessage) {
	select {
	case s.out <- msg:
	case <-s.ctx.Done():
	}
}

// applyValues records the control values carried by msg.
func (s *session) applyValues(msg InboundMessage) {
	for field, value := range msg.Values {
		s.values[field] = value
	}
	if msg.Field == "" {
		return
	}
	switch form.EventType(msg.Type) {
	case form.EventInput, form.EventBlur:
		s.values[msg.Field] = msg.Value
	}
}

func (s *session) Value(field string) string {
	return s.values[field]
}

func (s *session) ShowFieldError(field, message string) {
	s.send(OutboundMessage{Op: OpShowFieldError, Field: field, Message: message})
}

func (s *session) ClearFieldError(field string) {
	s.send(OutboundMessage{Op: OpClearFieldError, Field: field})
}

func (s *session) SetLoading(loading bool) {
	s.send(OutboundMessage{Op: OpSetLoading, Loading: &loading})
}

func (s *session) HideForm() {
	s.send(OutboundMessage{Op: OpHideForm})
}

func (s *session) ShowSuccess() {
	s.send(OutboundMessage{Op: OpShowSuccess})
}

func (s *session) ScrollIntoView(target, block string) {
	s.send(OutboundMessage{Op: OpScrollIntoView, Target: target, Block: block})
}

func (s *session) SetScale(target string, scale float64) {
	s.send(OutboundMessage{Op: OpSetScale, Target: target, Scale: scale})
}

func (s *session) ShowBanner(id, message string) {
	s.send(OutboundMessage{Op: OpShowBanner, ID: id, Message: message})
}

func (s *session) RemoveBanner(id string) {
	s.send(OutboundMessage{Op: OpRemoveBanner, ID: id})
}

func (s *session) FocusFirstInput(container string) {
	s.send(OutboundMessage{Op: OpFocusFirstInput, Target: container})
}

func (s *session) PrepareReveal(selector string) {
	s.send(OutboundMessage{Op: OpPrepareReveal, Target: selector})
}

func (s *session) Reveal(target string) {
	s.send(OutboundMessage{Op: OpReveal, Target: target})
}

func (s *session) StateChanged(state form.State) {
	s.send(OutboundMessage{Op: OpState, State: state.String()})
}

var _ form.View = (*session)(nil)
