package form

import "strings"

// Attach registers the controller's handlers on src. Calling Attach again
// first removes the previous registrations.
func (c *Controller) Attach(src EventSource) {
	c.Detach()
	c.removers = append(c.removers,
		src.On(EventSubmit, c.HandleSubmit),
		src.On(EventInput, c.onInput),
		src.On(EventBlur, c.onBlur),
		src.On(EventFocus, c.onFocus),
		src.On(EventKeyDown, c.onKeyDown),
		src.On(EventClick, c.onClick),
		src.On(EventIntersect, c.onIntersect),
	)
	for _, sel := range c.opts.RevealSelectors {
		c.view.PrepareReveal(sel)
	}
}

// Detach removes every handler registered by Attach and drops a pending
// banner timer. An in-flight submission still completes, either through the
// Scheduler or through Drain once the Scheduler has stopped.
func (c *Controller) Detach() {
	for _, remove := range c.removers {
		remove()
	}
	c.removers = nil
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
		c.bannerTimer = nil
	}
}

// onInput clears a required field's error as soon as the user edits it.
func (c *Controller) onInput(ev *Event) {
	if c.required[ev.Field] {
		c.ClearFieldError(ev.Field)
	}
}

func (c *Controller) onBlur(ev *Event) {
	c.view.SetScale(ev.Field, 1)
	if c.required[ev.Field] {
		c.ValidateField(ev.Field)
	}
	if ev.Field == c.opts.EmailField {
		c.ValidateEmail(ev.Field)
	}
}

func (c *Controller) onFocus(ev *Event) {
	c.view.SetScale(ev.Field, c.opts.FocusScale)
}

// onKeyDown submits on Ctrl+Enter or Cmd+Enter from inside the form.
func (c *Controller) onKeyDown(ev *Event) {
	if !(ev.Ctrl || ev.Meta) || ev.Key != "Enter" {
		return
	}
	if !ev.InForm {
		return
	}
	c.HandleSubmit(ev)
}

// onClick handles call-to-action links pointing at the form section.
func (c *Controller) onClick(ev *Event) {
	if strings.TrimPrefix(ev.Target, "#") != c.opts.FormAnchor {
		return
	}
	ev.PreventDefault()
	c.view.ScrollIntoView(c.opts.FormAnchor, "start")
	c.after(c.opts.CTAFocusDelay, func() {
		c.view.FocusFirstInput(c.opts.FormAnchor)
	})
}

func (c *Controller) onIntersect(ev *Event) {
	if !c.reveal[ev.Selector] || ev.Ratio < c.opts.RevealRatio {
		return
	}
	c.view.Reveal(ev.Target)
}
