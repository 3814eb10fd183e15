package gui

// ActivePage returns PageNone for an invalid id.
func (e *Engine) ActivePage(id ID) Page {
	if i, ok := containerIndex(id); ok {
		return e.containers[i].ActivePage
	}
	return PageNone
}

func (e *Engine) LastPage(id ID) Page {
	if i, ok := containerIndex(id); ok {
		return e.containers[i].LastPage
	}
	return PageNone
}

// ChangePage shows page p. It does nothing when p is already active.
func (e *Engine) ChangePage(id ID, p Page) error {
	i, ok := containerIndex(id)
	if !ok {
		return invalidID("gui.ChangePage", id)
	}
	c := &e.containers[i]
	if c.ActivePage == p {
		return nil
	}
	return e.showPage("gui.ChangePage", id, c, p)
}

// IncreasePage moves to the next page, stopping at LastPage.
func (e *Engine) IncreasePage(id ID) error {
	i, ok := containerIndex(id)
	if !ok {
		return invalidID("gui.IncreasePage", id)
	}
	c := &e.containers[i]
	if c.ActivePage == PageNone || c.ActivePage >= c.LastPage {
		return nil
	}
	return e.showPage("gui.IncreasePage", id, c, c.ActivePage<<1)
}

// DecreasePage moves to the previous page, stopping at Page1.
func (e *Engine) DecreasePage(id ID) error {
	i, ok := containerIndex(id)
	if !ok {
		return invalidID("gui.DecreasePage", id)
	}
	c := &e.containers[i]
	if c.ActivePage == Page1 || c.ActivePage == PageNone {
		return nil
	}
	return e.showPage("gui.DecreasePage", id, c, c.ActivePage>>1)
}

// showPage switches pages only on the active layer, where the old page's
// children can be hidden.
func (e *Engine) showPage(op string, id ID, c *Container, p Page) error {
	if c.Layer != e.activeLayer {
		return inactiveLayer(op, id, c.Layer)
	}
	_ = e.HideContentInContainer(id)
	c.ActivePage = p
	return e.DrawContainer(id)
}
