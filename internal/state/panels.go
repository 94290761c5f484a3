package state

// Panels switches the active full-panel view. Every transition replaces the
// whole PanelMode in one update, so no snapshot ever shows two panels.
type Panels struct {
	store *Store
}

func NewPanels(store *Store) *Panels {
	return &Panels{store: store}
}

// Mode returns the active panel.
func (p *Panels) Mode() PanelMode {
	return p.store.Snapshot().Panel
}

// OpenOrderForm shows the order editor; editingID 0 creates a new order.
func (p *Panels) OpenOrderForm(editingID int64) {
	p.set(PanelMode{Kind: PanelOrderForm, EditingID: editingID})
}

func (p *Panels) OpenDashboard() {
	p.set(PanelMode{Kind: PanelDashboard})
}

func (p *Panels) OpenSettings() {
	p.set(PanelMode{Kind: PanelSettings})
}

func (p *Panels) CloseOrderForm() { p.close(PanelOrderForm) }
func (p *Panels) CloseDashboard() { p.close(PanelDashboard) }
func (p *Panels) CloseSettings()  { p.close(PanelSettings) }

// ShowContent returns to the default content view from any panel.
func (p *Panels) ShowContent() {
	p.store.UpdateIf(func(st *State) bool {
		if st.Panel == (PanelMode{}) {
			return false
		}
		st.Panel = PanelMode{}
		return true
	})
}

func (p *Panels) set(mode PanelMode) {
	p.store.Update(func(st *State) {
		st.Panel = mode
	})
}

// close leaves kind only when it is the active panel.
func (p *Panels) close(kind PanelKind) {
	p.store.UpdateIf(func(st *State) bool {
		if st.Panel.Kind != kind {
			return false
		}
		st.Panel = PanelMode{}
		return true
	})
}
