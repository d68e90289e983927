package domain

// Manifest is the navigation and capability tree the backend publishes per
// function code.
type Manifest struct {
	FunctionCode        string     `json:"functionCode"`
	FunctionDescription string     `json:"functionDescription,omitempty"`
	NavMain             []NavGroup `json:"navMain"`
}

type NavGroup struct {
	Title string    `json:"title"`
	URL   string    `json:"url,omitempty"`
	Items []NavItem `json:"items"`
}

type NavItem struct {
	Title              string   `json:"title"`
	URL                string   `json:"url"`
	Icon               string   `json:"icon,omitempty"`
	Description        string   `json:"description,omitempty"`
	Actions            []Action `json:"actions"`
	ModuleCode         string   `json:"moduleCode,omitempty"`
	FonctionnaliteCode string   `json:"fonctionnaliteCode,omitempty"`
}

// Action is a fine-grained permission attached to a navigation item.
type Action struct {
	Code        string `json:"code"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Actions flattens every item's actions in tree order. Duplicates are kept.
func (m *Manifest) Actions() []Action {
	if m == nil {
		return nil
	}
	var out []Action
	for _, g := range m.NavMain {
		for _, it := range g.Items {
			out = append(out, it.Actions...)
		}
	}
	return out
}

// HasAction reports whether any item lists an action with code.
func (m *Manifest) HasAction(code string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.NavMain {
		for _, it := range g.Items {
			for _, a := range it.Actions {
				if a.Code == code {
					return true
				}
			}
		}
	}
	return false
}

// HasModule reports whether any item carries moduleCode.
func (m *Manifest) HasModule(code string) bool {
	if m == nil || code == "" {
		return false
	}
	for _, g := range m.NavMain {
		for _, it := range g.Items {
			if it.ModuleCode == code {
				return true
			}
		}
	}
	return false
}
