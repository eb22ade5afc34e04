package models

// Option is one selectable answer of a form question.
type Option struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// OptionGroup is a radio group on the booking form.
type OptionGroup struct {
	Title   string   `json:"title" yaml:"title"`
	FormKey string   `json:"formKey" yaml:"form_key"`
	Options []Option `json:"options" yaml:"options"`
}

// DefaultOptionGroups are the categorical questions shown on the public form.
// The server does not enforce them.
func DefaultOptionGroups() []OptionGroup {
	return []OptionGroup{
		{
			Title:   "What type of services do you need?",
			FormKey: "_service",
			Options: []Option{
				{Name: "Digital Strategy", Value: "digital-strategy"},
				{Name: "Web Development", Value: "web-dev"},
				{Name: "Mobile Development", Value: "mobile-dev"},
				{Name: "Brand & Design", Value: "brand-design"},
				{Name: "All Services", Value: "all-services"},
			},
		},
		{
			Title:   "What is your project budget?",
			FormKey: "_budget",
			Options: []Option{
				{Name: "$5,000 - $15,000", Value: "5-15"},
				{Name: "$15,000 - $30,000", Value: "15-30"},
				{Name: "$30,000 - $50,000", Value: "30-50"},
				{Name: "$50,000+", Value: "50+"},
			},
		},
		{
			Title:   "Project timeline expectations?",
			FormKey: "_timeline",
			Options: []Option{
				{Name: "1-2 months", Value: "1-2"},
				{Name: "3-4 months", Value: "3-4"},
				{Name: "5-6 months", Value: "5-6"},
				{Name: "6+ months", Value: "6+"},
			},
		},
		{
			Title:   "How did you hear about us?",
			FormKey: "_source",
			Options: []Option{
				{Name: "Google Search", Value: "google"},
				{Name: "Social Media", Value: "social"},
				{Name: "Referral", Value: "referral"},
				{Name: "Other", Value: "other"},
			},
		},
	}
}

// OptionLabel returns the human label for a form value, or the value itself.
func OptionLabel(formKey, value string) string {
	for _, g := range DefaultOptionGroups() {
		if g.FormKey != formKey {
			continue
		}
		for _, o := range g.Options {
			if o.Value == value {
				return o.Name
			}
		}
	}
	return value
}
