package models

// NotationEntry maps a short notation (matched case-insensitively) to its
// expanded long form.
type NotationEntry struct {
	ShortForm string `json:"short_form" yaml:"short_form" dynamodbav:"short_form_display"`
	LongForm  string `json:"long_form" yaml:"long_form" dynamodbav:"long_form"`
}

type NotationSeed struct {
	Notations []NotationEntry `yaml:"notations"`
}
