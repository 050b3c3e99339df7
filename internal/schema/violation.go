package schema

import "fmt"

// Violation is one schema-building problem, attributed to the field
// declaration that caused it.
type Violation struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Field   string `json:"field,omitempty"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.Field != "" {
			line += fmt.Sprintf(" (%s.%s)", v.Type, v.Field)
		}
		msg += line + "\n"
	}
	return msg
}

func fieldViolation(typeName, fieldName, format string, args ...any) *Violation {
	return &Violation{
		Message: fmt.Sprintf(format, args...),
		Type:    typeName,
		Field:   fieldName,
	}
}
