package line

import (
	"fmt"
	"net/url"
)

// Command is the decoded form of a postback's query-string data. The four
// keys action/step/job_id/shift (plus field for profile edits) are the
// entire command vocabulary; handlers switch on the decoded struct instead
// of re-parsing strings.
type Command struct {
	Action string
	Step   string
	JobID  string
	Shift  string
	Field  string
}

// ParsePostback decodes postback data exactly once at the gateway
// boundary. Percent-encoded values (shift labels) come back decoded.
func ParsePostback(data string) (Command, error) {
	values, err := url.ParseQuery(data)
	if err != nil {
		return Command{}, fmt.Errorf("line: parse postback %q: %w", data, err)
	}
	return Command{
		Action: values.Get("action"),
		Step:   values.Get("step"),
		JobID:  values.Get("job_id"),
		Shift:  values.Get("shift"),
		Field:  values.Get("field"),
	}, nil
}

// Encode renders the command back into postback data form, preserving the
// key order the platform clients were built against.
func (c Command) Encode() string {
	values := url.Values{}
	values.Set("action", c.Action)
	if c.Step != "" {
		values.Set("step", c.Step)
	}
	if c.JobID != "" {
		values.Set("job_id", c.JobID)
	}
	if c.Shift != "" {
		values.Set("shift", c.Shift)
	}
	if c.Field != "" {
		values.Set("field", c.Field)
	}
	return values.Encode()
}
