package homework

import "fmt"

// Submission is one raw homework record from the API. Fields beyond
// homework_name and status exist but are ignored; both interesting fields
// are checked at render time, not here.
type Submission map[string]any

// Validate checks a decoded payload against the documented response shape
// and returns the submissions, most recent first. An empty slice is valid:
// it means "no new submissions", not an error.
func Validate(payload any) ([]Submission, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: payload is not an object", ErrBadShape)
	}
	raw, ok := obj["homeworks"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"homeworks\" key", ErrBadShape)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: \"homeworks\" is not an array", ErrBadShape)
	}

	subs := make([]Submission, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]any)
		subs = append(subs, Submission(m))
	}
	return subs, nil
}

// CurrentDate extracts the server clock from a validated payload. The poll
// cursor advances to it after a delivered status change; when the field is
// absent (or not a number) the caller keeps its previous cursor.
func CurrentDate(payload any, fallback int64) int64 {
	obj, ok := payload.(map[string]any)
	if !ok {
		return fallback
	}
	// encoding/json decodes untyped numbers as float64.
	f, ok := obj["current_date"].(float64)
	if !ok {
		return fallback
	}
	return int64(f)
}

// Render produces the notification sentence for one submission.
func Render(sub Submission) (string, error) {
	name, ok := sub["homework_name"].(string)
	if !ok || name == "" {
		return "", fmt.Errorf("%w: missing homework_name", ErrParse)
	}
	status, _ := sub["status"].(string)
	verdict, ok := Verdicts[status]
	if !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrParse, status)
	}
	return fmt.Sprintf("Review status changed for %q. %s", name, verdict), nil
}
