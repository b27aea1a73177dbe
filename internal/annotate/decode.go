package annotate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/and161185/stash/internal/errs"
	"github.com/and161185/stash/internal/model"
)

// fencePattern matches a JSON object inside a markdown code block.
var fencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// decode validates the model's reply. Unparseable content is
// ErrAnnotationUnavailable; a well-formed object with bad fields is
// ErrMalformedAnnotation.
func decode(content string) (model.Annotation, error) {
	content = strings.TrimSpace(content)
	if m := fencePattern.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil || raw == nil {
		return model.Annotation{}, fmt.Errorf("%w: response is not a json object", errs.ErrAnnotationUnavailable)
	}

	var a model.Annotation
	if err := requiredString(raw, "title", &a.Title); err != nil {
		return model.Annotation{}, err
	}
	if err := requiredString(raw, "summary", &a.Summary); err != nil {
		return model.Annotation{}, err
	}

	tags, ok := raw["tags"]
	if !ok || string(tags) == "null" {
		return model.Annotation{}, fmt.Errorf("%w: missing tags", errs.ErrMalformedAnnotation)
	}
	var list []string
	if err := json.Unmarshal(tags, &list); err != nil {
		return model.Annotation{}, fmt.Errorf("%w: tags is not an array of strings", errs.ErrMalformedAnnotation)
	}
	a.Tags = normalizeTags(list)
	return a, nil
}

func requiredString(raw map[string]json.RawMessage, field string, dst *string) error {
	v, ok := raw[field]
	if !ok {
		return fmt.Errorf("%w: missing %s", errs.ErrMalformedAnnotation, field)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return fmt.Errorf("%w: %s is not a string", errs.ErrMalformedAnnotation, field)
	}
	if s = strings.TrimSpace(s); s == "" {
		return fmt.Errorf("%w: empty %s", errs.ErrMalformedAnnotation, field)
	}
	*dst = s
	return nil
}

// normalizeTags trims and lower-cases tags, dropping empties and repeats.
func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
