package skills

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/geodocs/skillserve/pkg/logger"
)

var (
	validNameRe  = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	disallowedRe = regexp.MustCompile(`[^a-z0-9-_]`)
	separatorsRe = regexp.MustCompile(`[-_]{2,}`)
)

// ParseManifest splits the YAML frontmatter of a SKILL.md file from its
// body content and validates the required fields. Names that fall
// outside the allowed character set are normalized into a safe canonical
// form; a name that normalizes to the empty string fails validation.
// The returned body is trimmed of leading and trailing whitespace.
func ParseManifest(ctx context.Context, raw []byte) (*Manifest, string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(raw, &buf, parser.WithContext(pctx)); err != nil {
		return nil, "", &ValidationError{Reason: fmt.Sprintf("failed to parse markdown: %v", err)}
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, "", &ValidationError{Reason: "missing frontmatter"}
	}

	rawName, ok := metaData["name"]
	if !ok {
		return nil, "", &ValidationError{Reason: "name is required in frontmatter"}
	}
	name, ok := rawName.(string)
	if !ok {
		return nil, "", &ValidationError{Reason: "name must be a string"}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", &ValidationError{Reason: "name is required in frontmatter"}
	}

	rawDesc, ok := metaData["description"]
	if !ok {
		return nil, "", &ValidationError{Reason: "description is required in frontmatter"}
	}
	description, ok := rawDesc.(string)
	if !ok && rawDesc != nil {
		return nil, "", &ValidationError{Reason: "description must be a string"}
	}

	if !validNameRe.MatchString(name) {
		normalized := NormalizeName(name)
		if normalized == "" {
			return nil, "", &ValidationError{Reason: fmt.Sprintf("name %q contains no usable characters", name)}
		}
		logger.G(ctx).WithField("name", name).WithField("normalized", normalized).
			Warn("skill name contains disallowed characters, normalized")
		name = normalized
	}

	manifest := &Manifest{
		Name:        name,
		Description: description,
		Metadata:    metadataMap(metaData["metadata"]),
	}

	return manifest, strings.TrimSpace(extractBody(string(raw))), nil
}

// NormalizeName derives a safe canonical skill name: lower-case,
// whitespace runs become "-", characters outside [a-z0-9-_] become "_",
// runs of separators collapse (preferring "-" in mixed runs), and
// leading/trailing separators are trimmed. The result is empty when the
// input retains no usable characters; callers must treat that as a
// validation failure. Normalization is idempotent.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = disallowedRe.ReplaceAllString(s, "_")
	s = separatorsRe.ReplaceAllStringFunc(s, func(run string) string {
		if strings.Contains(run, "-") {
			return "-"
		}
		return "_"
	})
	return strings.Trim(s, "-_")
}

// extractBody removes the YAML frontmatter block and returns the body.
func extractBody(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.Join(lines[frontmatterEnd+1:], "\n")
}

// metadataMap converts the optional frontmatter metadata mapping into a
// string-keyed map. goldmark-meta yields interface-keyed maps for nested
// YAML mappings; non-mapping values are dropped.
func metadataMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprintf("%v", k)] = val
		}
		return out
	default:
		return nil
	}
}
