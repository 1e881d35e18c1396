package prompt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	apperrors "github.com/clerkdesk/agenda-report/errors"
	"github.com/clerkdesk/agenda-report/internal/domain/entities"
)

// placeholderPattern matches a delimited token naming a context key, e.g.
// {meeting_date}. Template content is untrusted text; rendering is pure
// string interpolation with no execution semantics.
var placeholderPattern = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// annotationPattern matches [bracketed] internal notes in source text. These
// are workflow annotations that must never reach the model.
var annotationPattern = regexp.MustCompile(`\[[^\[\]]*\]`)

// Builder renders the two pass templates against substitution contexts built
// from agenda items and prior-pass results.
type Builder struct {
	pass1         entities.PromptTemplate
	pass2         entities.PromptTemplate
	stripBrackets bool
}

// NewBuilder constructs a Builder for one run's templates.
func NewBuilder(pass1, pass2 entities.PromptTemplate, stripBrackets bool) *Builder {
	return &Builder{pass1: pass1, pass2: pass2, stripBrackets: stripBrackets}
}

// Validate checks both templates against the context keys each pass can
// satisfy, before any model call is made.
func (b *Builder) Validate() error {
	if err := ValidateKeys(b.pass1, pass1Keys()); err != nil {
		return err
	}
	return ValidateKeys(b.pass2, pass2Keys())
}

// RenderPass1 renders the per-item summarization prompt.
func (b *Builder) RenderPass1(item entities.AgendaItem) (string, error) {
	return Render(b.pass1, b.Pass1Context(item))
}

// RenderPass2 renders the report-formatting prompt over the aggregated
// pass-1 text.
func (b *Builder) RenderPass2(itemsText string, meetingDates []string, itemCount int) (string, error) {
	return Render(b.pass2, b.Pass2Context(itemsText, meetingDates, itemCount))
}

// Pass1Context builds the substitution context for one agenda item. Field
// values are normalized and, when configured, stripped of bracketed
// annotations before they can reach a prompt.
func (b *Builder) Pass1Context(item entities.AgendaItem) map[string]string {
	section := b.FieldValue(item.Section)
	if section == "" {
		section = "placeholder"
	}
	title := b.FieldValue(item.Title)
	if title == "" {
		title = "unnamed item"
	}
	return map[string]string{
		entities.KeyMeetingDate: b.FieldValue(item.MeetingDate),
		entities.KeySection:     section,
		entities.KeyItem:        title,
		entities.KeyNotes:       b.FieldValue(item.Notes),
	}
}

// Pass2Context builds the substitution context for the aggregate pass.
func (b *Builder) Pass2Context(itemsText string, meetingDates []string, itemCount int) map[string]string {
	return map[string]string{
		entities.KeyItemsText:    strings.TrimSpace(itemsText),
		entities.KeyMeetingDates: strings.Join(meetingDates, ", "),
		entities.KeyItemCount:    fmt.Sprintf("%d", itemCount),
	}
}

// FieldValue normalizes one source cell for prompt use: newlines flattened,
// stray bullet characters replaced, optional annotation stripping. Every
// value that can reach a prompt, in either pass, goes through it.
func (b *Builder) FieldValue(v string) string {
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "•", "-")
	if b.stripBrackets {
		v = StripAnnotations(v)
	}
	return strings.TrimSpace(v)
}

// StripAnnotations removes [bracketed] spans, brackets included, and
// collapses the surrounding whitespace.
func StripAnnotations(v string) string {
	stripped := annotationPattern.ReplaceAllString(v, "")
	return strings.Join(strings.Fields(stripped), " ")
}

// Render substitutes every placeholder in the template from ctx. A
// placeholder whose key is absent fails with a TemplateResolutionError
// naming the key; the literal placeholder text is never emitted.
func Render(tpl entities.PromptTemplate, ctx map[string]string) (string, error) {
	var missing string
	out := placeholderPattern.ReplaceAllStringFunc(tpl.Body, func(token string) string {
		key := token[1 : len(token)-1]
		value, ok := ctx[key]
		if !ok && missing == "" {
			missing = key
		}
		return value
	})
	if missing != "" {
		return "", apperrors.ErrTemplateResolution(tpl.Name, missing)
	}
	return out, nil
}

// Keys lists the distinct placeholder keys a template references, sorted.
func Keys(tpl entities.PromptTemplate) []string {
	seen := map[string]bool{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(tpl.Body, -1) {
		seen[m[1]] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateKeys fails if the template references any key outside the allowed
// set for its pass.
func ValidateKeys(tpl entities.PromptTemplate, allowed map[string]bool) error {
	for _, key := range Keys(tpl) {
		if !allowed[key] {
			return apperrors.ErrTemplateResolution(tpl.Name, key)
		}
	}
	return nil
}

func pass1Keys() map[string]bool {
	return map[string]bool{
		entities.KeyMeetingDate: true,
		entities.KeySection:     true,
		entities.KeyItem:        true,
		entities.KeyNotes:       true,
	}
}

func pass2Keys() map[string]bool {
	return map[string]bool{
		entities.KeyItemsText:    true,
		entities.KeyMeetingDates: true,
		entities.KeyItemCount:    true,
	}
}
