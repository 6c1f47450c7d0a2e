package models

// Provider-native system labels the mirror cares about
const (
	LabelInbox   = "INBOX"
	LabelUnread  = "UNREAD"
	LabelStarred = "STARRED"
	LabelSent    = "SENT"
	LabelDraft   = "DRAFT"
	LabelTrash   = "TRASH"
	LabelSpam    = "SPAM"
)

// Category is the single folder a mirrored message is listed under
type Category string

const (
	CategoryInbox Category = "inbox"
	CategorySent  Category = "sent"
	CategoryDraft Category = "draft"
	CategorySpam  Category = "spam"
	CategoryTrash Category = "trash"
)

// ParseCategory returns the category named by s, or false if s names none
func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryInbox, CategorySent, CategoryDraft, CategorySpam, CategoryTrash:
		return c, true
	}
	return "", false
}

// Classify maps a label set to its category.
// Precedence is TRASH, SPAM, DRAFT, SENT, then inbox.
func Classify(labels Labels) Category {
	switch {
	case labels.Has(LabelTrash):
		return CategoryTrash
	case labels.Has(LabelSpam):
		return CategorySpam
	case labels.Has(LabelDraft):
		return CategoryDraft
	case labels.Has(LabelSent):
		return CategorySent
	default:
		return CategoryInbox
	}
}

// Labels is an ordered set of label ids. The column holds it as a JSON array
// through gorm's json serializer.
type Labels []string

// NewLabels builds a set from ids, dropping empties and duplicates while keeping order
func NewLabels(ids ...string) Labels {
	out := make(Labels, 0, len(ids))
	for _, id := range ids {
		if id == "" || out.Has(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Has reports whether the set contains label
func (l Labels) Has(label string) bool {
	for _, v := range l {
		if v == label {
			return true
		}
	}
	return false
}

// Apply returns a copy of the set with add appended and remove dropped
func (l Labels) Apply(add, remove []string) Labels {
	out := make(Labels, 0, len(l)+len(add))
	for _, v := range l {
		if !contains(remove, v) {
			out = append(out, v)
		}
	}
	for _, v := range add {
		if !out.Has(v) && !contains(remove, v) {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
