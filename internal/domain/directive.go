package domain

// DirectiveKind classifies one outbound instruction.
type DirectiveKind int

const (
	DirectiveUnknown DirectiveKind = iota
	DirectiveText
	DirectiveInteractiveList
	DirectiveLocationRequest
	DirectiveImage
	DirectiveCatalog
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveText:
		return "text"
	case DirectiveInteractiveList:
		return "interactive_list"
	case DirectiveLocationRequest:
		return "location_request"
	case DirectiveImage:
		return "image"
	case DirectiveCatalog:
		return "catalog"
	default:
		return "unknown"
	}
}

// Directive is the normalized form of one outbound instruction, either built
// programmatically or decoded from flow engine callback text. It is compiled
// into a provider payload just before sending and never persisted.
type Directive struct {
	Kind DirectiveKind

	// Body is the message text (DirectiveText) or the body block of an
	// interactive message (DirectiveInteractiveList, DirectiveLocationRequest).
	Body string

	// Interactive-list fields. Header and Footer may be empty; Sections must
	// be non-empty for a well-formed list.
	Header      string
	Footer      string
	ButtonLabel string
	Sections    []Section
}

// Section is one titled group of rows in an interactive list. Row order is
// significant: the channel renders rows in the order given here.
type Section struct {
	Title string `yaml:"title" json:"title"`
	Rows  []Row  `yaml:"rows" json:"rows"`
}

// Row is one selectable entry in an interactive list section.
type Row struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}
