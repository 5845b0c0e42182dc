// Package component models the JSON component tree rendered by the FastUI
// single-page frontend. Every component marshals with a "type" discriminator
// and camelCase keys; empty optional fields are omitted.
package component

import "encoding/json"

// Component is a node in the page tree.
type Component interface {
	Kind() string
}

// Event is something the frontend does on click or when fired.
type Event interface {
	EventType() string
}

// GoToEvent navigates the frontend to URL.
type GoToEvent struct {
	URL    string            `json:"url,omitempty"`
	Query  map[string]string `json:"query,omitempty"`
	Target string            `json:"target,omitempty"`
}

// EventType implements Event.
func (GoToEvent) EventType() string { return "go-to" }

// MarshalJSON adds the event type.
func (e GoToEvent) MarshalJSON() ([]byte, error) {
	type alias GoToEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.EventType(), alias(e)})
}

// BackEvent navigates back in the browser history.
type BackEvent struct{}

// EventType implements Event.
func (BackEvent) EventType() string { return "back" }

// MarshalJSON adds the event type.
func (e BackEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{e.EventType()})
}

// GoTo is shorthand for a navigation event.
func GoTo(url string) GoToEvent {
	return GoToEvent{URL: url}
}

// Text is inline text.
type Text struct {
	Text string `json:"text"`
}

// Kind implements Component.
func (Text) Kind() string { return "Text" }

// MarshalJSON adds the component type.
func (c Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// Paragraph is a block of text.
type Paragraph struct {
	Text      string `json:"text"`
	ClassName string `json:"className,omitempty"`
}

// Kind implements Component.
func (Paragraph) Kind() string { return "Paragraph" }

// MarshalJSON adds the component type.
func (c Paragraph) MarshalJSON() ([]byte, error) {
	type alias Paragraph
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// PageTitle sets the browser tab title.
type PageTitle struct {
	Text string `json:"text"`
}

// Kind implements Component.
func (PageTitle) Kind() string { return "PageTitle" }

// MarshalJSON adds the component type.
func (c PageTitle) MarshalJSON() ([]byte, error) {
	type alias PageTitle
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// Heading is an h1..h6 element.
type Heading struct {
	Text      string `json:"text"`
	Level     int    `json:"level,omitempty"`
	HTMLID    string `json:"htmlId,omitempty"`
	ClassName string `json:"className,omitempty"`
}

// Kind implements Component.
func (Heading) Kind() string { return "Heading" }

// MarshalJSON adds the component type and defaults the level to 1.
func (c Heading) MarshalJSON() ([]byte, error) {
	type alias Heading
	if c.Level == 0 {
		c.Level = 1
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// Link wraps components in a clickable element. Active is either a bool or
// a string such as "startswith:/users".
type Link struct {
	Components []Component `json:"components"`
	OnClick    Event       `json:"onClick,omitempty"`
	Mode       string      `json:"mode,omitempty"`
	Active     any         `json:"active,omitempty"`
	ClassName  string      `json:"className,omitempty"`
}

// Kind implements Component.
func (Link) Kind() string { return "Link" }

// MarshalJSON adds the component type.
func (c Link) MarshalJSON() ([]byte, error) {
	type alias Link
	if c.Components == nil {
		c.Components = []Component{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// Navbar is the top navigation bar.
type Navbar struct {
	Title      string `json:"title,omitempty"`
	TitleEvent Event  `json:"titleEvent,omitempty"`
	StartLinks []Link `json:"startLinks"`
	EndLinks   []Link `json:"endLinks"`
	ClassName  string `json:"className,omitempty"`
}

// Kind implements Component.
func (Navbar) Kind() string { return "Navbar" }

// MarshalJSON adds the component type.
func (c Navbar) MarshalJSON() ([]byte, error) {
	type alias Navbar
	if c.StartLinks == nil {
		c.StartLinks = []Link{}
	}
	if c.EndLinks == nil {
		c.EndLinks = []Link{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// Footer is the page footer.
type Footer struct {
	Links     []Link `json:"links"`
	ExtraText string `json:"extraText,omitempty"`
	ClassName string `json:"className,omitempty"`
}

// Kind implements Component.
func (Footer) Kind() string { return "Footer" }

// MarshalJSON adds the component type.
func (c Footer) MarshalJSON() ([]byte, error) {
	type alias Footer
	if c.Links == nil {
		c.Links = []Link{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// Page is the main content container.
type Page struct {
	Components []Component `json:"components"`
	ClassName  string      `json:"className,omitempty"`
}

// Kind implements Component.
func (Page) Kind() string { return "Page" }

// MarshalJSON adds the component type.
func (c Page) MarshalJSON() ([]byte, error) {
	type alias Page
	if c.Components == nil {
		c.Components = []Component{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// Div groups components.
type Div struct {
	Components []Component `json:"components"`
	ClassName  string      `json:"className,omitempty"`
}

// Kind implements Component.
func (Div) Kind() string { return "Div" }

// MarshalJSON adds the component type.
func (c Div) MarshalJSON() ([]byte, error) {
	type alias Div
	if c.Components == nil {
		c.Components = []Component{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// Button is a clickable button. HTMLType is button, submit or reset.
type Button struct {
	Text       string `json:"text"`
	OnClick    Event  `json:"onClick,omitempty"`
	HTMLType   string `json:"htmlType,omitempty"`
	NamedStyle string `json:"namedStyle,omitempty"`
	ClassName  string `json:"className,omitempty"`
}

// Kind implements Component.
func (Button) Kind() string { return "Button" }

// MarshalJSON adds the component type.
func (c Button) MarshalJSON() ([]byte, error) {
	type alias Button
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// Image is an img element.
type Image struct {
	Src       string `json:"src"`
	Alt       string `json:"alt,omitempty"`
	Width     any    `json:"width,omitempty"`
	Height    any    `json:"height,omitempty"`
	OnClick   Event  `json:"onClick,omitempty"`
	ClassName string `json:"className,omitempty"`
}

// Kind implements Component.
func (Image) Kind() string { return "Image" }

// MarshalJSON adds the component type.
func (c Image) MarshalJSON() ([]byte, error) {
	type alias Image
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// FireEvent makes the frontend fire Event as soon as it is rendered.
type FireEvent struct {
	Event   Event  `json:"event"`
	Message string `json:"message,omitempty"`
}

// Kind implements Component.
func (FireEvent) Kind() string { return "FireEvent" }

// MarshalJSON adds the component type.
func (c FireEvent) MarshalJSON() ([]byte, error) {
	type alias FireEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}
