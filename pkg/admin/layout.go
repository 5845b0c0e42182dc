package admin

import (
	"github.com/leapstack-labs/leapadmin/pkg/component"
)

// DefaultFooterText is shown in the footer of every page.
const DefaultFooterText = "Powered by LeapAdmin"

// Layout wraps page content with the title, navbar and footer, and renders
// the HTML shell that boots the frontend.
type Layout struct {
	Title      string
	BaseURL    string
	LogoURL    string
	FaviconURL string
	FooterText string
}

// URL returns the browser URL of a view slug. The empty slug is the index.
func (l *Layout) URL(slug string) string {
	if slug == "" {
		return l.BaseURL + "/"
	}
	return l.BaseURL + "/" + slug + "/"
}

// APIRoot is the prefix of every JSON endpoint.
func (l *Layout) APIRoot() string {
	return l.BaseURL + "/api"
}

// PageTitle sets the browser tab title, defaulting to the admin title.
func (l *Layout) PageTitle(text string) component.PageTitle {
	if text == "" {
		text = l.Title
	}
	return component.PageTitle{Text: text}
}

// Navbar links every visible view. Links are active while the browser is
// anywhere under the view URL; the index only matches exactly.
func (l *Layout) Navbar(views []View) component.Navbar {
	links := make([]component.Link, 0, len(views))
	for _, v := range views {
		if !v.Visible() {
			continue
		}
		url := l.URL(v.slug())
		var active any = "startswith:" + url
		if v.slug() == "" {
			active = url
		}
		links = append(links, component.Link{
			Components: []component.Component{component.Text{Text: v.Name()}},
			OnClick:    component.GoTo(url),
			Active:     active,
		})
	}
	return component.Navbar{
		Title:      l.Title,
		TitleEvent: component.GoTo(l.URL("")),
		StartLinks: links,
	}
}

// Footer returns the page footer.
func (l *Layout) Footer() component.Footer {
	text := l.FooterText
	if text == "" {
		text = DefaultFooterText
	}
	return component.Footer{ExtraText: text}
}

// Page wraps content, preceded by pending flash messages and the logo.
func (l *Layout) Page(flashes []string, content ...component.Component) component.Page {
	body := make([]component.Component, 0, len(content)+len(flashes)+1)
	if l.LogoURL != "" {
		body = append(body, component.Image{Src: l.LogoURL, Alt: l.Title, Height: 48, ClassName: "mb-3"})
	}
	for _, msg := range flashes {
		body = append(body, component.Paragraph{Text: msg, ClassName: "alert alert-success"})
	}
	body = append(body, content...)
	return component.Page{Components: body}
}

// Render returns the full page: title, navbar, page and footer.
func (l *Layout) Render(views []View, flashes []string, content ...component.Component) []component.Component {
	return []component.Component{
		l.PageTitle(""),
		l.Navbar(views),
		l.Page(flashes, content...),
		l.Footer(),
	}
}
