package admin

import "github.com/a-h/templ"

const frontendCDN = "https://cdn.jsdelivr.net/npm/@pydantic/fastui-prebuilt@0.0.26/dist/assets"

// Shell renders the HTML page that loads the prebuilt frontend. The frontend
// fetches its components from the API root, mapping the browser path with the
// base URL stripped.
func (l *Layout) Shell(title string) templ.Component {
	if title == "" {
		title = l.Title
	}
	return shellPage(title, l.FaviconURL, l.APIRoot(), l.BaseURL)
}
