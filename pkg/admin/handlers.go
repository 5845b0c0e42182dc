package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/leapadmin/internal/notifier"
	"github.com/leapstack-labs/leapadmin/pkg/component"
	"github.com/leapstack-labs/leapadmin/pkg/schema"
	"github.com/leapstack-labs/leapadmin/pkg/store"
)

const (
	msgInvalidInput = "Invalid input. Please check the form values and try again."
	maxFormMemory   = 10 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// render writes content wrapped in the layout, consuming pending flashes.
func (a *Admin) render(w http.ResponseWriter, r *http.Request, status int, content ...component.Component) {
	flashes := a.popFlashes(w, r)
	writeJSON(w, status, a.layout.Render(a.views, flashes, content...))
}

// failure formats a store failure message. Debug mode appends the error.
func (a *Admin) failure(format, name string, err error) string {
	msg := fmt.Sprintf(format, name)
	if a.debug {
		msg += " (" + err.Error() + ")"
	}
	return msg
}

// errorPage renders the error screen with a link back to backURL.
func (a *Admin) errorPage(w http.ResponseWriter, r *http.Request, status int, msg, backURL string) {
	a.render(w, r, status,
		component.Heading{Text: "Error", Level: 2},
		component.Paragraph{Text: msg},
		component.Link{
			Components: []component.Component{component.Text{Text: "← Go Back"}},
			OnClick:    component.GoTo(backURL),
			ClassName:  "btn btn-secondary",
		},
	)
}

func (a *Admin) indexAPI(w http.ResponseWriter, r *http.Request) {
	if a.index.Content != nil {
		content, err := a.index.Content(r)
		if err != nil {
			a.logger.Error("failed to render index", "error", err)
			a.errorPage(w, r, http.StatusInternalServerError, "Failed to render the dashboard.", a.layout.URL(""))
			return
		}
		a.render(w, r, http.StatusOK, content...)
		return
	}

	var links []component.Component
	for _, v := range a.views {
		mv, ok := v.(*ModelView)
		if !ok || !mv.Visible() {
			continue
		}
		links = append(links, component.Link{
			Components: []component.Component{component.Text{Text: mv.Name()}},
			OnClick:    component.GoTo(a.layout.URL(mv.slug())),
			ClassName:  "btn btn-outline-primary me-2 mb-2",
		})
	}
	content := []component.Component{
		component.Heading{Text: "Welcome to " + a.title, Level: 2},
		component.Paragraph{Text: "Select a model from the navigation to manage your data."},
	}
	if len(links) > 0 {
		content = append(content, component.Div{Components: links, ClassName: "mt-3"})
	}
	a.render(w, r, http.StatusOK, content...)
}

func (a *Admin) viewAPI(v *BaseView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := v.render(r)
		if err != nil {
			a.logger.Error("failed to render view", "view", v.Name(), "error", err)
			a.errorPage(w, r, http.StatusInternalServerError, fmt.Sprintf("Failed to render %s.", v.Name()), a.layout.URL(""))
			return
		}
		a.render(w, r, http.StatusOK, content...)
	}
}

// modelHandlers serves the JSON endpoints of one model view.
type modelHandlers struct {
	admin *Admin
	view  *ModelView
}

func (h *modelHandlers) listURL() string {
	return h.admin.layout.URL(h.view.slug())
}

func (h *modelHandlers) detailURL(pk int64) string {
	return h.listURL() + strconv.FormatInt(pk, 10)
}

// apiPath is a path relative to the API root, used as a form submit URL.
func (h *modelHandlers) apiPath(suffix string) string {
	return "/" + h.view.slug() + "/" + suffix
}

func (h *modelHandlers) observe(operation, outcome string) {
	h.admin.metrics.observe(h.view.Name(), operation, outcome)
}

func (h *modelHandlers) broadcast(op notifier.Operation, pk int64) {
	h.admin.notifier.Broadcast(notifier.Change{
		Table:     h.view.slug(),
		View:      h.view.Name(),
		Operation: op,
		PK:        pk,
	})
}

// pagePK parses the {pk} URL parameter. Values that overflow int64 are
// reported as missing rows.
func pagePK(r *http.Request) (int64, bool) {
	pk, err := strconv.ParseInt(chi.URLParam(r, "pk"), 10, 64)
	return pk, err == nil
}

// pageNumber reads the page query parameter, defaulting to 1.
func pageNumber(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (h *modelHandlers) list(w http.ResponseWriter, r *http.Request) {
	v := h.view
	page := pageNumber(r)
	size := v.pageSize()

	total, err := h.admin.store.Count(r.Context(), v.table)
	if err != nil {
		h.loadFailed(w, r, "list", 0, err)
		return
	}
	rows, err := h.admin.store.List(r.Context(), v.table, (page-1)*size, size)
	if err != nil {
		h.loadFailed(w, r, "list", 0, err)
		return
	}

	data := make([]map[string]any, len(rows))
	for i, row := range rows {
		data[i] = v.listSchema.Dump(row)
	}

	pk := v.table.PrimaryKey()
	columns := component.Lookups(v.listSchema)
	if v.perms().ViewDetails {
		for i := range columns {
			if columns[i].Field == pk {
				columns[i].OnClick = component.GoTo(h.listURL() + "{" + pk + "}")
			}
		}
	}

	header := []component.Component{component.Heading{Text: v.Name(), Level: 2}}
	if v.perms().Create {
		header = append(header, component.Link{
			Components: []component.Component{component.Text{Text: "+ Create New " + v.Name()}},
			OnClick:    component.GoTo(h.listURL() + "create"),
			ClassName:  "btn btn-primary mb-3",
		})
	}

	h.observe("list", outcomeOK)
	h.admin.render(w, r, http.StatusOK,
		component.Div{Components: header},
		component.Table{Data: data, Columns: columns},
		component.Pagination{Page: page, PageSize: size, Total: total},
	)
}

func (h *modelHandlers) detail(w http.ResponseWriter, r *http.Request) {
	v := h.view
	pk, ok := pagePK(r)
	if !ok {
		h.missing(w, r, "detail")
		return
	}
	rec, err := h.admin.store.Get(r.Context(), v.table, pk)
	if errors.Is(err, store.ErrNotFound) {
		h.missing(w, r, "detail")
		return
	}
	if err != nil {
		h.loadFailed(w, r, "detail", pk, err)
		return
	}

	actions := []component.Component{
		component.Link{
			Components: []component.Component{component.Text{Text: "← Back to List"}},
			OnClick:    component.GoTo(h.listURL()),
			ClassName:  "btn btn-secondary me-2",
		},
	}
	if v.perms().Edit {
		actions = append(actions, component.Link{
			Components: []component.Component{component.Text{Text: "Edit"}},
			OnClick:    component.GoTo(h.detailURL(pk) + "/edit"),
			ClassName:  "btn btn-primary me-2",
		})
	}
	if v.perms().Delete {
		actions = append(actions, component.ModelForm{
			SubmitURL: h.apiPath(strconv.FormatInt(pk, 10) + "/delete"),
			Method:    http.MethodPost,
			Footer: []component.Component{
				component.Button{Text: "Delete", HTMLType: "submit", ClassName: "btn btn-danger"},
			},
		})
	}

	h.observe("detail", outcomeOK)
	h.admin.render(w, r, http.StatusOK,
		component.Heading{Text: fmt.Sprintf("%s #%d", v.Name(), pk), Level: 2},
		component.Div{Components: actions, ClassName: "mb-3"},
		component.Details{Data: v.listSchema.Dump(rec), Fields: component.Lookups(v.listSchema)},
	)
}

func (h *modelHandlers) create(w http.ResponseWriter, r *http.Request) {
	v := h.view
	formURL := h.listURL() + "create"

	if r.Method == http.MethodGet {
		h.admin.render(w, r, http.StatusOK,
			component.Heading{Text: "Create " + v.Name(), Level: 2},
			component.Link{
				Components: []component.Component{component.Text{Text: "← Back to List"}},
				OnClick:    component.GoTo(h.listURL()),
				ClassName:  "btn btn-secondary mb-3",
			},
			component.ModelForm{
				SubmitURL:  h.apiPath("create"),
				FormFields: component.FormFields(v.formSchema, nil),
			},
		)
		return
	}

	rec, ok := h.bind(w, r, "create", 0, formURL)
	if !ok {
		return
	}
	pk, err := h.admin.store.Insert(r.Context(), v.table, rec)
	if err != nil {
		h.admin.logger.Error("failed to create record", "view", v.Name(), "error", err)
		h.observe("create", outcomeError)
		h.admin.errorPage(w, r, http.StatusBadRequest,
			h.admin.failure("Failed to create %s. Check server logs for details.", v.Name(), err), formURL)
		return
	}

	h.observe("create", outcomeOK)
	h.broadcast(notifier.Created, pk)
	h.admin.addFlash(w, r, fmt.Sprintf("Created %s #%d", v.Name(), pk))
	writeJSON(w, http.StatusOK, []component.Component{
		component.FireEvent{Event: component.GoTo(h.afterWriteURL(pk))},
	})
}

func (h *modelHandlers) edit(w http.ResponseWriter, r *http.Request) {
	v := h.view
	pk, ok := pagePK(r)
	if !ok {
		h.missing(w, r, "update")
		return
	}
	current, err := h.admin.store.Get(r.Context(), v.table, pk)
	if errors.Is(err, store.ErrNotFound) {
		h.missing(w, r, "update")
		return
	}
	if err != nil {
		h.loadFailed(w, r, "update", pk, err)
		return
	}
	formURL := h.detailURL(pk) + "/edit"

	if r.Method == http.MethodGet {
		h.admin.render(w, r, http.StatusOK,
			component.Heading{Text: fmt.Sprintf("Edit %s #%d", v.Name(), pk), Level: 2},
			component.Link{
				Components: []component.Component{component.Text{Text: "← Back"}},
				OnClick:    component.BackEvent{},
				ClassName:  "btn btn-secondary mb-3",
			},
			component.ModelForm{
				SubmitURL:  h.apiPath(strconv.FormatInt(pk, 10) + "/edit"),
				FormFields: component.FormFields(v.formSchema, current),
			},
		)
		return
	}

	rec, ok := h.bind(w, r, "update", pk, formURL)
	if !ok {
		return
	}
	err = h.admin.store.Update(r.Context(), v.table, pk, rec)
	if errors.Is(err, store.ErrNotFound) {
		h.missing(w, r, "update")
		return
	}
	if err != nil {
		h.admin.logger.Error("failed to update record", "view", v.Name(), "pk", pk, "error", err)
		h.observe("update", outcomeError)
		h.admin.errorPage(w, r, http.StatusBadRequest,
			h.admin.failure("Failed to update %s. Check server logs for details.", v.Name(), err), formURL)
		return
	}

	h.observe("update", outcomeOK)
	h.broadcast(notifier.Updated, pk)
	h.admin.addFlash(w, r, fmt.Sprintf("Updated %s #%d", v.Name(), pk))
	writeJSON(w, http.StatusOK, []component.Component{
		component.FireEvent{Event: component.GoTo(h.afterWriteURL(pk))},
	})
}

func (h *modelHandlers) delete(w http.ResponseWriter, r *http.Request) {
	v := h.view
	pk, ok := pagePK(r)
	if !ok {
		h.missing(w, r, "delete")
		return
	}
	err := h.admin.store.Delete(r.Context(), v.table, pk)
	if errors.Is(err, store.ErrNotFound) {
		h.missing(w, r, "delete")
		return
	}
	if err != nil {
		h.admin.logger.Error("failed to delete record", "view", v.Name(), "pk", pk, "error", err)
		h.observe("delete", outcomeError)
		h.admin.errorPage(w, r, http.StatusBadRequest,
			h.admin.failure("Failed to delete %s. Check server logs for details.", v.Name(), err), h.listURL())
		return
	}

	h.observe("delete", outcomeOK)
	h.broadcast(notifier.Deleted, pk)
	h.admin.addFlash(w, r, fmt.Sprintf("Deleted %s #%d", v.Name(), pk))
	writeJSON(w, http.StatusOK, []component.Component{
		component.FireEvent{Event: component.GoTo(h.listURL())},
	})
}

// afterWriteURL is the detail page, or the list when details are disabled.
func (h *modelHandlers) afterWriteURL(pk int64) string {
	if !h.view.perms().ViewDetails {
		return h.listURL()
	}
	return h.detailURL(pk)
}

func (h *modelHandlers) missing(w http.ResponseWriter, _ *http.Request, operation string) {
	h.observe(operation, outcomeNotFound)
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
}

func (h *modelHandlers) loadFailed(w http.ResponseWriter, r *http.Request, operation string, pk int64, err error) {
	h.admin.logger.Error("failed to load records", "view", h.view.Name(), "pk", pk, "error", err)
	h.observe(operation, outcomeError)
	h.admin.errorPage(w, r, http.StatusInternalServerError,
		h.admin.failure("Failed to load %s. Check server logs for details.", h.view.Name(), err), h.admin.layout.URL(""))
}

// bind reads and validates the submitted form. On failure the error page
// has already been written.
func (h *modelHandlers) bind(w http.ResponseWriter, r *http.Request, operation string, pk int64, backURL string) (schema.Record, bool) {
	raw, err := readInput(r, h.view.formSchema)
	if err == nil {
		var rec schema.Record
		rec, err = h.view.formSchema.Validate(raw)
		if err == nil {
			return rec, true
		}
	}
	h.admin.logger.Warn("invalid input", "view", h.view.Name(), "operation", operation, "pk", pk, "error", err)
	h.observe(operation, outcomeInvalid)
	h.admin.errorPage(w, r, http.StatusBadRequest, msgInvalidInput, backURL)
	return nil, false
}

// readInput decodes a JSON object or a form post into raw field values.
// Checkboxes are absent from form posts when unticked, so missing boolean
// fields read as false there.
func readInput(r *http.Request, s *schema.Schema) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		if raw == nil {
			return nil, errors.New("json body must be an object")
		}
		return raw, nil
	}

	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	raw := make(map[string]any, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			raw[key] = values[len(values)-1]
		}
	}
	for _, f := range s.Fields {
		if _, ok := raw[f.Name]; !ok && f.Type == schema.FieldBool {
			raw[f.Name] = false
		}
	}
	return raw, nil
}
