package oneblog

import (
	"net/http"

	"github.com/gorilla/mux"
)

// BlogHandlers exposes BlogService over HTTP. Every route expects
// Middleware.EnsureUser to have run first.
type BlogHandlers struct {
	Service *BlogService
}

func (h *BlogHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.Service.List(r.Context(), GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blogs": blogs})
}

func (h *BlogHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(w, r)
	if err != nil {
		badBody(w, err)
		return
	}
	req := CreateBlogRequest{
		Title:       values["title"],
		Description: values["description"],
	}
	blog, err := h.Service.Create(r.Context(), GetUserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Blog created", "blog": blog})
}

func (h *BlogHandlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	values, err := formValues(w, r)
	if err != nil {
		badBody(w, err)
		return
	}
	var update BlogUpdate
	if v, ok := values["title"]; ok {
		update.Title = &v
	}
	if v, ok := values["description"]; ok {
		update.Description = &v
	}
	blog, err := h.Service.Edit(r.Context(), GetUserIDFromContext(r.Context()), mux.Vars(r)["blogID"], update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Blog updated", "blog": blog})
}

func (h *BlogHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), GetUserIDFromContext(r.Context()), mux.Vars(r)["blogID"]); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Blog deleted")
}
