package http

import (
	"net/http"
	"strings"

	"budgify/internal/core"
)

// categoryBody is the wire form of a category create or update. Fields are
// loose so numeric strings are accepted like numbers.
type categoryBody struct {
	Label     any `json:"label"`
	Amount    any `json:"amount"`
	SortOrder any `json:"sortOrder"`
}

func (b categoryBody) input() (core.CategoryInput, error) {
	label, err := stringValue("label", b.Label)
	if err != nil {
		return core.CategoryInput{}, err
	}
	amount, err := amountValue("amount", b.Amount)
	if err != nil {
		return core.CategoryInput{}, err
	}
	sortOrder, err := intValue("sortOrder", b.SortOrder)
	if err != nil {
		return core.CategoryInput{}, err
	}

	in := core.CategoryInput{Label: label, SortOrder: sortOrder}
	if amount != nil {
		in.Amount = *amount
	}
	return in, nil
}

func (b categoryBody) patch() (core.CategoryPatch, error) {
	var p core.CategoryPatch
	if b.Label != nil {
		label, err := stringValue("label", b.Label)
		if err != nil {
			return p, err
		}
		p.Label = &label
	}
	amount, err := amountValue("amount", b.Amount)
	if err != nil {
		return p, err
	}
	p.Amount = amount
	if p.SortOrder, err = intValue("sortOrder", b.SortOrder); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.GetSettings(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Field("settings", settings).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseCategoryKind(r.PathValue("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body categoryBody
	if err := NewRequestBodyParser(w, r).Decode(&body, false); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := body.input()
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.svc.AddCategory(r.Context(), userID(r), kind, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordMutation()
	NewJSONResponse().Status(http.StatusCreated).Field("item", c).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseCategoryKind(r.PathValue("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body categoryBody
	if err := NewRequestBodyParser(w, r).Decode(&body, false); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := body.patch()
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.svc.UpdateCategory(r.Context(), userID(r), kind, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordMutation()
	NewJSONResponse().Field("item", c).Write(w)
}

// handleDeleteCategory removes the category and purges it from every month.
// The keys of the months that changed are listed in X-Months-Changed.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseCategoryKind(r.PathValue("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	changed, err := s.svc.DeleteCategory(r.Context(), userID(r), kind, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.recordMutation()
	resp := NoContent()
	if len(changed) > 0 {
		resp.Header("X-Months-Changed", strings.Join(changed, ","))
	}
	resp.Write(w)
}
