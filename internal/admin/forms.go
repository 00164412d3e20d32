// ABOUTME: Schema-driven config form pages and their HTMX mutator endpoints.
// ABOUTME: Renders via internal/form; array/map edits go through the form session.

package admin

import (
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pixeldeck/pixeldeck/internal/form"
	"github.com/pixeldeck/pixeldeck/internal/httpx"
	"github.com/pixeldeck/pixeldeck/plugins/core"
)

func (h *Handlers) registerFormRoutes(r chi.Router) {
	r.Route("/admin/plugins/{plugin}/config", func(r chi.Router) {
		r.Get("/", h.configForm)
		r.Post("/", h.configSubmit)
		r.Post("/array/insert", h.arrayInsert)
		r.Post("/array/remove", h.arrayRemove)
		r.Post("/array/patch", h.arrayPatch)
		r.Post("/map/put", h.mapPut)
		r.Post("/map/rename", h.mapRename)
		r.Post("/map/remove", h.mapRemove)
		r.Post("/keyed/patch", h.keyedPatch)
	})
}

func formBase(pluginID string) string {
	return "/admin/plugins/" + pluginID + "/config"
}

// configForm opens a fresh edit session and renders the full page.
func (h *Handlers) configForm(w http.ResponseWriter, r *http.Request) {
	pluginID := chi.URLParam(r, "plugin")
	def, ok := core.Get(pluginID)
	if !ok {
		http.Error(w, "Plugin not found", http.StatusNotFound)
		return
	}

	config, err := h.store.GetConfig(pluginID)
	if err != nil {
		log.Printf("get config %s: %v", pluginID, err)
		http.Error(w, "Failed to load configuration", http.StatusInternalServerError)
		return
	}
	if config == nil {
		config = def.DefaultConfig()
	}

	sess := form.NewSession(pluginID, def.ConfigSchema())
	h.sessions.put(pluginID, sess)

	body, err := h.formBody(sess, config)
	if err != nil {
		log.Printf("render form %s: %v", pluginID, err)
		http.Error(w, "Failed to render form", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
<title>%s · PixelDeck</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50">
<div class="max-w-2xl mx-auto py-8 px-4">
<h1 class="text-xl font-semibold mb-4">%s</h1>
<form hx-post="%s" hx-target="this" class="bg-white rounded shadow p-4">
%s
</form>
</div>
</body>
</html>`,
		html.EscapeString(def.Title()), html.EscapeString(def.Title()),
		html.EscapeString(formBase(pluginID)), body)
}

// configSubmit extracts the typed configuration from the posted controls and
// the session snapshots, validates, and persists it.
func (h *Handlers) configSubmit(w http.ResponseWriter, r *http.Request) {
	pluginID := chi.URLParam(r, "plugin")
	def, ok := core.Get(pluginID)
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "unknown plugin")
		return
	}
	sess, ok := h.sessions.get(pluginID)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "no active form session; reload the page")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	config, err := form.Extract(sess, r.PostForm)
	if err != nil {
		log.Printf("extract %s: %v", pluginID, err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to read form")
		return
	}

	if errs := validateConfig(def.ConfigSchema(), config); len(errs) > 0 {
		httpx.WriteValidationErrors(w, "configuration is invalid", errs)
		return
	}
	if err := h.store.SaveConfig(pluginID, config); err != nil {
		log.Printf("save config %s: %v", pluginID, err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to save configuration")
		return
	}

	h.sessions.drop(pluginID)
	httpx.WriteSuccess(w, "configuration saved")
}

// mutation runs one session edit and answers with the re-rendered form body.
// The posted controls are folded in first so scalar edits survive the swap.
func (h *Handlers) mutation(w http.ResponseWriter, r *http.Request, apply func(sess *form.Session) error) {
	pluginID := chi.URLParam(r, "plugin")
	sess, ok := h.sessions.get(pluginID)
	if !ok {
		http.Error(w, "No active form session; reload the page", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	config, err := form.Extract(sess, r.PostForm)
	if err != nil {
		log.Printf("extract %s: %v", pluginID, err)
		http.Error(w, "Failed to read form", http.StatusInternalServerError)
		return
	}

	if err := apply(sess); err != nil {
		var capErr *form.CapacityError
		if errors.As(err, &capErr) {
			// State is unchanged; the client shows the message inline.
			http.Error(w, capErr.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := h.formBody(sess, config)
	if err != nil {
		log.Printf("render form %s: %v", pluginID, err)
		http.Error(w, "Failed to render form", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, body)
}

func (h *Handlers) arrayInsert(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, func(sess *form.Session) error {
		_, err := sess.InsertItem(r.URL.Query().Get("path"))
		return err
	})
}

func (h *Handlers) arrayRemove(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, func(sess *form.Session) error {
		index, err := strconv.Atoi(r.URL.Query().Get("index"))
		if err != nil {
			return fmt.Errorf("bad index %q", r.URL.Query().Get("index"))
		}
		return sess.RemoveItem(r.URL.Query().Get("path"), index)
	})
}

func (h *Handlers) arrayPatch(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, func(sess *form.Session) error {
		q := r.URL.Query()
		index, err := strconv.Atoi(q.Get("index"))
		if err != nil {
			return fmt.Errorf("bad index %q", q.Get("index"))
		}
		name := fmt.Sprintf("%s[%d].%s", q.Get("path"), index, q.Get("field"))
		return sess.PatchItem(q.Get("path"), index, q.Get("field"), postedControl(r, name))
	})
}

func (h *Handlers) mapPut(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, func(sess *form.Session) error {
		q := r.URL.Query()
		key := q.Get("key")
		if key == "" {
			key = freshKey(sess, q.Get("path"))
		}
		return sess.PutEntry(q.Get("path"), key, r.PostFormValue("__value"))
	})
}

func (h *Handlers) mapRename(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, func(sess *form.Session) error {
		newKey := r.PostFormValue("__key")
		if newKey == "" {
			return fmt.Errorf("key must not be empty")
		}
		return sess.RenameEntry(r.URL.Query().Get("path"), r.URL.Query().Get("key"), newKey)
	})
}

func (h *Handlers) mapRemove(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, func(sess *form.Session) error {
		return sess.DeleteEntry(r.URL.Query().Get("path"), r.URL.Query().Get("key"))
	})
}

func (h *Handlers) keyedPatch(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, func(sess *form.Session) error {
		q := r.URL.Query()
		name := q.Get("path") + "." + q.Get("key") + "." + q.Get("field")
		return sess.PatchKeyedField(q.Get("path"), q.Get("key"), q.Get("field"), postedControl(r, name))
	})
}

// postedControl reads the bound control's submitted value. Row controls post
// under their own rendered names; an absent checkbox reads as the empty
// string, and a checkbox group's selections collapse to a comma list.
func postedControl(r *http.Request, name string) string {
	return strings.Join(r.PostForm[name], ",")
}

// formBody renders the re-usable inner markup of the config form.
func (h *Handlers) formBody(sess *form.Session, config map[string]interface{}) (string, error) {
	f, err := form.Render(sess, config)
	if err != nil {
		return "", err
	}
	markup := form.RenderHTML(f, formBase(sess.PluginID))
	return markup + `<div class="mt-4"><button type="submit" class="px-4 py-2 bg-blue-600 text-white rounded hover:bg-blue-700">Save</button></div>`, nil
}

// freshKey picks the first unused entry-N key for a new dynamic-map row.
func freshKey(sess *form.Session, path string) string {
	st := sess.Snapshot(path)
	used := make(map[string]bool)
	if st != nil {
		for _, e := range st.Entries {
			used[e.Key] = true
		}
	}
	for i := 1; ; i++ {
		key := fmt.Sprintf("entry-%d", i)
		if !used[key] {
			return key
		}
	}
}
