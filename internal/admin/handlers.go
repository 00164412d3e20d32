// ABOUTME: JSON API handlers for plugin management.
// ABOUTME: Schema/config round-trip, install/update/uninstall, toggle, operations, asset upload.

package admin

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pixeldeck/pixeldeck/internal/httpx"
	"github.com/pixeldeck/pixeldeck/internal/store"
	"github.com/pixeldeck/pixeldeck/plugins/core"
)

// Handlers serves the plugin management API and the config form UI.
type Handlers struct {
	store      *store.Store
	uploadsDir string
	sessions   *sessionRegistry

	// uninstallDelay spaces out the background uninstall worker's state
	// transitions so clients observe pending/in_progress. Zero in tests.
	uninstallDelay time.Duration
}

func NewHandlers(s *store.Store, uploadsDir string) *Handlers {
	return &Handlers{
		store:          s,
		uploadsDir:     uploadsDir,
		sessions:       newSessionRegistry(),
		uninstallDelay: 100 * time.Millisecond,
	}
}

func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/plugins", func(r chi.Router) {
		r.Get("/schema", h.schema)
		r.Get("/config", h.getConfig)
		r.Post("/config", h.saveConfig)
		r.Post("/config/reset", h.resetConfig)
		r.Get("/installed", h.installed)
		r.Post("/toggle", h.toggle)
		r.Post("/install", h.install)
		r.Post("/update", h.update)
		r.Post("/uninstall", h.uninstall)
		r.Get("/operation/{id}", h.operation)
		r.Post("/assets/upload", h.uploadAsset)
	})

	h.registerFormRoutes(r)
}

func (h *Handlers) schema(w http.ResponseWriter, r *http.Request) {
	def, ok := core.Get(r.URL.Query().Get("plugin_id"))
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "unknown plugin")
		return
	}
	httpx.WriteData(w, map[string]interface{}{"schema": def.ConfigSchema()})
}

func (h *Handlers) getConfig(w http.ResponseWriter, r *http.Request) {
	pluginID := r.URL.Query().Get("plugin_id")
	def, ok := core.Get(pluginID)
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "unknown plugin")
		return
	}

	config, err := h.store.GetConfig(pluginID)
	if err != nil {
		log.Printf("get config %s: %v", pluginID, err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load configuration")
		return
	}
	if config == nil {
		config = def.DefaultConfig()
	}
	httpx.WriteData(w, config)
}

func (h *Handlers) saveConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PluginID string                 `json:"plugin_id"`
		Config   map[string]interface{} `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	def, ok := core.Get(req.PluginID)
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "unknown plugin")
		return
	}

	if errs := validateConfig(def.ConfigSchema(), req.Config); len(errs) > 0 {
		httpx.WriteValidationErrors(w, "configuration is invalid", errs)
		return
	}

	if err := h.store.SaveConfig(req.PluginID, req.Config); err != nil {
		log.Printf("save config %s: %v", req.PluginID, err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to save configuration")
		return
	}
	httpx.WriteSuccess(w, "configuration saved")
}

func (h *Handlers) resetConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PluginID        string `json:"plugin_id"`
		PreserveSecrets bool   `json:"preserve_secrets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	def, ok := core.Get(req.PluginID)
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "unknown plugin")
		return
	}

	config := def.DefaultConfig()
	if req.PreserveSecrets {
		existing, err := h.store.GetConfig(req.PluginID)
		if err == nil && existing != nil {
			copySecrets(def.ConfigSchema(), existing, config)
		}
	}

	if err := h.store.SaveConfig(req.PluginID, config); err != nil {
		log.Printf("reset config %s: %v", req.PluginID, err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to reset configuration")
		return
	}
	httpx.WriteMessageData(w, "configuration reset", map[string]interface{}{"config": config})
}

func (h *Handlers) installed(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListInstalled()
	if err != nil {
		log.Printf("list installed: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list plugins")
		return
	}
	httpx.WriteData(w, map[string]interface{}{"plugins": records})
}

func (h *Handlers) toggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PluginID string `json:"plugin_id"`
		Enabled  bool   `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.SetEnabled(req.PluginID, req.Enabled); err != nil {
		httpx.WriteError(w, http.StatusNotFound, "plugin not installed")
		return
	}
	state := "disabled"
	if req.Enabled {
		state = "enabled"
	}
	httpx.WriteSuccess(w, fmt.Sprintf("plugin %s", state))
}

func (h *Handlers) install(w http.ResponseWriter, r *http.Request) {
	pluginID, ok := h.pluginFromBody(w, r)
	if !ok {
		return
	}
	def, ok := core.Get(pluginID)
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "unknown plugin")
		return
	}

	if err := h.store.InstallPlugin(recordFor(def)); err != nil {
		log.Printf("install %s: %v", pluginID, err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to install plugin")
		return
	}

	// Install seeds the default configuration; a reinstall keeps the
	// operator's existing one.
	if existing, err := h.store.GetConfig(pluginID); err == nil && existing == nil {
		if err := h.store.SaveConfig(pluginID, def.DefaultConfig()); err != nil {
			log.Printf("seed config %s: %v", pluginID, err)
		}
	}
	httpx.WriteSuccess(w, "plugin installed")
}

func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	pluginID, ok := h.pluginFromBody(w, r)
	if !ok {
		return
	}
	def, ok := core.Get(pluginID)
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "unknown plugin")
		return
	}
	if rec, err := h.store.GetPlugin(pluginID); err != nil || rec == nil {
		httpx.WriteError(w, http.StatusNotFound, "plugin not installed")
		return
	}

	if err := h.store.InstallPlugin(recordFor(def)); err != nil {
		log.Printf("update %s: %v", pluginID, err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to update plugin")
		return
	}
	httpx.WriteSuccess(w, "plugin updated")
}

func (h *Handlers) uninstall(w http.ResponseWriter, r *http.Request) {
	pluginID, ok := h.pluginFromBody(w, r)
	if !ok {
		return
	}
	if rec, err := h.store.GetPlugin(pluginID); err != nil || rec == nil {
		httpx.WriteError(w, http.StatusNotFound, "plugin not installed")
		return
	}

	op, err := h.store.CreateOperation(pluginID, "uninstall")
	if err != nil {
		log.Printf("create operation for %s: %v", pluginID, err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to start uninstall")
		return
	}

	go h.runUninstall(op.ID, pluginID)

	httpx.WriteMessageData(w, "uninstall started", map[string]interface{}{"operation_id": op.ID})
}

// runUninstall drives one uninstall operation through its states in the
// background. Failures are recorded on the operation, never lost.
func (h *Handlers) runUninstall(opID, pluginID string) {
	time.Sleep(h.uninstallDelay)
	if err := h.store.UpdateOperation(opID, core.OpInProgress, ""); err != nil {
		log.Printf("operation %s: %v", opID, err)
	}

	time.Sleep(h.uninstallDelay)
	if err := h.store.RemovePlugin(pluginID); err != nil {
		log.Printf("uninstall %s: %v", pluginID, err)
		if uerr := h.store.UpdateOperation(opID, core.OpFailed, err.Error()); uerr != nil {
			log.Printf("operation %s: %v", opID, uerr)
		}
		return
	}
	if err := h.store.UpdateOperation(opID, core.OpCompleted, ""); err != nil {
		log.Printf("operation %s: %v", opID, err)
	}
}

func (h *Handlers) operation(w http.ResponseWriter, r *http.Request) {
	op, err := h.store.GetOperation(chi.URLParam(r, "id"))
	if err != nil {
		log.Printf("get operation: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load operation")
		return
	}
	if op == nil {
		httpx.WriteError(w, http.StatusNotFound, "unknown operation")
		return
	}
	httpx.WriteData(w, op)
}

func (h *Handlers) uploadAsset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	pluginID := r.FormValue("plugin_id")
	if _, ok := core.Get(pluginID); !ok {
		httpx.WriteError(w, http.StatusNotFound, "unknown plugin")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	dir := filepath.Join(h.uploadsDir, pluginID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("upload dir: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	name := uuid.New().String() + filepath.Ext(header.Filename)
	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		log.Printf("upload create: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	size, err := io.Copy(out, file)
	out.Close()
	if err != nil {
		log.Printf("upload copy: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	relPath := pluginID + "/" + name
	if _, err := h.store.AddAsset(pluginID, relPath, size); err != nil {
		log.Printf("record asset: %v", err)
	}

	// The upload response carries the file list at the top level, not
	// inside data.
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"uploaded_files": []map[string]interface{}{
			{"path": relPath, "name": header.Filename, "size": size},
		},
	})
}

// pluginFromBody decodes the common {plugin_id} request body, writing the
// error response itself when the body is unusable.
func (h *Handlers) pluginFromBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		PluginID string `json:"plugin_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PluginID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	return req.PluginID, true
}

func recordFor(def core.Definition) core.PluginRecord {
	return core.PluginRecord{
		ID:           def.Name(),
		Name:         def.Title(),
		Version:      def.Version(),
		Enabled:      true,
		DisplayModes: def.DisplayModes(),
		WebUIActions: def.WebUIActions(),
	}
}
