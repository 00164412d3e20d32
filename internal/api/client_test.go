// ABOUTME: Tests for the backend API client against httptest servers.
// ABOUTME: Covers envelope parsing, error extraction, and multipart upload.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInstalledParsesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plugins/installed" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":{"plugins":[
			{"id":"news","name":"News","version":"1.0.0","enabled":true,
			 "display_modes":["ticker"],"web_ui_actions":["configure"]}]}}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	plugins, err := client.Installed(context.Background())
	if err != nil {
		t.Fatalf("Installed failed: %v", err)
	}
	if len(plugins) != 1 || plugins[0].ID != "news" || !plugins[0].Enabled {
		t.Errorf("plugins = %+v", plugins)
	}
}

func TestSchemaParsesNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("plugin_id"); got != "clock" {
			t.Errorf("plugin_id = %s", got)
		}
		w.Write([]byte(`{"status":"success","data":{"schema":{"type":"object",
			"properties":{"mode":{"type":"string","enum":["12h","24h"]}}}}}`))
	}))
	defer srv.Close()

	node, err := New(srv.URL).Schema(context.Background(), "clock")
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}
	if node.Type != "object" || node.Properties["mode"] == nil {
		t.Errorf("node = %+v", node)
	}
}

func TestSaveConfigValidationErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		w.Write([]byte(`{"status":"error","message":"config rejected",
			"validation_errors":["feeds[0].url: not a url"]}`))
	}))
	defer srv.Close()

	err := New(srv.URL).SaveConfig(context.Background(), "news", map[string]interface{}{})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Message != "config rejected" || len(apiErr.ValidationErrors) != 1 {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestMalformedErrorBodyFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte(`<html>boom</html>`))
	}))
	defer srv.Close()

	err := New(srv.URL).Install(context.Background(), "news")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.StatusCode != 500 {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Error(), "500") {
		t.Errorf("message = %q, want transport status", apiErr.Error())
	}
}

func TestUninstallImmediateAndAsync(t *testing.T) {
	var async bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if async {
			w.Write([]byte(`{"status":"success","data":{"operation_id":"op-1"}}`))
			return
		}
		w.Write([]byte(`{"status":"success","message":"uninstalled"}`))
	}))
	defer srv.Close()

	client := New(srv.URL)

	opID, err := client.Uninstall(context.Background(), "news")
	if err != nil || opID != "" {
		t.Errorf("immediate uninstall = %q, %v", opID, err)
	}

	async = true
	opID, err = client.Uninstall(context.Background(), "news")
	if err != nil || opID != "op-1" {
		t.Errorf("async uninstall = %q, %v", opID, err)
	}
}

func TestOperationStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plugins/operation/op-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"success","data":{"status":"failed","error":"E"}}`))
	}))
	defer srv.Close()

	op, err := New(srv.URL).Operation(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("Operation failed: %v", err)
	}
	if op.ID != "op-1" || op.Status != "failed" || op.Error != "E" {
		t.Errorf("op = %+v", op)
	}
}

func TestUploadAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("multipart parse failed: %v", err)
		}
		if r.FormValue("plugin_id") != "gallery" {
			t.Errorf("plugin_id = %s", r.FormValue("plugin_id"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file missing: %v", err)
		}
		file.Close()

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"uploaded_files": []map[string]interface{}{
				{"path": "assets/gallery/" + header.Filename},
			},
		})
	}))
	defer srv.Close()

	path, err := New(srv.URL).UploadAsset(context.Background(), "gallery", "photo.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("UploadAsset failed: %v", err)
	}
	if path != "assets/gallery/photo.png" {
		t.Errorf("path = %s", path)
	}
}
