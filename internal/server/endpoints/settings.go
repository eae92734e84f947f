package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/config"
	"github.com/jackzampolin/outline/internal/svcctx"
)

// SettingsResponse contains the runtime overrides keyed by setting key.
type SettingsResponse struct {
	Settings map[string]config.Entry `json:"settings"`
}

// SettingResponse contains a single config entry. Overridden is false when the
// entry shows the built-in default.
type SettingResponse struct {
	Entry      *config.Entry `json:"entry,omitempty"`
	Overridden bool          `json:"overridden"`
}

// UpdateSettingRequest is the request body for updating a setting.
type UpdateSettingRequest struct {
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
}

// settingKey extracts and validates the {key...} path value.
func settingKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return "", false
	}
	if err := config.ValidateKey(key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return key, true
}

// ListSettingsEndpoint handles GET /api/settings.
type ListSettingsEndpoint struct{}

func (e *ListSettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings", e.handler
}

func (e *ListSettingsEndpoint) RequiresInit() bool { return true }

func (e *ListSettingsEndpoint) Group() string { return "settings" }

// handler godoc
//
//	@Summary		List all settings
//	@Description	Get every runtime override of the config file
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/settings [get]
func (e *ListSettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	entries, err := svcctx.ConfigStoreFrom(r.Context()).GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = map[string]config.Entry{}
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: entries})
}

func (e *ListSettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingsResponse
			if err := client.Get(cmd.Context(), "/api/settings", &resp); err != nil {
				return err
			}

			keys := make([]string, 0, len(resp.Settings))
			for k := range resp.Settings {
				if strings.HasPrefix(k, prefix) {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)

			out := make([]config.Entry, 0, len(keys))
			for _, k := range keys {
				out = append(out, resp.Settings[k])
			}
			return api.Output(out)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Filter by key prefix (e.g., 'structure.sb.')")
	return cmd
}

// GetSettingEndpoint handles GET /api/settings/{key...}.
type GetSettingEndpoint struct{}

func (e *GetSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings/{key...}", e.handler
}

func (e *GetSettingEndpoint) RequiresInit() bool { return true }

func (e *GetSettingEndpoint) Group() string { return "settings" }

func (e *GetSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, ok := settingKey(w, r)
	if !ok {
		return
	}

	entry, err := svcctx.ConfigStoreFrom(r.Context()).Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entry != nil {
		writeJSON(w, http.StatusOK, SettingResponse{Entry: entry, Overridden: true})
		return
	}
	if def := config.GetDefault(key); def != nil {
		writeJSON(w, http.StatusOK, SettingResponse{Entry: def})
		return
	}
	writeError(w, http.StatusNotFound, "setting not found")
}

func (e *GetSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingResponse
			if err := client.Get(cmd.Context(), "/api/settings/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// UpdateSettingEndpoint handles PUT /api/settings/{key...}.
type UpdateSettingEndpoint struct{}

func (e *UpdateSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/settings/{key...}", e.handler
}

func (e *UpdateSettingEndpoint) RequiresInit() bool { return true }

func (e *UpdateSettingEndpoint) Group() string { return "settings" }

// handler godoc
//
//	@Summary		Update a setting
//	@Description	Override a configuration key. The result must still validate.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string					true	"Setting key (URL-encoded)"
//	@Param			body	body		UpdateSettingRequest	true	"New value"
//	@Success		200		{object}	SettingResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/settings/{key} [put]
func (e *UpdateSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, ok := settingKey(w, r)
	if !ok {
		return
	}
	if !config.KnownKey(key) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s cannot be overridden at runtime", key))
		return
	}

	var req UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s := svcctx.ServicesFrom(r.Context())
	store := s.ConfigStore
	current, err := store.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	description := req.Description
	if description == "" {
		if existing, ok := current[key]; ok {
			description = existing.Description
		} else if def := config.GetDefault(key); def != nil {
			description = def.Description
		}
	}

	// reject values that would leave the effective configuration invalid
	proposed := make(map[string]config.Entry, len(current)+1)
	for k, v := range current {
		proposed[k] = v
	}
	proposed[key] = config.Entry{Key: key, Value: req.Value, Description: description}
	base := config.DefaultConfig()
	if s.ConfigManager != nil {
		base = s.ConfigManager.Get()
	}
	if _, err := base.WithOverrides(proposed); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.Set(r.Context(), key, req.Value, description); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	svcctx.LoggerFrom(r.Context()).Info("setting updated", "key", key)

	entry, err := store.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SettingResponse{Entry: entry, Overridden: true})
}

func (e *UpdateSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	var value string
	var description string
	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Update a setting",
		Example: `  outline api settings set structure.bg.main_book_nid --value '"bae-123"'
  outline api settings set structure.sb.divisions --value 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// JSON when it parses, a plain string otherwise
			var parsed any
			if err := json.Unmarshal([]byte(value), &parsed); err != nil {
				parsed = value
			}

			client := api.NewClient(getServerURL())
			req := UpdateSettingRequest{Value: parsed, Description: description}
			var resp SettingResponse
			if err := client.Put(cmd.Context(), "/api/settings/"+url.PathEscape(args[0]), req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "New value (JSON or string)")
	cmd.Flags().StringVar(&description, "description", "", "Description (optional)")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

// ResetSettingEndpoint handles POST /api/settings/reset/{key...}.
type ResetSettingEndpoint struct{}

func (e *ResetSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/settings/reset/{key...}", e.handler
}

func (e *ResetSettingEndpoint) RequiresInit() bool { return true }

func (e *ResetSettingEndpoint) Group() string { return "settings" }

func (e *ResetSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, ok := settingKey(w, r)
	if !ok {
		return
	}

	if err := config.ResetToDefault(r.Context(), svcctx.ConfigStoreFrom(r.Context()), key); err != nil {
		if errors.Is(err, config.ErrNoDefault) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, SettingResponse{Entry: config.GetDefault(key)})
}

func (e *ResetSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <key>",
		Short: "Drop the runtime override of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingResponse
			if err := client.Post(cmd.Context(), "/api/settings/reset/"+url.PathEscape(args[0]), nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
