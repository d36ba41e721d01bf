package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/majordomo-ai/majordomo/agent"
	"github.com/majordomo-ai/majordomo/calendar"
	"github.com/majordomo-ai/majordomo/imagegen"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant as a local HTTP daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			bind := strings.TrimSpace(viper.GetString("server.bind"))
			if bind == "" {
				bind = "127.0.0.1"
			}
			port := viper.GetInt("server.port")
			if port <= 0 {
				port = 8787
			}
			auth := strings.TrimSpace(viper.GetString("server.auth_token"))
			if auth == "" {
				return fmt.Errorf("missing server.auth_token (set via MAJORDOMO_SERVER_AUTH_TOKEN)")
			}

			rt, err := runtimeFromViper(cmd.Context())
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf("%s:%d", bind, port),
				Handler:           newServeMux(rt, auth),
				ReadHeaderTimeout: 10 * time.Second,
			}
			rt.logger.Info("http_server_listening", "addr", srv.Addr)
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().String("server-bind", "", "Bind address (default 127.0.0.1).")
	cmd.Flags().Int("server-port", 0, "Listen port (default 8787).")
	cmd.Flags().String("server-auth-token", "", "Bearer token required on every request.")
	_ = viper.BindPFlag("server.bind", cmd.Flags().Lookup("server-bind"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("server-port"))
	_ = viper.BindPFlag("server.auth_token", cmd.Flags().Lookup("server-auth-token"))
	return cmd
}

func newServeMux(rt *runtime, authToken string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": rt.sessions.Len(),
		})
	})

	mux.HandleFunc("POST /message", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			UserID  string `json:"user_id"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(in.UserID) == "" {
			writeError(w, http.StatusBadRequest, "missing user_id")
			return
		}
		out := rt.brain.ProcessMessage(r.Context(), agent.Inbound{
			UserID: in.UserID,
			Text:   in.Message,
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"response":   out.Text,
			"audio_file": downloadName(out.AudioPath),
			"image_file": downloadName(out.ImagePath),
		})
	})

	mux.HandleFunc("POST /image/generate", func(w http.ResponseWriter, r *http.Request) {
		if rt.images == nil {
			writeError(w, http.StatusServiceUnavailable, "image generation is not configured")
			return
		}
		var in struct {
			Prompt string `json:"prompt"`
			Style  string `json:"style"`
			Size   string `json:"size"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		rec := agent.IntentRecord{
			Category:   agent.CategoryImageCreate,
			Parameters: agent.Params{"prompt": in.Prompt, "style": in.Style, "size": in.Size},
		}
		result := dispatchDirect(r.Context(), rt, rec)
		if !result.Success {
			writeError(w, http.StatusBadGateway, result.ReplyText)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":    result.ReplyText,
			"image_file": downloadName(result.ImagePath),
		})
	})

	mux.HandleFunc("POST /calendar/create", func(w http.ResponseWriter, r *http.Request) {
		if rt.calendar == nil {
			writeError(w, http.StatusServiceUnavailable, "calendar is not configured")
			return
		}
		var in struct {
			Title       string   `json:"title"`
			Date        string   `json:"date"`
			Time        string   `json:"time"`
			Duration    string   `json:"duration"`
			Description string   `json:"description"`
			Attendees   []string `json:"attendees"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		ev, err := rt.calendar.CreateEvent(r.Context(), calendar.EventInput{
			Title:       in.Title,
			Date:        in.Date,
			Time:        in.Time,
			Duration:    in.Duration,
			Description: in.Description,
			Attendees:   in.Attendees,
		})
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"event_id": ev.ID,
			"title":    ev.Title,
			"start":    ev.Start.Format(time.RFC3339),
			"link":     ev.Link,
		})
	})

	mux.HandleFunc("GET /calendar/events", func(w http.ResponseWriter, r *http.Request) {
		if rt.calendar == nil {
			writeError(w, http.StatusServiceUnavailable, "calendar is not configured")
			return
		}
		date := r.URL.Query().Get("date")
		maxResults, _ := strconv.Atoi(r.URL.Query().Get("max_results"))
		events, err := rt.calendar.ListEvents(r.Context(), date, maxResults)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		items := make([]map[string]any, 0, len(events))
		for _, ev := range events {
			items = append(items, map[string]any{
				"event_id": ev.ID,
				"title":    ev.Title,
				"start":    ev.Start.Format(time.RFC3339),
				"end":      ev.End.Format(time.RFC3339),
				"link":     ev.Link,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": items})
	})

	mux.HandleFunc("POST /email/send", func(w http.ResponseWriter, r *http.Request) {
		if rt.email == nil {
			writeError(w, http.StatusServiceUnavailable, "email is not configured")
			return
		}
		var in struct {
			To      string `json:"to"`
			Subject string `json:"subject"`
			Body    string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(in.To) == "" {
			writeError(w, http.StatusBadRequest, "missing to")
			return
		}
		receipt, err := rt.email.Send(r.Context(), in.To, in.Subject, in.Body)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message_id": receipt.MessageID})
	})

	mux.HandleFunc("GET /email/list", func(w http.ResponseWriter, r *http.Request) {
		if rt.email == nil {
			writeError(w, http.StatusServiceUnavailable, "email is not configured")
			return
		}
		q := r.URL.Query()
		maxResults, _ := strconv.Atoi(q.Get("max_results"))
		includeBody := q.Get("include_body") == "true"
		emails, err := rt.email.List(r.Context(), q.Get("query"), maxResults, includeBody)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		items := make([]map[string]any, 0, len(emails))
		for _, em := range emails {
			item := map[string]any{
				"id":      em.ID,
				"subject": em.Subject,
				"from":    em.Sender,
				"date":    em.Date,
				"snippet": em.Snippet,
			}
			if includeBody {
				item["body"] = em.Body
			}
			items = append(items, item)
		}
		writeJSON(w, http.StatusOK, map[string]any{"emails": items})
	})

	mux.HandleFunc("GET /download/audio/{name}", func(w http.ResponseWriter, r *http.Request) {
		serveArtifact(w, r, rt, rt.audioDir.Resolve, ".wav", "audio/wav")
	})
	mux.HandleFunc("GET /download/image/{name}", func(w http.ResponseWriter, r *http.Request) {
		serveArtifact(w, r, rt, rt.imageDir.Resolve, ".png", "image/png")
	})

	return requireBearer(authToken, mux)
}

// dispatchDirect runs a synthetic record through the brain's dispatcher
// path without intent resolution, for the REST endpoints that name their
// action explicitly.
func dispatchDirect(ctx context.Context, rt *runtime, rec agent.IntentRecord) agent.ActionResult {
	d := agent.NewDispatcher(agent.DispatcherConfig{
		Images:        rt.images,
		ImageDir:      rt.imageDir,
		ValidateImage: imagegen.ValidateDescription,
		Logger:        rt.logger,
	})
	return d.Dispatch(ctx, rec, "api", nil)
}

func serveArtifact(w http.ResponseWriter, r *http.Request, rt *runtime, resolve func(string) (string, error), wantExt, contentType string) {
	name := r.PathValue("name")
	if !strings.HasSuffix(name, wantExt) {
		writeError(w, http.StatusBadRequest, "unsupported file type")
		return
	}
	path, err := resolve(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, path)
}

func requireBearer(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func downloadName(path string) string {
	if path == "" {
		return ""
	}
	i := strings.LastIndexByte(path, '/')
	return path[i+1:]
}
