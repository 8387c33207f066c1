package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cutline/internal/app"
	"cutline/internal/config"
	"cutline/internal/db"
	"cutline/internal/engine"
	"cutline/internal/migrate"
	"cutline/internal/repo"
	"cutline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "cutline",
	Short: "Cutline CLI",
	Long: `Cutline keeps the edit decision list (EDL) of a screen recording: which
stretches of the source are kept, where the camera zooms in, which parts play
faster or slower and which annotations sit on top.

- Workspace: the .cutline directory holding the database.
- Project: one recording, its duration and its EDL.
- Segments: kept or cut stretches of the source; cut splits one in two.
- Effects: zoom and speed ranges that never overlap within their track.
- Annotations: boxes, blurs, text and arrows over a time range.
- History: every edit can be undone and redone, up to the configured limit.
- Event log: what changed and who changed it, view with 'cutline log tail'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CUTLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().StringP("project", "p", "", "project id (defaults to the only project)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(segmentCmd())
	rootCmd.AddCommand(effectCmd(engine.TrackZoom))
	rootCmd.AddCommand(effectCmd(engine.TrackSpeed))
	rootCmd.AddCommand(annotationCmd())
	rootCmd.AddCommand(lookCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(sampleCmd())
	rootCmd.AddCommand(playCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(serveCmd())
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectDeleteCmd())
	prj.AddCommand(projectReconcileCmd())
	prj.AddCommand(projectConfigCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProjects(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Name", "Duration", "Updated")
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Name, seconds(p.Duration), p.UpdatedAt})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
}

func projectCreateCmd() *cobra.Command {
	var opts engine.ProjectCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project for a recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				workspace := viper.GetString("workspace")
				cfg, err := app.SeedConfig(workspace, opts.ID)
				if err != nil {
					return err
				}
				e := engine.New(r.DB, cfg)
				p, err := e.CreateProject(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "project id (derived from name when empty)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "project name")
	cmd.Flags().Float64Var(&opts.Duration, "duration", 0, "source duration in seconds")
	cmd.Flags().IntVar(&opts.Width, "width", 1920, "frame width")
	cmd.Flags().IntVar(&opts.Height, "height", 1080, "frame height")
	cmd.Flags().StringVar(&opts.Sources.Screen, "screen", "", "screen recording file")
	cmd.Flags().StringVar(&opts.Sources.Camera, "camera", "", "camera recording file")
	cmd.Flags().StringVar(&opts.Sources.Microphone, "microphone", "", "microphone recording file")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show a project and its EDL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *engine.Session) error {
				return printJSONOrTable(s.Project())
			})
		},
	}
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete a project with its history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteProject(ctx, e.Config.Project.ID, viper.GetString("actor-id"))
			})
		},
	}
}

func projectReconcileCmd() *cobra.Command {
	var duration float64
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Adopt the measured media duration",
		Long:  "Clips or stretches segments to the real media length. This is not an undo step.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), func(ctx context.Context, s *engine.Session) (engine.Outcome, error) {
				return s.ReconcileDuration(ctx, duration)
			})
		},
	}
	cmd.Flags().Float64Var(&duration, "duration", 0, "measured duration in seconds")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func projectConfigCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage project config",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show project config stored in DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	})
	cfg.AddCommand(projectConfigImportCmd())
	return cfg
}

func projectConfigImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import project config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFile(filePath)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.SetProjectConfig(ctx, e.Config.Project.ID, cfg, viper.GetString("actor-id")); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Workspace config",
		Long:  "cutline.yml seeds the editor settings of new projects and the webhooks of 'cutline serve'.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default cutline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault("")), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the stored project config",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Config.Validate()
			})
			if viper.GetBool("json") {
				out := map[string]any{"ok": err == nil}
				if err != nil {
					out["error"] = err.Error()
				}
				return printJSON(out)
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "Every applied edit, undo and redo is recorded with its actor.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var f repo.EventFilter
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				f.ProjectID = e.Config.Project.ID
				events, err := e.Repo.LatestEvents(ctx, n, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := newTable("ID", "Time", "Type", "Entity", "Actor")
				for _, evt := range events {
					tw.AppendRow(table.Row{evt.ID, evt.TS, evt.Type, strings.TrimSuffix(evt.EntityKind+" "+evt.EntityID, " "), evt.ActorID})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	return cmd
}

func apiKeyCmd() *cobra.Command {
	keys := &cobra.Command{Use: "apikey", Short: "Manage API keys for the HTTP API"}
	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for the current actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				raw, key, err := r.CreateAPIKey(ctx, viper.GetString("actor-id"), name)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"id": key.ID, "actor_id": key.ActorID, "key": raw})
				}
				fmt.Printf("API key %s for %s (shown once):\n%s\n", key.ID, key.ActorID, raw)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "key label")
	keys.AddCommand(create)
	keys.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListAPIKeys(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Actor", "Name", "Created")
				for _, k := range items {
					tw.AppendRow(table.Row{k.ID, k.ActorID, k.Name, k.CreatedAt})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	})
	keys.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	})
	return keys
}

func authCmd() *cobra.Command {
	auth := &cobra.Command{Use: "auth", Short: "Bearer tokens for the HTTP API"}
	var secret string
	var ttl time.Duration
	token := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for the current actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = viper.GetString("jwt-secret")
			}
			tok, err := server.IssueToken(secret, viper.GetString("actor-id"), ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	token.Flags().StringVar(&secret, "jwt-secret", "", "signing secret (default $CUTLINE_JWT_SECRET)")
	token.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for none")
	auth.AddCommand(token)
	return auth
}

func serveCmd() *cobra.Command {
	var addr, basePath, secret string
	var legacyActor, devLogin bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := app.SeedConfig(workspace, "")
			if err != nil {
				return err
			}
			if secret == "" {
				secret = viper.GetString("jwt-secret")
			}
			if secret == "" {
				return fmt.Errorf("CUTLINE_JWT_SECRET is required for bearer auth")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			e := engine.New(conn, cfg)
			handler, err := server.New(server.Config{
				Engine:   e,
				BasePath: basePath,
				Context:  ctx,
				Auth: server.AuthConfig{
					JWTSecret:              secret,
					AllowLegacyActorHeader: legacyActor,
					EnableDevLogin:         devLogin,
				},
			})
			if err != nil {
				return err
			}
			if server.StartWebhooks(ctx, e) {
				fmt.Printf("Delivering events to %d webhook(s)\n", len(cfg.Webhooks))
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
			fmt.Printf("Serving Cutline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			err = srv.ListenAndServe()
			handler.Close(context.Background())
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().StringVar(&secret, "jwt-secret", "", "bearer token secret (default $CUTLINE_JWT_SECRET)")
	cmd.Flags().BoolVar(&legacyActor, "allow-actor-header", false, "accept unauthenticated X-Actor-Id (local use only)")
	cmd.Flags().BoolVar(&devLogin, "dev-login", false, "expose POST /auth/dev/login (local use only)")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveProjectAndConfig(ctx, workspace, viper.GetString("project"), r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(engine.WithActor(ctx, viper.GetString("actor-id")), e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

// withSession opens the active project for one command and flushes it on
// the way out.
func withSession(ctx context.Context, fn func(context.Context, *engine.Session) error) error {
	return withEngine(ctx, func(ctx context.Context, e engine.Engine) error {
		s := e.Open(ctx, e.Config.Project.ID, viper.GetString("actor-id"))
		runErr := fn(ctx, s)
		if err := s.Close(ctx); err != nil && runErr == nil {
			runErr = err
		}
		return runErr
	})
}

// runEdit applies one session command and reports its outcome.
func runEdit(ctx context.Context, fn func(context.Context, *engine.Session) (engine.Outcome, error)) error {
	return withSession(ctx, func(ctx context.Context, s *engine.Session) error {
		out, err := fn(ctx, s)
		if err != nil {
			return err
		}
		return printOutcome(out)
	})
}

func printOutcome(o engine.Outcome) error {
	if viper.GetBool("json") {
		return printJSON(o)
	}
	if !o.Applied {
		fmt.Printf("not applied: %s\n", o.Reason)
		return nil
	}
	if o.ID != "" {
		fmt.Printf("applied %s\n", o.ID)
		return nil
	}
	fmt.Println("applied")
	return nil
}

func newTable(header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row(header))
	return tw
}

func seconds(v float64) string {
	return fmt.Sprintf("%.2fs", v)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
