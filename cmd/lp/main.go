package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"leadpilot/internal/app"
	"leadpilot/internal/config"
	"leadpilot/internal/db"
	"leadpilot/internal/decision"
	"leadpilot/internal/domain"
	"leadpilot/internal/events"
	"leadpilot/internal/metrics"
	"leadpilot/internal/migrate"
	"leadpilot/internal/notify"
	"leadpilot/internal/oracle"
	"leadpilot/internal/repo"
	"leadpilot/internal/rules"
	"leadpilot/internal/status"
)

var rootCmd = &cobra.Command{
	Use:   "lp",
	Short: "Leadpilot CLI",
	Long: `Leadpilot turns a business owner's written sales policy into automated,
auditable conversation decisions.
- Workspace: your .leadpilot directory holding the database; config lives in leadpilot.yml.
- Business: the owner of the policy text, the status catalog and all leads.
- Rules: free-text policy compiled once into a versioned rule set; decisions execute the latest version.
- Decisions: every inbound message yields exactly one action from a closed vocabulary, gated by confidence and status policy.
- Status updates: recommendations embedded in replies are applied exactly once per source event.
- Event log: diary of changes, view with 'lp log tail'.`,
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
	viper.SetEnvPrefix("LEADPILOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().String("business", "", "business id (overrides config)")
	rootCmd.PersistentFlags().String("metrics-push-url", "", "Pushgateway URL; metrics are pushed once on exit")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("business", rootCmd.PersistentFlags().Lookup("business"))
	_ = viper.BindPFlag("metrics-push-url", rootCmd.PersistentFlags().Lookup("metrics-push-url"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(leadCmd())
	rootCmd.AddCommand(decideCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(logCmd())
}

// env bundles the per-invocation wiring shared by most commands.
type env struct {
	Conn       *sql.DB
	Repo       repo.Repo
	Events     events.Writer
	Config     *config.Config
	BusinessID string
	Metrics    *metrics.Set
	Log        *slog.Logger
}

func withEnv(ctx context.Context, fn func(context.Context, env) error) error {
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
	businessID, cfg, err := app.ResolveBusinessAndConfig(ctx, workspace, viper.GetString("business"), r)
	if err != nil {
		return err
	}
	log := newLogger()
	reg := prometheus.NewRegistry()
	e := env{
		Conn:       conn,
		Repo:       r,
		Events:     events.Writer{DB: conn},
		Config:     cfg,
		BusinessID: businessID,
		Metrics:    metrics.New(reg),
		Log:        log,
	}
	err = fn(ctx, e)
	pushMetrics(reg, log)
	return err
}

// pushMetrics ships this invocation's instruments to a Pushgateway when one
// is configured. The CLI is one-shot, so push-on-exit is the exposition
// path; a push failure never fails the command.
func pushMetrics(reg *prometheus.Registry, log *slog.Logger) {
	url := viper.GetString("metrics-push-url")
	if url == "" {
		return
	}
	if err := push.New(url, "leadpilot").Gatherer(reg).Push(); err != nil {
		log.Warn("metrics push failed", "url", url, "error", err)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LEADPILOT_LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func buildOracle(cfg *config.Config, log *slog.Logger) oracle.Oracle {
	return oracle.NewClient(oracle.ClientConfig{
		BaseURL: cfg.Oracle.BaseURL,
		APIKey:  os.Getenv(cfg.Oracle.APIKeyEnv),
		Model:   cfg.Oracle.Model,
		Timeout: time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second,
	}, log)
}

func buildDispatcher(cfg *config.Config, log *slog.Logger) notify.Dispatcher {
	if cfg.Notify.WebhookURL != "" {
		return notify.WebhookDispatcher{URL: cfg.Notify.WebhookURL}
	}
	return notify.LogDispatcher{Log: log}
}

// --- init ---

func initCmd() *cobra.Command {
	var businessID, name string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a workspace for a business",
		RunE: func(cmd *cobra.Command, args []string) error {
			if businessID == "" {
				return fmt.Errorf("--business-id required")
			}
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			cfgPath := config.Path(workspace)
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				if err := os.WriteFile(cfgPath, []byte(config.GenerateDefault(businessID)), 0o644); err != nil {
					return err
				}
				fmt.Println("wrote", cfgPath)
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			r := repo.Repo{DB: conn}
			now := time.Now().UTC().Format(time.RFC3339)
			if name == "" {
				name = businessID
			}
			b := domain.Business{ID: businessID, Name: name, CreatedAt: now, UpdatedAt: now}
			if err := r.InsertBusiness(cmd.Context(), b); err != nil {
				if repo.IsUniqueViolation(err) {
					return fmt.Errorf("business %s already exists", businessID)
				}
				return err
			}
			return printJSONOrTable(b)
		},
	}
	cmd.Flags().StringVar(&businessID, "business-id", "", "business id")
	cmd.Flags().StringVar(&name, "name", "", "business name")
	_ = cmd.MarkFlagRequired("business-id")
	return cmd
}

// --- config ---

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "Config is leadpilot.yml in the workspace: oracle endpoint and model, confidence thresholds, fallback reply, and the notification webhook.",
	}
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate workspace config",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

// --- catalog ---

func catalogCmd() *cobra.Command {
	cat := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the status catalog",
		Long:  "The status catalog is the closed list of lead statuses (imported from your CRM). Rules and recommendations resolve against it; labels outside it are rejected.",
	}
	cat.AddCommand(catalogImportCmd())
	cat.AddCommand(catalogListCmd())
	return cat
}

type catalogFile struct {
	Statuses []struct {
		ID        string `yaml:"id"`
		Label     string `yaml:"label"`
		Canonical string `yaml:"canonical"`
	} `yaml:"statuses"`
}

func catalogImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the status catalog from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return err
			}
			var cf catalogFile
			if err := yaml.Unmarshal(data, &cf); err != nil {
				return fmt.Errorf("invalid catalog yaml: %w", err)
			}
			if len(cf.Statuses) == 0 {
				return fmt.Errorf("catalog file has no statuses")
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				entries := make([]domain.StatusCatalogEntry, 0, len(cf.Statuses))
				for i, s := range cf.Statuses {
					if strings.TrimSpace(s.Label) == "" {
						return fmt.Errorf("statuses[%d]: label is required", i)
					}
					id := s.ID
					if id == "" {
						id = uuid.NewString()
					}
					canonical := s.Canonical
					if canonical == "" {
						canonical = status.Normalize(s.Label)
					}
					entries = append(entries, domain.StatusCatalogEntry{
						ID: id, BusinessID: e.BusinessID, Label: s.Label, Canonical: canonical, SortOrder: i,
					})
				}
				tx, err := e.Conn.BeginTx(ctx, nil)
				if err != nil {
					return err
				}
				defer tx.Rollback()
				if err := e.Repo.ReplaceCatalogTx(ctx, tx, e.BusinessID, entries); err != nil {
					return err
				}
				if err := e.Events.Append(ctx, tx, "catalog.imported", e.BusinessID, "catalog", e.BusinessID,
					viper.GetString("actor-id"), events.EventPayload{"statuses": len(entries)}); err != nil {
					return err
				}
				if err := tx.Commit(); err != nil {
					return err
				}
				return printJSONOrTable(entries)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to catalog YAML")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func catalogListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				entries, err := e.Repo.ListCatalog(ctx, e.BusinessID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Order", "Label", "Canonical", "ID"})
				for _, s := range entries {
					tw.AppendRow(table.Row{s.SortOrder, s.Label, s.Canonical, s.ID})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

// --- rules ---

func rulesCmd() *cobra.Command {
	r := &cobra.Command{
		Use:   "rules",
		Short: "Compile and inspect business rules",
		Long:  "Rules start as plain text written by the owner. 'rules compile' turns the text into a validated, versioned rule set; decisions always execute the newest version.",
	}
	r.AddCommand(rulesCompileCmd())
	r.AddCommand(rulesShowCmd())
	r.AddCommand(rulesListCmd())
	return r
}

func rulesCompileCmd() *cobra.Command {
	var text, filePath string
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile policy text into a new rule set version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" && filePath == "" {
				return fmt.Errorf("--text or --file required")
			}
			if text != "" && filePath != "" {
				return fmt.Errorf("--text and --file are mutually exclusive")
			}
			if filePath != "" {
				data, err := os.ReadFile(filePath)
				if err != nil {
					return err
				}
				text = string(data)
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				catalog, err := e.Repo.ListCatalog(ctx, e.BusinessID)
				if err != nil {
					return err
				}
				compiler := rules.NewCompiler(buildOracle(e.Config, e.Log), e.Log)
				res := compiler.Compile(ctx, text, catalog)
				if !res.Success {
					e.Metrics.ObserveCompile(res.Err.Code)
					if viper.GetBool("json") {
						if err := printJSON(res); err != nil {
							return err
						}
						// still a failure: scripting callers need exit != 0
						return res.Err
					}
					return fmt.Errorf("compile failed [%s]: %s", res.Err.Code, res.Err.Message)
				}
				e.Metrics.ObserveCompile("ok")

				payload, err := json.Marshal(res.Compiled)
				if err != nil {
					return err
				}
				now := time.Now().UTC().Format(time.RFC3339)
				tx, err := e.Conn.BeginTx(ctx, nil)
				if err != nil {
					return err
				}
				defer tx.Rollback()
				version, err := e.Repo.InsertRuleSet(ctx, tx, domain.RuleSetRecord{
					ID:          uuid.NewString(),
					BusinessID:  e.BusinessID,
					PayloadJSON: string(payload),
					CompiledAt:  now,
				})
				if err != nil {
					return err
				}
				if err := e.Events.Append(ctx, tx, "rules.compiled", e.BusinessID, "ruleset", fmt.Sprint(version),
					viper.GetString("actor-id"), events.EventPayload{"version": version, "rules": len(res.Compiled.Rules)}); err != nil {
					return err
				}
				if err := tx.Commit(); err != nil {
					return err
				}
				if err := e.Repo.UpdateBusinessLogic(ctx, e.BusinessID, text, now); err != nil {
					return err
				}
				res.Compiled.Version = version
				return printJSONOrTable(res)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "policy text")
	cmd.Flags().StringVar(&filePath, "file", "", "path to policy text file")
	return cmd
}

func rulesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the active rule set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				rs, err := e.Repo.GetActiveRuleSet(ctx, e.BusinessID)
				if err == repo.ErrNotFound {
					return fmt.Errorf("no compiled rule set; run lp rules compile")
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(rs)
			})
		},
	}
	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rule set versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				recs, err := e.Repo.ListRuleSets(ctx, e.BusinessID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(recs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Version", "Compiled At", "Error"})
				for _, rec := range recs {
					errText := ""
					if rec.CompileErr != nil {
						errText = *rec.CompileErr
					}
					tw.AppendRow(table.Row{rec.Version, rec.CompiledAt, errText})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

// --- leads ---

func leadCmd() *cobra.Command {
	l := &cobra.Command{
		Use:   "lead",
		Short: "Manage leads",
	}
	l.AddCommand(leadCreateCmd())
	l.AddCommand(leadListCmd())
	l.AddCommand(leadShowCmd())
	return l
}

func leadCreateCmd() *cobra.Command {
	var id, name, statusID string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a lead",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				if id == "" {
					id = uuid.NewString()
				}
				now := time.Now().UTC().Format(time.RFC3339)
				l := domain.Lead{ID: id, BusinessID: e.BusinessID, Name: name, CreatedAt: now, UpdatedAt: now}
				if statusID != "" {
					if _, err := e.Repo.GetStatus(ctx, statusID); err != nil {
						return fmt.Errorf("status %s: %w", statusID, err)
					}
					l.StatusID = &statusID
				}
				if err := e.Repo.InsertLead(ctx, l); err != nil {
					return err
				}
				return printJSONOrTable(l)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "lead id (random UUID if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "lead name")
	cmd.Flags().StringVar(&statusID, "status-id", "", "initial status id")
	return cmd
}

func leadListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				leads, err := e.Repo.ListLeads(ctx, e.BusinessID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(leads)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Status", "Seq", "Updated"})
				for _, l := range leads {
					statusLabel := ""
					if l.StatusID != nil {
						if st, err := e.Repo.GetStatus(ctx, *l.StatusID); err == nil {
							statusLabel = st.Label
						}
					}
					tw.AppendRow(table.Row{l.ID, l.Name, statusLabel, l.Seq, l.UpdatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func leadShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a lead with facts, transitions and recent decisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				lead, err := e.Repo.GetLead(ctx, id)
				if err != nil {
					return err
				}
				facts, err := e.Repo.ListFacts(ctx, id)
				if err != nil {
					return err
				}
				transitions, err := e.Repo.ListTransitions(ctx, id)
				if err != nil {
					return err
				}
				audits, err := e.Repo.ListDecisionAudits(ctx, id, 10)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{
					"lead":        lead,
					"facts":       facts,
					"transitions": transitions,
					"decisions":   audits,
				})
			})
		},
	}
	return cmd
}

// --- decide ---

func decideCmd() *cobra.Command {
	var leadID, channel, message, history string
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Decide the next action for an inbound message",
		RunE: func(cmd *cobra.Command, args []string) error {
			if leadID == "" || message == "" {
				return fmt.Errorf("--lead and --message required")
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				eng := decision.Engine{
					DB:      e.Conn,
					Repo:    e.Repo,
					Events:  e.Events,
					Oracle:  buildOracle(e.Config, e.Log),
					Config:  e.Config,
					Metrics: e.Metrics,
					Log:     e.Log,
				}
				d := eng.Decide(ctx, decision.DecideInput{
					BusinessID:     e.BusinessID,
					LeadID:         leadID,
					Channel:        channel,
					UserMessage:    message,
					HistorySummary: history,
				})
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&leadID, "lead", "", "lead id")
	cmd.Flags().StringVar(&channel, "channel", "chat", "channel (chat, email, sms)")
	cmd.Flags().StringVar(&message, "message", "", "inbound user message")
	cmd.Flags().StringVar(&history, "history", "", "conversation summary so far")
	_ = cmd.MarkFlagRequired("lead")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

// --- status ---

func statusCmd() *cobra.Command {
	s := &cobra.Command{
		Use:   "status",
		Short: "Apply status recommendations",
		Long:  "Assistant replies may embed a bracketed status recommendation like [Qualified]. 'status apply' extracts it, resolves it against the catalog and applies it exactly once per source event.",
	}
	s.AddCommand(statusApplyCmd())
	return s
}

func statusApplyCmd() *cobra.Command {
	var leadID, source, eventID, reply string
	var confidence float64
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the recommendation embedded in a reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			if leadID == "" || eventID == "" {
				return fmt.Errorf("--lead and --event-id required")
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				svc := status.Service{
					DB:      e.Conn,
					Repo:    e.Repo,
					Events:  e.Events,
					Config:  e.Config,
					Metrics: e.Metrics,
					Notify:  buildDispatcher(e.Config, e.Log),
					Log:     e.Log,
				}
				in := status.Input{
					BusinessID:    e.BusinessID,
					LeadID:        leadID,
					Source:        source,
					SourceEventID: eventID,
					ReplyText:     reply,
					Channel:       "cli",
				}
				if cmd.Flags().Changed("confidence") {
					in.Confidence = &confidence
				}
				out, err := svc.Apply(ctx, in)
				if err != nil {
					return err
				}
				return printJSONOrTable(out)
			})
		},
	}
	cmd.Flags().StringVar(&leadID, "lead", "", "lead id")
	cmd.Flags().StringVar(&source, "source", "assistant", "recommendation source")
	cmd.Flags().StringVar(&eventID, "event-id", "", "source event id (idempotency key)")
	cmd.Flags().StringVar(&reply, "reply", "", "reply text containing the bracketed recommendation")
	cmd.Flags().Float64Var(&confidence, "confidence", 1.0, "recommendation confidence")
	_ = cmd.MarkFlagRequired("lead")
	_ = cmd.MarkFlagRequired("event-id")
	return cmd
}

// --- log ---

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e env) error {
				evts, err := e.Repo.ListEvents(ctx, e.BusinessID, n)
				if err != nil {
					return err
				}
				return printJSONOrTable(evts)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	return cmd
}

// --- helpers ---

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
