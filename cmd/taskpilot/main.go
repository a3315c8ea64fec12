package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zen-systems/taskpilot/pkg/adapter"
	"github.com/zen-systems/taskpilot/pkg/classify"
	"github.com/zen-systems/taskpilot/pkg/config"
	"github.com/zen-systems/taskpilot/pkg/model"
	"github.com/zen-systems/taskpilot/pkg/pilot"
	"github.com/zen-systems/taskpilot/pkg/task"
)

var (
	routingFile  string
	registryFile string
	modelFlag    string
	taskFlag     string
	levelFlag    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskpilot",
		Short: "Adaptive LLM task router with feedback-driven model selection",
		Long: `Taskpilot classifies incoming tasks, selects the best-fit model from
	a registry using adaptive performance statistics, dispatches the
	request, evaluates the response, and feeds the outcome back into
	future routing decisions.`,
	}

	rootCmd.PersistentFlags().StringVar(&routingFile, "config", "", "path to routing config file")
	rootCmd.PersistentFlags().StringVar(&registryFile, "registry", "", "path to model registry file")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Classify, route, and send a prompt to the best-fit model",
		Long: `Classifies the prompt, selects a model via adaptive routing, sends
	it, and evaluates the response. Use --model to force a specific
	model, --task and --complexity to override classification.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := args[0]

			manager, err := buildManager()
			if err != nil {
				return err
			}

			hints, err := parseHints()
			if err != nil {
				return err
			}

			req, err := manager.AnalyzeRequest(prompt, hints)
			if err != nil {
				return fmt.Errorf("failed to analyze request: %w", err)
			}
			if modelFlag != "" {
				req.ModelHint = modelFlag
			}
			fmt.Fprintf(os.Stderr, "Classified as %s/%s\n", req.TaskType, req.Complexity)

			decision, response, err := manager.GenerateAdaptive(context.Background(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Routed to %s/%s (rule=%s)\n", decision.Adapter, decision.Model, decision.Rule)

			result := manager.EvaluateResponseIntelligent(req, decision, response)
			fmt.Fprintf(os.Stderr, "Evaluation: passed=%v quality=%.2f\n", result.Passed, result.Quality)

			fmt.Println(response)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelFlag, "model", "", "force a specific model")
	cmd.Flags().StringVar(&taskFlag, "task", "", "override task type")
	cmd.Flags().StringVar(&levelFlag, "complexity", "", "override complexity (trivial, moderate, complex, expert)")

	return cmd
}

func routeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route [prompt]",
		Short: "Show the routing decision for a prompt without sending it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := buildManager()
			if err != nil {
				return err
			}

			hints, err := parseHints()
			if err != nil {
				return err
			}

			req, err := manager.AnalyzeRequest(args[0], hints)
			if err != nil {
				return fmt.Errorf("failed to analyze request: %w", err)
			}
			if modelFlag != "" {
				req.ModelHint = modelFlag
			}

			decision, err := manager.RouteOnly(req)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(decision, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelFlag, "model", "", "force a specific model")
	cmd.Flags().StringVar(&taskFlag, "task", "", "override task type")
	cmd.Flags().StringVar(&levelFlag, "complexity", "", "override complexity (trivial, moderate, complex, expert)")

	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List registered models and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tADAPTER\tROLES\tMAX COMPLEXITY\tCOST")
			for _, d := range registry.All() {
				roles := make([]string, 0, len(d.Roles))
				for _, r := range d.Roles {
					roles = append(roles, string(r))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
					d.ID, d.Adapter, strings.Join(roles, ","), d.MaxComplexity, d.CostClass)
			}
			return w.Flush()
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Dump the manager's counters and adaptive state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := buildManager()
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(manager.GetStats(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate routing config and model registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry()
			if err != nil {
				return fmt.Errorf("registry invalid: %w", err)
			}

			var missing []string
			for _, t := range task.Types() {
				role := task.RoleFor(t)
				if len(registry.ModelsByRole(role)) == 0 {
					missing = append(missing, fmt.Sprintf("%s (role %s)", t, role))
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("no models registered for: %s", strings.Join(missing, ", "))
			}

			if routingFile != "" {
				if _, err := config.LoadRoutingConfig(routingFile); err != nil {
					return fmt.Errorf("routing config invalid: %w", err)
				}
			}

			fmt.Println("Configuration valid.")
			return nil
		},
	}
}

func parseHints() (classify.Hints, error) {
	hints := classify.Hints{}
	if taskFlag != "" {
		t := task.Type(taskFlag)
		if !t.Valid() {
			return hints, fmt.Errorf("unknown task type %q", taskFlag)
		}
		hints.TaskType = t
	}
	if levelFlag != "" {
		level, err := task.ParseComplexity(levelFlag)
		if err != nil {
			return hints, err
		}
		hints.Complexity = &level
	}
	return hints, nil
}

func loadRegistry() (*model.InMemoryRegistry, error) {
	if registryFile != "" {
		return model.LoadRegistry(registryFile)
	}
	return model.DefaultRegistry(), nil
}

func buildManager() (*pilot.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	registry, err := loadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	adapters, err := createAdapters(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create adapters: %w", err)
	}
	if _, ok := adapters["mock"]; ok && len(adapters) == 1 {
		remapRegistryToMock(registry)
	}

	return pilot.NewManager(cfg.Routing, registry, adapters), nil
}

func loadConfig() (*config.Config, error) {
	if routingFile != "" {
		return config.LoadWithRoutingFile(routingFile)
	}
	return config.Load()
}

// createAdapters builds every adapter whose API key is configured.
func createAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := make(map[string]adapter.Adapter)

	if cfg.HasAdapter("anthropic") {
		a, err := adapter.NewAnthropicAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, err
		}
		adapters["anthropic"] = a
	}
	if cfg.HasAdapter("openai") {
		a, err := adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
		if err != nil {
			return nil, err
		}
		adapters["openai"] = a
	}
	if cfg.HasAdapter("google") {
		a, err := adapter.NewGoogleAdapter(cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		adapters["google"] = a
	}
	if cfg.HasAdapter("deepseek") {
		a, err := adapter.NewDeepSeekAdapter(cfg.DeepSeekAPIKey)
		if err != nil {
			return nil, err
		}
		adapters["deepseek"] = a
	}

	if len(adapters) == 0 {
		adapters["mock"] = adapter.NewMockAdapter()
		fmt.Fprintln(os.Stderr, "No API keys configured; using mock adapter")
	}

	return adapters, nil
}

// remapRegistryToMock points every registered model at the mock
// adapter so the no-key fallback can actually serve requests.
func remapRegistryToMock(registry *model.InMemoryRegistry) {
	for _, d := range registry.All() {
		d.Adapter = "mock"
		_ = registry.Register(d) // descriptors were already valid
	}
}
