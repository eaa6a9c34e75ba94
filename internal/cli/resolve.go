package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/agent"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/config"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/fecha"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/filter"
)

var resolveCmd = LeafCommand{
	Use:   "resolve [query]",
	Short: "Resolve the date expression in a Spanish query to its JSON shape",
	Args:  cobra.MaximumNArgs(1),
	BoolFlags: []BoolFlag{
		{Name: "filter", Usage: "also print the OData filter expression"},
		{Name: "agent", Usage: "resolve through the configured LLM agent, falling back to the local grammar"},
	},
	StrFlags: []StringFlag{
		{Name: "date", Usage: "reference date (YYYY-MM-DD, default: today)"},
		{Name: "field", Usage: "index field for the filter expression"},
		{Name: "config", Usage: "path to config file", Default: "config.yml"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		filterFlag, _ := cmd.Flags().GetBool("filter")
		agentFlag, _ := cmd.Flags().GetBool("agent")
		dateFlag, _ := cmd.Flags().GetString("date")
		fieldFlag, _ := cmd.Flags().GetString("field")
		configFlag, _ := cmd.Flags().GetString("config")

		var query string
		if len(args) > 0 {
			query = args[0]
		}
		if query == "" {
			if !isatty.IsTerminal(os.Stdin.Fd()) {
				return fmt.Errorf("missing query (pass it as an argument)")
			}
			q, err := NewPromptFunc()("Consulta en español")
			if err != nil {
				return err
			}
			query = q
		}

		nowFn, err := referenceClock(dateFlag)
		if err != nil {
			return err
		}

		resolver := agent.Resolver(agent.Local{Now: nowFn})
		if agentFlag {
			cfg, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			if cfg.Agent.Endpoint == "" {
				return fmt.Errorf("--agent requires an agent endpoint (config file or DATE_AGENT_ENDPOINT)")
			}
			client := agent.NewClient(cfg.Agent.Endpoint, cfg.Agent.Deployment, cfg.Agent.APIKey,
				cfg.Agent.Timeout, agent.WithClock(nowFn))
			resolver = agent.Chain{Primary: client, Fallback: agent.Local{Now: nowFn}}
		}

		return runResolve(cmd, query, fieldFlag, filterFlag, resolver)
	},
}.Build()

// referenceClock returns a clock pinned to the --date flag, or the real
// clock when the flag is empty.
func referenceClock(dateFlag string) (func() time.Time, error) {
	if dateFlag == "" {
		return time.Now, nil
	}
	t, err := time.Parse("2006-01-02", dateFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", dateFlag)
	}
	return func() time.Time { return t }, nil
}

func runResolve(cmd *cobra.Command, query, field string, showFilter bool, resolver agent.Resolver) error {
	res, err := resolver.ResolveDates(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", query, err)
	}

	out := cmd.OutOrStdout()
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		printResolvedPretty(out, field, showFilter, res)
		return nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))

	if showFilter {
		fmt.Fprintln(out, filter.Expression(field, res))
	}
	return nil
}

// printResolvedPretty writes the styled terminal rendition instead of the
// raw JSON shape.
func printResolvedPretty(w io.Writer, field string, showFilter bool, res fecha.Resolution) {
	fmt.Fprintln(w, Primary(res.String()))
	fmt.Fprintln(w, Silent(res.Kind().String()))
	if showFilter {
		fmt.Fprintln(w, Silent(filter.Expression(field, res)))
	}
}
