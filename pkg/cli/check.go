package cli

import (
	"fmt"

	"github.com/getmockd/intercept/pkg/bridge"
	"github.com/getmockd/intercept/pkg/cli/internal/output"
	"github.com/getmockd/intercept/pkg/config"
	"github.com/getmockd/intercept/pkg/engine"
	"github.com/getmockd/intercept/pkg/mock"
	"github.com/spf13/cobra"
)

// CheckOutput represents JSON output format
type CheckOutput struct {
	Config      string `json:"config"`
	Routes      int    `json:"routes"`
	Passthrough int    `json:"passthrough"`
	Predicates  int    `json:"predicates"`
}

var checkCmd = &cobra.Command{
	Use:   "check [config]",
	Short: "Validate a config file without serving",
	Long: `Check loads the config file, validates it against the schema, and
dry-runs every route and passthrough registration. It prints what it
found and exits nonzero when anything is wrong.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return runCheck(path)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(path string) error {
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			return err
		}
		path = discovered
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	// Registration can fail in ways static validation cannot see, an
	// unknown verb spelling or an unparseable absolute URL. Dry-run it.
	server := mock.NewInMemoryServer()
	b, err := bridge.New(server, discardEngine{})
	if err != nil {
		return err
	}
	if err := cfg.Apply(b); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if jsonOutput {
		return output.JSON(CheckOutput{
			Config:      path,
			Routes:      len(cfg.Routes),
			Passthrough: len(cfg.Passthrough),
			Predicates:  len(cfg.CompiledPredicates()),
		})
	}

	if len(cfg.Routes) == 0 && len(cfg.Passthrough) == 0 && len(cfg.CompiledPredicates()) == 0 {
		output.Warn("config defines no routes, passthrough rules, or predicates; every request will follow the %q policy", cfg.Unhandled)
	}

	if routes := server.Routes(); len(routes) > 0 {
		w := output.Table()
		fmt.Fprintln(w, "VERB\tPATH\tSTATUS")
		for _, rt := range routes {
			fmt.Fprintf(w, "%s\t%s\t%d\n", rt.Verb, rt.Path, rt.Code)
		}
		w.Flush()
		fmt.Println()
	}
	fmt.Printf("configuration OK: %d routes, %d passthrough rules, %d predicates\n",
		len(cfg.Routes), len(cfg.Passthrough), len(cfg.CompiledPredicates()))
	return nil
}

// discardEngine accepts registrations and drops them. check only cares
// whether registration succeeds.
type discardEngine struct{}

func (discardEngine) Handle(string, string, engine.HandlerFunc) error { return nil }
func (discardEngine) OnUnmatched(engine.UnmatchedFunc)                {}
