package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/getmockd/intercept/pkg/bridge"
	"github.com/getmockd/intercept/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	initOutput string
	initForce  bool
	initYes    bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config file",
	Long: `Init scaffolds an intercept.yaml with one example route and a health
passthrough. Without --yes it asks a few questions first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "intercept.yaml", "Output filename")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept the defaults without prompting")
	rootCmd.AddCommand(initCmd)
}

// scaffold holds the answers the starter config is rendered from.
type scaffold struct {
	Listen    string
	Origin    string
	Path      string
	Unhandled string
}

func runInit() error {
	if _, err := os.Stat(initOutput); err == nil && !initForce {
		return fmt.Errorf("file already exists: %s\n\nUse --force to overwrite", initOutput)
	}

	answers := scaffold{
		Listen:    config.DefaultListen,
		Path:      "/api/users",
		Unhandled: config.UnhandledBypass,
	}

	if !initYes {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("What address should the proxy listen on?").
					Placeholder(config.DefaultListen).
					Value(&answers.Listen).
					Validate(func(s string) error {
						if s == "" {
							return errors.New("listen address is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("What origin does your application call?").
					Placeholder("http://localhost:3000").
					Value(&answers.Origin),
				huh.NewInput().
					Title("What is the first route path to mock?").
					Placeholder("/api/users").
					Value(&answers.Path),
				huh.NewSelect[string]().
					Title("What should happen to unmatched requests?").
					Options(
						huh.NewOption("Pass them through to the real network", config.UnhandledBypass),
						huh.NewOption("Block them with a 404", config.UnhandledBlock),
					).
					Value(&answers.Unhandled),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
	}
	if answers.Path == "" {
		answers.Path = "/api/users"
	}

	data, err := renderScaffold(answers, initOutput)
	if err != nil {
		return err
	}
	// Catch bad answers before anything lands on disk.
	if _, err := config.Parse(data); err != nil {
		return fmt.Errorf("generated config failed validation: %w", err)
	}
	if err := os.WriteFile(initOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", initOutput, err)
	}

	origin := answers.Origin
	if origin == "" {
		origin = bridge.DefaultOrigin
	}

	fmt.Printf("Created %s\n", initOutput)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  intercept serve --config %s\n", initOutput)
	fmt.Printf("  curl -x http://%s %s%s\n", hintAddr(answers.Listen), origin, answers.Path)
	return nil
}

// renderScaffold produces the starter YAML with a commented header.
func renderScaffold(s scaffold, filename string) ([]byte, error) {
	cfg := config.Config{
		Listen:    s.Listen,
		Origin:    s.Origin,
		Unhandled: s.Unhandled,
		Routes: []config.Route{
			{
				Verb: "get",
				Path: s.Path,
				Body: map[string]any{"users": []any{}},
			},
		},
		Passthrough: []config.PassthroughRule{
			{URL: "/health"},
		},
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	header := fmt.Sprintf(`# %s
# Generated by: intercept init
#
# Start proxy: intercept serve --config %s
# Then point your application's HTTP proxy at the listen address.

`, filename, filename)
	return append([]byte(header), yamlData...), nil
}

// hintAddr turns a listen address into something curl can dial.
func hintAddr(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "localhost" + listen
	}
	return listen
}
