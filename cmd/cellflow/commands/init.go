package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/cellflow/cellflow/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cellflow configuration interactively",
	Long: `Guides you through setting up cellflow configuration step by step.
Creates a config file with analysis and caching settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Analysis ===
	var trackBuiltins bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Track Python builtins").
				Description("Include builtin names (print, len, ...) in read/write sets?").
				Affirmative("Yes, track them").
				Negative("No, filter them out").
				Value(&trackBuiltins),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.TrackBuiltins = trackBuiltins

	var strictParse bool = cfg.StrictParse
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Strict parsing").
				Description("Fail on cells with syntax errors instead of analyzing what could be recovered?").
				Affirmative("Strict").
				Negative("Lenient").
				Value(&strictParse),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.StrictParse = strictParse

	// === SECTION 2: Cache ===
	var cacheEnabled bool = cfg.CacheEnabled
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Analysis cache").
				Description("Persist analysis results so unchanged cells skip re-parsing?").
				Affirmative("Enable").
				Negative("Disable").
				Value(&cacheEnabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.CacheEnabled = cacheEnabled

	if cacheEnabled {
		cacheDir := cfg.CacheDir
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Cache directory").
					Placeholder(cfg.CacheDir).
					Value(&cacheDir),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if cacheDir != "" {
			cfg.CacheDir = cacheDir
		}

		maxEntries := strconv.Itoa(cfg.MaxCacheEntries)
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Max cache entries (0 = unlimited)").
					Placeholder(maxEntries).
					Value(&maxEntries),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if n, err := strconv.Atoi(maxEntries); err == nil {
			cfg.MaxCacheEntries = n
		}
	}

	// === SECTION 3: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.cellflow/config.yaml)", "global"),
					huh.NewOption("Project (./.cellflow/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectPath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalPath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Show config preview
	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Track builtins: %t\n", cfg.TrackBuiltins)
	fmt.Printf("Strict parse: %t\n", cfg.StrictParse)
	fmt.Printf("Cache enabled: %t\n", cfg.CacheEnabled)
	if cfg.CacheEnabled {
		fmt.Printf("Cache dir: %s\n", cfg.CacheDir)
		fmt.Printf("Max cache entries: %d\n", cfg.MaxCacheEntries)
	}
	fmt.Println("=============================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)

	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
