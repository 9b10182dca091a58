package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"ogre-mesh-tools/internal/config"
)

func runSettings(args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "set":
		return runSettingsSet(args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

func runSettingsShow(args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
	path := fs.String("config", config.DefaultSettingsPath, "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.Load(*path)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"settings_path": strings.TrimSpace(*path),
			"settings":      settings,
		})
	}

	fmt.Printf("settings: %s\n", strings.TrimSpace(*path))
	if settings.BlenderPath == "" {
		fmt.Println("blender_path: (not set)")
	} else {
		fmt.Printf("blender_path: %s\n", settings.BlenderPath)
	}
	fmt.Printf("workers: %d\n", settings.Workers)
	return nil
}

func runSettingsSet(args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	path := fs.String("config", config.DefaultSettingsPath, "settings file path")
	blenderPath := fs.String("blender-path", "", "blender executable path (an explicit empty value clears it)")
	workers := fs.Int("workers", -1, "concurrent batch items (>=1, -1 keeps current)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	blenderSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "blender-path" {
			blenderSet = true
		}
	})

	settings, err := config.Load(*path)
	if err != nil {
		return err
	}
	if blenderSet {
		settings.BlenderPath = strings.TrimSpace(*blenderPath)
	}
	if *workers != -1 {
		if *workers <= 0 {
			return errors.New("--workers must be >= 1")
		}
		settings.Workers = *workers
	}

	if err := config.Save(*path, settings); err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"settings_path": strings.TrimSpace(*path),
			"settings":      settings,
		})
	}
	fmt.Printf("updated settings in %s\n", strings.TrimSpace(*path))
	if settings.BlenderPath != "" {
		fmt.Printf("blender_path: %s\n", settings.BlenderPath)
	}
	fmt.Printf("workers: %d\n", settings.Workers)
	return nil
}

func printSettingsUsage() {
	fmt.Println("settings commands:")
	fmt.Println("  settings show")
	fmt.Println("  settings set [--blender-path <path>] [--workers N]")
}
