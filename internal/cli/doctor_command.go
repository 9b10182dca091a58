package cli

import (
	"flag"
	"fmt"

	"ogre-mesh-tools/internal/config"
	"ogre-mesh-tools/internal/toolchain"
)

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	path := fs.String("config", config.DefaultSettingsPath, "settings file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := config.Doctor(config.DoctorOptions{
		SettingsPath: *path,
		Toolchain:    toolchain.Locate(),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(result)
	}

	for _, c := range result.Checks {
		mark := okStyle.Render("ok  ")
		if !c.OK {
			mark = failStyle.Render("fail")
		}
		fmt.Printf("%s %-30s %s\n", mark, c.Name, c.Message)
	}
	if !result.OK {
		return fmt.Errorf("preflight found problems")
	}
	fmt.Println("all checks passed")
	return nil
}
