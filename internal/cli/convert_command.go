package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"ogre-mesh-tools/internal/model"
	"ogre-mesh-tools/internal/pipeline"
	"ogre-mesh-tools/internal/toolchain"
)

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	flags := registerOpFlags(fs)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: convert <mesh-file> [--normals] [--obj] [--gltf]")
	}

	ops, err := flags.operations()
	if err != nil {
		return err
	}
	blender, err := flags.resolveBlender()
	if err != nil {
		return err
	}

	req := model.ConversionRequest{
		InputPath:   fs.Arg(0),
		Operations:  ops,
		OutputRoots: flags.outputRoots(),
		BlenderPath: blender,
	}

	result := pipeline.New(toolchain.Locate()).Run(req)
	if *flags.jsonOut {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printItemResult(result)
	}

	if failed := result.FailedCount(); failed > 0 {
		return fmt.Errorf("%d of %d operation(s) failed for %s", failed, len(result.Outcomes), req.InputPath)
	}
	return nil
}

func printItemResult(result model.ItemResult) {
	fmt.Printf("%s\n", result.InputPath)
	for _, o := range result.Outcomes {
		switch o.Status {
		case model.StatusSuccess:
			line := fmt.Sprintf("  %s %-15s", okStyle.Render("ok  "), o.Operation)
			if o.OutputPath != "" {
				line += " -> " + o.OutputPath
			}
			if o.Note != "" {
				line += "  (" + o.Note + ")"
			}
			fmt.Println(line)
		default:
			fmt.Printf("  %s %-15s [%s] %s\n", failStyle.Render("fail"), o.Operation, o.ErrorKind, firstLine(o.ErrorDetail))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
