package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "convert":
		return runConvert(args[1:])
	case "batch":
		return runBatch(args[1:])
	case "setup":
		return runSetup(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("ogre-mesh-tools: repair and convert OGRE mesh assets via external tools")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  ogre-mesh-tools doctor")
	fmt.Println("  ogre-mesh-tools convert ring.mesh --normals --obj")
	fmt.Println("  ogre-mesh-tools batch ./meshes --obj --gltf")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  convert   run selected operations on a single mesh file")
	fmt.Println("  batch     run selected operations on every mesh in a directory")
	fmt.Println("  setup     interactive conversion setup (TTY)")
	fmt.Println("  settings  show/update saved settings (blender path, workers)")
	fmt.Println("  doctor    run dependency and filesystem preflight checks")
	fmt.Println()
	fmt.Println("Operations (at least one required):")
	fmt.Println("  --normals   recalculate vertex normals in place")
	fmt.Println("  --obj       export static OBJ under OBJ_Export/")
	fmt.Println("  --gltf      export rigged glTF under glTF_Export/ (needs Blender)")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Operations always run as normals -> obj -> gltf; a failed")
	fmt.Println("    operation never stops the others or the rest of a batch")
}
