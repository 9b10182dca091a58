package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ogre-mesh-tools/internal/batch"
	"ogre-mesh-tools/internal/config"
	"ogre-mesh-tools/internal/model"
	"ogre-mesh-tools/internal/pipeline"
	"ogre-mesh-tools/internal/toolchain"
)

type setupField int

const (
	fieldInputPath setupField = iota
	fieldNormals
	fieldOBJ
	fieldGLTF
	fieldBlenderPath
	fieldConfirm
	fieldCount
)

var (
	setupTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	setupSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	setupPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type setupModel struct {
	cursor  setupField
	input   textinput.Model
	blender textinput.Model

	normals bool
	obj     bool
	gltf    bool

	errMsg    string
	confirmed bool
}

func newSetupModel(settings config.Settings) setupModel {
	input := textinput.New()
	input.Placeholder = "path to a .mesh/.xml file or a directory"
	input.Focus()

	blender := textinput.New()
	blender.Placeholder = "blender executable (glTF only)"
	blender.SetValue(settings.BlenderPath)

	return setupModel{
		input:   input,
		blender: blender,
		obj:     true,
	}
}

func (m setupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		if m.cursor == fieldInputPath || m.cursor == fieldBlenderPath {
			if key.String() == "q" {
				break // q is a literal character inside text fields
			}
		}
		return m, tea.Quit
	case "up", "shift+tab":
		m.errMsg = ""
		if m.cursor > 0 {
			m.cursor--
		}
		m.syncFocus()
		return m, nil
	case "down", "tab":
		m.errMsg = ""
		if m.cursor < fieldCount-1 {
			m.cursor++
		}
		m.syncFocus()
		return m, nil
	case " ", "space":
		switch m.cursor {
		case fieldNormals:
			m.normals = !m.normals
			return m, nil
		case fieldOBJ:
			m.obj = !m.obj
			return m, nil
		case fieldGLTF:
			m.gltf = !m.gltf
			return m, nil
		}
	case "enter":
		if m.cursor == fieldConfirm {
			if err := m.validate(); err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.confirmed = true
			return m, tea.Quit
		}
		m.cursor++
		m.syncFocus()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.cursor {
	case fieldInputPath:
		m.input, cmd = m.input.Update(msg)
	case fieldBlenderPath:
		m.blender, cmd = m.blender.Update(msg)
	}
	return m, cmd
}

func (m *setupModel) syncFocus() {
	m.input.Blur()
	m.blender.Blur()
	switch m.cursor {
	case fieldInputPath:
		m.input.Focus()
	case fieldBlenderPath:
		m.blender.Focus()
	}
}

func (m setupModel) validate() error {
	path := strings.TrimSpace(m.input.Value())
	if path == "" {
		return errors.New("input path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("input path %s does not exist", path)
	}
	if !m.normals && !m.obj && !m.gltf {
		return errors.New("select at least one operation")
	}
	if m.gltf && strings.TrimSpace(m.blender.Value()) == "" {
		return errors.New("glTF export needs a blender path")
	}
	return nil
}

func (m setupModel) View() string {
	var b strings.Builder
	b.WriteString(setupTitleStyle.Render("ogre-mesh-tools setup"))
	b.WriteString("\n\n")

	row := func(field setupField, label string) {
		if m.cursor == field {
			b.WriteString(setupSelStyle.Render("> " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n")
	}

	row(fieldInputPath, "input:   "+m.input.View())
	row(fieldNormals, "[ "+checkMark(m.normals)+" ] recalculate normals")
	row(fieldOBJ, "[ "+checkMark(m.obj)+" ] export OBJ")
	row(fieldGLTF, "[ "+checkMark(m.gltf)+" ] export glTF (Blender)")
	row(fieldBlenderPath, "blender: "+m.blender.View())
	row(fieldConfirm, "[ run conversion ]")

	if m.errMsg != "" {
		b.WriteString("\n" + failStyle.Render(m.errMsg) + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("tab/arrows move, space toggles, enter confirms, esc quits") + "\n")
	return setupPanelStyle.Render(b.String())
}

func checkMark(v bool) string {
	if v {
		return "x"
	}
	return " "
}

func runSetup(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	settingsPath := fs.String("config", config.DefaultSettingsPath, "settings file path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("setup requires an interactive terminal (TTY); use convert/batch instead")
	}

	settings, err := config.Load(*settingsPath)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newSetupModel(settings))
	final, err := p.Run()
	if err != nil {
		return err
	}
	m, ok := final.(setupModel)
	if !ok || !m.confirmed {
		return nil
	}

	// Remember the blender path for the next run.
	blender := strings.TrimSpace(m.blender.Value())
	if blender != "" && blender != settings.BlenderPath {
		settings.BlenderPath = blender
		if err := config.Save(*settingsPath, settings); err != nil {
			return err
		}
	}

	ops := make([]model.Operation, 0, 3)
	if m.normals {
		ops = append(ops, model.OpRecalcNormals)
	}
	if m.obj {
		ops = append(ops, model.OpExportOBJ)
	}
	if m.gltf {
		ops = append(ops, model.OpExportGLTF)
	}

	inputPath := strings.TrimSpace(m.input.Value())
	info, err := os.Stat(inputPath)
	if err != nil {
		return err
	}

	if info.IsDir() {
		report, err := batch.Run(context.Background(), batch.Options{
			Dir:         inputPath,
			Operations:  ops,
			BlenderPath: blender,
			Workers:     settings.Workers,
			OnItem: func(completed, total int, res model.ItemResult) {
				status := okStyle.Render("done")
				if !res.Succeeded() {
					status = failStyle.Render("fail")
				}
				fmt.Printf("[%d/%d] %s %s\n", completed, total, status, res.InputPath)
			},
		}, toolchain.Locate())
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(renderSummary(batch.Summarize(report)))
		return nil
	}

	result := pipeline.New(toolchain.Locate()).Run(model.ConversionRequest{
		InputPath:   inputPath,
		Operations:  ops,
		BlenderPath: blender,
	})
	printItemResult(result)
	if failed := result.FailedCount(); failed > 0 {
		return fmt.Errorf("%d operation(s) failed", failed)
	}
	return nil
}
