package debugger

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/cbgeyer/sparc-ext-sim/diag"
)

// TUI is the tcell/tview text interface: a register/state panel, a
// disassembly panel, an output log, and a command input line.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	DisassemblyView *tview.TextView
	RegisterView    *tview.TextView
	MemoryView      *tview.TextView
	StateView       *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	MemoryAddress uint32
}

func NewTUI(debugger *Debugger) *TUI {
	return NewTUIWithScreen(debugger, nil)
}

// NewTUIWithScreen builds a TUI against an explicit tcell.Screen, letting
// tests drive it with a tcell.SimulationScreen instead of a real terminal.
func NewTUIWithScreen(debugger *Debugger, screen tcell.Screen) *TUI {
	app := tview.NewApplication()
	if screen != nil {
		app.SetScreen(screen)
	}
	t := &TUI{Debugger: debugger, App: app}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.DisassemblyView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.RegisterView = tview.NewTextView().SetDynamicColors(true).SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.StateView = tview.NewTextView().SetDynamicColors(true).SetScrollable(false)
	t.StateView.SetBorder(true).SetTitle(" Predicate / HW Loop / Cycles ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints / Watchpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.DisassemblyView, 0, 3, false).
		AddItem(t.MemoryView, 0, 2, false)

	rightTop := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, registerViewRows, 0, false).
		AddItem(t.StateView, 6, 0, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rightTop, 0, 3, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

func (t *TUI) executeCommand(cmd string) {
	t.Debugger.Output.Reset()
	err := t.Debugger.ExecuteCommand(cmd)
	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	runUntilStop(t.Debugger)
	t.RefreshAll()
}

func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

func (t *TUI) RefreshAll() {
	t.UpdateDisassemblyView()
	t.UpdateRegisterView()
	t.UpdateMemoryView()
	t.UpdateStateView()
	t.UpdateBreakpointsView()
}

func (t *TUI) UpdateDisassemblyView() {
	m := t.Debugger.Machine
	var start uint32
	if m.PC > disasmLinesBefore {
		start = m.PC - disasmLinesBefore
	}
	t.DisassemblyView.SetText(diag.DisassembleRange(m, start, disasmLinesTotal))
}

func (t *TUI) UpdateRegisterView() {
	t.RegisterView.SetText(diag.DumpRegisters(t.Debugger.Machine))
}

func (t *TUI) UpdateMemoryView() {
	t.MemoryView.SetText(diag.DumpMemory(t.Debugger.Machine, t.MemoryAddress, memoryDisplayRows))
}

func (t *TUI) UpdateStateView() {
	m := t.Debugger.Machine
	start, end, bound, armed := m.HWLoopState()
	text := fmt.Sprintf("predicate active: %v\nhwloop start=%d end=%d bound=%d armed=%v\n%s",
		m.PredicateActive(), start, end, bound, armed, diag.DumpCycles(m))
	t.StateView.SetText(text)
}

func (t *TUI) UpdateBreakpointsView() {
	var lines string
	bps := t.Debugger.Breakpoints.GetAllBreakpoints()
	if len(bps) == 0 {
		lines += "[yellow]No breakpoints set[white]\n"
	} else {
		for _, bp := range bps {
			status, color := "enabled", "green"
			if !bp.Enabled {
				status, color = "disabled", "red"
			}
			lines += fmt.Sprintf("  %d: [%s]%s[white] instr %d (hits: %d)\n", bp.ID, color, status, bp.InstrNo, bp.HitCount)
		}
	}

	wps := t.Debugger.Watchpoints.GetAllWatchpoints()
	if len(wps) > 0 {
		lines += "[yellow]Watchpoints:[white]\n"
		for _, wp := range wps {
			lines += fmt.Sprintf("  %d: %s = 0x%08x\n", wp.ID, wp.Expression, wp.LastValue)
		}
	}

	t.BreakpointsView.SetText(lines)
}

func (t *TUI) Run() error {
	t.RefreshAll()
	t.WriteOutput("[green]sparcsim debugger[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F11 to step\n")
	t.WriteOutput("Type 'help' for the full command list\n\n")
	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

func (t *TUI) Stop() { t.App.Stop() }
