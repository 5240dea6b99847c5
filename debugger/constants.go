package debugger

// TUI panel geometry.
const (
	// registerViewRows is the fixed height of the register panel: 8 rows
	// of registers plus pc/psr/preg lines and borders.
	registerViewRows = 13

	// memoryDisplayRows is the number of 16-byte rows in the memory hex
	// dump panel.
	memoryDisplayRows = 8

	// disasmLinesBefore/disasmLinesTotal center the disassembly view a few
	// instructions above PC with most of the context below it.
	disasmLinesBefore = 8
	disasmLinesTotal  = 24
)
