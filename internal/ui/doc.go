// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through one migration:
//  1. [MenuView] : Pick a mode (full, extract only, migrate only)
//  2. [InputView] : Enter the Anghami playlist URL and destination name, pre-filled from flags
//  3. [ProgressView] : Monitor real-time progress updates; ctrl+c cancels the run
//  4. [ResultView] : Match summary, playlist link and report path
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [tasks.Pipeline], providing non-blocking status reporting.
//
// Logging goes to a file while the TUI is running so it does not draw over the views.
package ui
