package ui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"cscan/internal/driver"
)

// RunDirScan runs scan in the background while the progress view renders its
// events to out. scan must not close events; RunDirScan does that.
func RunDirScan[T any](ctx context.Context, title string, files []string, out io.Writer, scan func(ctx context.Context, sink driver.ProgressSink) (T, error)) (T, error) {
	events := make(chan driver.Event, 256)
	type outcome struct {
		res T
		err error
	}
	outcomeCh := make(chan outcome, 1)

	go func() {
		res, err := scan(ctx, driver.ChannelSink{Ch: events})
		outcomeCh <- outcome{res: res, err: err}
		close(events)
	}()

	model := NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// вид мог закрыться раньше (Ctrl+C): дочитываем канал, чтобы скан не встал
	go func() {
		for range events {
		}
	}()
	result := <-outcomeCh
	if uiErr != nil && result.err == nil {
		return result.res, uiErr
	}
	return result.res, result.err
}
