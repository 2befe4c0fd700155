package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"knox/internal/buildpipeline"
	"knox/internal/ui"
)

type buildOutcome struct {
	result buildpipeline.BuildResult
	err    error
}

// runBuildWithUI runs the build in the background and renders its events.
func runBuildWithUI(ctx context.Context, out io.Writer, title string, req *buildpipeline.BuildRequest) (buildpipeline.BuildResult, error) {
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Build(ctx, &reqCopy)
		outcomeCh <- buildOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// после ctrl+c или ошибки UI события надо дочитать, иначе Build застрянет на полном канале
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
