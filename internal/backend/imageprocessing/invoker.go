package imageprocessing

import (
	"fmt"
	"log/slog"
	"time"
)

// CommandInvoker executes a sequence of commands on image data
type CommandInvoker struct {
	name     string
	commands []Command
}

func NewCommandInvoker(name string, commands []Command) *CommandInvoker {
	return &CommandInvoker{
		name:     name,
		commands: commands,
	}
}

// NewCommandInvokerFromConfig builds every configured command up front so that
// configuration errors surface at startup rather than on the first request.
func NewCommandInvokerFromConfig(name string, configs []CommandConfig) (*CommandInvoker, error) {
	commands := make([]Command, 0, len(configs))
	for i, config := range configs {
		command, err := DefaultRegistry.Create(config.Name, config.Params)
		if err != nil {
			return nil, fmt.Errorf("variant %s: command at index %d: %w", name, i, err)
		}
		commands = append(commands, command)
	}
	return NewCommandInvoker(name, commands), nil
}

func (i *CommandInvoker) Name() string {
	return i.name
}

// Execute applies all commands in sequence to the image data
func (i *CommandInvoker) Execute(imageData []byte) ([]byte, error) {
	if len(i.commands) == 0 {
		return imageData, nil
	}

	start := time.Now()
	currentData := imageData

	for idx, command := range i.commands {
		processedData, err := command.Execute(currentData)
		if err != nil {
			slog.Error("command execution failed",
				"variant", i.name,
				"index", idx,
				"command_name", command.Name(),
				"error", err,
				"input_size_bytes", len(currentData))
			return nil, fmt.Errorf("command %s (index %d) failed: %w", command.Name(), idx, err)
		}
		currentData = processedData
	}

	slog.Debug("image variant rendered",
		"variant", i.name,
		"command_count", len(i.commands),
		"duration_ms", time.Since(start).Milliseconds(),
		"input_size_bytes", len(imageData),
		"output_size_bytes", len(currentData))

	return currentData, nil
}
