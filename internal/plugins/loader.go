package plugins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// externalPlugin wraps functions exported by an interpreted plugin file
type externalPlugin struct {
	name        string
	description string
	input       func(string) string
	output      func(string) string
}

func (p *externalPlugin) Name() string        { return p.name }
func (p *externalPlugin) Description() string { return p.description }

func (p *externalPlugin) ProcessInput(ctx context.Context, pc *Context, input string) (*InputResult, error) {
	if p.input == nil {
		return nil, nil
	}
	return &InputResult{Text: p.input(input)}, nil
}

func (p *externalPlugin) ProcessOutput(ctx context.Context, pc *Context, output string) (string, error) {
	if p.output == nil {
		return output, nil
	}
	return p.output(output), nil
}

// loadExternal interprets a plugin source file with yaegi. The file must
// declare package main and export Name and Description functions; it may
// export ProcessInput and ProcessOutput to hook into the chat pipeline.
func loadExternal(path string) (*externalPlugin, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load interpreter symbols: %w", err)
	}

	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("failed to interpret plugin: %w", err)
	}

	plugin := &externalPlugin{}

	nameVal, err := i.Eval("main.Name")
	if err != nil {
		return nil, fmt.Errorf("plugin does not export Name: %w", err)
	}
	nameFn, ok := nameVal.Interface().(func() string)
	if !ok {
		return nil, fmt.Errorf("plugin Name must be func() string")
	}
	plugin.name = nameFn()
	if plugin.name == "" {
		return nil, fmt.Errorf("plugin Name returned empty string")
	}

	descVal, err := i.Eval("main.Description")
	if err != nil {
		return nil, fmt.Errorf("plugin does not export Description: %w", err)
	}
	descFn, ok := descVal.Interface().(func() string)
	if !ok {
		return nil, fmt.Errorf("plugin Description must be func() string")
	}
	plugin.description = descFn()

	if inputVal, err := i.Eval("main.ProcessInput"); err == nil {
		fn, ok := inputVal.Interface().(func(string) string)
		if !ok {
			return nil, fmt.Errorf("plugin ProcessInput must be func(string) string")
		}
		plugin.input = fn
	}

	if outputVal, err := i.Eval("main.ProcessOutput"); err == nil {
		fn, ok := outputVal.Interface().(func(string) string)
		if !ok {
			return nil, fmt.Errorf("plugin ProcessOutput must be func(string) string")
		}
		plugin.output = fn
	}

	return plugin, nil
}

// pluginID derives a stable plugin identifier from its source filename
func pluginID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".go")
}

// listPluginFiles returns the Go source files in dir. A missing
// directory is not an error, it just means no external plugins.
func listPluginFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plugin directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
