// Package config loads per-button tuning overrides and action bindings from a file.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sweeney/button-handler/internal/logic"
)

// File is the on-disk layout, YAML or JSON.
type File struct {
	Buttons  []ButtonOverride `json:"buttons"`
	Bindings []BindingSpec    `json:"bindings"`
}

// ButtonOverride replaces the default tuning of one button. Unset fields keep the default.
type ButtonOverride struct {
	ID                 int    `json:"id"`
	EnableMultiPress   *bool  `json:"enable_multi_press"`
	MultiPressInterval string `json:"multi_press_interval"`
	LongPressThreshold string `json:"long_press_threshold"`
	MaxMultiPress      *int   `json:"max_multi_press"`
}

// BindingSpec publishes Payload to Topic when Action is classified on Button.
type BindingSpec struct {
	Button   int    `json:"button"`
	Action   string `json:"action"`
	Topic    string `json:"topic"`
	Payload  string `json:"payload"`
	Retained bool   `json:"retained"`
}

// Binding is a validated BindingSpec.
type Binding struct {
	Button   int
	Action   logic.Action
	Topic    string
	Payload  string
	Retained bool
}

// Config is the resolved file content.
type Config struct {
	// Buttons holds the tuning of every overridden button, keyed by id.
	Buttons  map[int]logic.Config
	Bindings []Binding
}

// Load reads and resolves the file at path against base.
func Load(path string, base logic.Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(path, data, base)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data, using the extension of path to pick the format.
// Unknown keys are rejected.
func Parse(path string, data []byte, base logic.Config) (*Config, error) {
	j, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, err
	}

	var f File
	dec := json.NewDecoder(bytes.NewReader(j))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return f.Resolve(base)
}

// Resolve validates f and applies its overrides on top of base.
func (f File) Resolve(base logic.Config) (*Config, error) {
	out := &Config{Buttons: make(map[int]logic.Config, len(f.Buttons))}

	for i, o := range f.Buttons {
		path := fmt.Sprintf("buttons[%d]", i)
		if o.ID < 0 {
			return nil, fmt.Errorf("%w: %s: id must be non-negative, got %d", logic.ErrConfig, path, o.ID)
		}
		if _, dup := out.Buttons[o.ID]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate override for button %d", logic.ErrConfig, path, o.ID)
		}

		var err error
		c := base
		if o.EnableMultiPress != nil {
			c.EnableMultiPress = *o.EnableMultiPress
		}
		if o.MaxMultiPress != nil {
			c.MaxMultiPress = *o.MaxMultiPress
		}
		if c.MultiPressInterval, err = parseTicksOrDefault(path+".multi_press_interval", o.MultiPressInterval, c.MultiPressInterval); err != nil {
			return nil, err
		}
		if c.LongPressThreshold, err = parseTicksOrDefault(path+".long_press_threshold", o.LongPressThreshold, c.LongPressThreshold); err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out.Buttons[o.ID] = c
	}

	for i, b := range f.Bindings {
		path := fmt.Sprintf("bindings[%d]", i)
		if b.Button < 0 {
			return nil, fmt.Errorf("%w: %s: button must be non-negative, got %d", logic.ErrConfig, path, b.Button)
		}
		if b.Topic == "" {
			return nil, fmt.Errorf("%w: %s: topic is required", logic.ErrConfig, path)
		}
		action, err := logic.ParseAction(b.Action)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out.Bindings = append(out.Bindings, Binding{
			Button:   b.Button,
			Action:   action,
			Topic:    b.Topic,
			Payload:  b.Payload,
			Retained: b.Retained,
		})
	}

	return out, nil
}

// MaxButton returns the highest button id referenced by overrides or bindings, or -1.
func (c *Config) MaxButton() int {
	hi := -1
	for id := range c.Buttons {
		if id > hi {
			hi = id
		}
	}
	for _, b := range c.Bindings {
		if b.Button > hi {
			hi = b.Button
		}
	}
	return hi
}
