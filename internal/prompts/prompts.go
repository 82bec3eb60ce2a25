// Package prompts renders the LLM prompts used to expand a topic into
// monitoring keywords.
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/socialwatch/searchagent/internal/keywords"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Kind names the prompt variant picked for a topic.
type Kind string

const (
	KindEnglish Kind = "english"
	KindIndian  Kind = "indian"
)

// Rendered is a prompt ready to send to the model.
type Rendered struct {
	Kind Kind
	Text string
}

// Data is the template input.
type Data struct {
	Topic   string
	Context string
}

type file struct {
	English string `yaml:"english"`
	Indian  string `yaml:"indian"`
}

// Set holds the parsed prompt templates.
type Set struct {
	english *template.Template
	indian  *template.Template
}

// Default returns the embedded prompt set.
func Default() (*Set, error) {
	return Parse(defaultPrompts, nil)
}

// Load returns the embedded prompts with any templates in path laid over
// them. An empty path yields the defaults.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	override, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	return Parse(defaultPrompts, override)
}

// Parse builds a Set from base YAML, with non-empty entries of override
// replacing their base counterparts.
func Parse(base, override []byte) (*Set, error) {
	var f file
	if err := yaml.Unmarshal(base, &f); err != nil {
		return nil, fmt.Errorf("decode prompts: %w", err)
	}
	if len(override) > 0 {
		var o file
		if err := yaml.Unmarshal(override, &o); err != nil {
			return nil, fmt.Errorf("decode prompt overrides: %w", err)
		}
		if strings.TrimSpace(o.English) != "" {
			f.English = o.English
		}
		if strings.TrimSpace(o.Indian) != "" {
			f.Indian = o.Indian
		}
	}

	var result *multierror.Error
	english, err := compile(KindEnglish, f.English)
	if err != nil {
		result = multierror.Append(result, err)
	}
	indian, err := compile(KindIndian, f.Indian)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &Set{english: english, indian: indian}, nil
}

func compile(kind Kind, text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("prompt %s is empty", kind)
	}
	tmpl, err := template.New(string(kind)).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", kind, err)
	}
	if err := tmpl.Execute(&strings.Builder{}, Data{}); err != nil {
		return nil, fmt.Errorf("render prompt %s: %w", kind, err)
	}
	return tmpl, nil
}

// KindFor picks the prompt variant for a topic.
func KindFor(topic string) Kind {
	if keywords.IsASCII(topic) {
		return KindEnglish
	}
	return KindIndian
}

// Render fills the template matching topic.
func (s *Set) Render(topic, context string) (Rendered, error) {
	if s == nil {
		return Rendered{}, errors.New("prompts: nil set")
	}
	kind := KindFor(topic)
	tmpl := s.english
	if kind == KindIndian {
		tmpl = s.indian
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, Data{Topic: topic, Context: context}); err != nil {
		return Rendered{}, fmt.Errorf("render prompt %s: %w", kind, err)
	}
	return Rendered{Kind: kind, Text: b.String()}, nil
}
