package manifest

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

//go:embed manifests/*
var manifestsFS embed.FS

// Renderer turns a named template and data into applyable YAML.
type Renderer interface {
	Render(name string, data any) ([]byte, error)
}

// Templates renders manifests from the embedded filesystem.
type Templates struct {
	embedded fs.FS
	override fs.FS
}

// Option configures Templates.
type Option func(*Templates)

// WithOverrideDir makes files under dir take precedence over the embedded
// manifests with the same relative name.
func WithOverrideDir(dir string) Option {
	return func(t *Templates) {
		if dir != "" {
			t.override = os.DirFS(dir)
		}
	}
}

// New returns a Renderer backed by the embedded manifests.
func New(opts ...Option) *Templates {
	sub, err := fs.Sub(manifestsFS, "manifests")
	if err != nil {
		panic(fmt.Sprintf("embedded manifests: %v", err))
	}
	t := &Templates{embedded: sub}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Render renders the file or directory name with data.
func (t *Templates) Render(name string, data any) ([]byte, error) {
	name = path.Clean(name)
	info, err := fs.Stat(t.embedded, name)
	if err != nil {
		return nil, fmt.Errorf("unknown manifest %s: %w", name, err)
	}
	if !info.IsDir() {
		return t.renderFile(name, data)
	}

	entries, err := fs.ReadDir(t.embedded, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifests at %s: %w", name, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var combined bytes.Buffer
	for _, entry := range entries {
		if entry.IsDir() || !isManifestFile(entry.Name()) {
			continue
		}
		out, err := t.renderFile(path.Join(name, entry.Name()), data)
		if err != nil {
			return nil, err
		}
		appendYAML(&combined, out)
	}
	if combined.Len() == 0 {
		return nil, fmt.Errorf("no YAML manifests found at %s", name)
	}
	return combined.Bytes(), nil
}

func (t *Templates) renderFile(name string, data any) ([]byte, error) {
	content, err := t.read(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Funcs(funcMap()).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (t *Templates) read(name string) ([]byte, error) {
	if t.override != nil {
		if content, err := fs.ReadFile(t.override, name); err == nil {
			return content, nil
		}
	}
	content, err := fs.ReadFile(t.embedded, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file %s: %w", name, err)
	}
	return content, nil
}

func funcMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["toYaml"] = func(v any) (string, error) {
		out, err := yaml.Marshal(v)
		return strings.TrimSuffix(string(out), "\n"), err
	}
	return funcs
}

func isManifestFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func appendYAML(buffer *bytes.Buffer, content []byte) {
	if buffer.Len() > 0 {
		buffer.WriteString("\n---\n")
	}
	buffer.Write(content)
}

// Decode parses a single YAML or JSON document into an object.
func Decode(doc []byte) (*unstructured.Unstructured, error) {
	jsonData, err := yaml.YAMLToJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert manifest to JSON: %w", err)
	}
	obj := &unstructured.Unstructured{}
	if err := obj.UnmarshalJSON(jsonData); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return obj, nil
}

// Encode serializes obj as YAML.
func Encode(obj *unstructured.Unstructured) ([]byte, error) {
	return yaml.Marshal(obj.Object)
}
