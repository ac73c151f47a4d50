package manifest

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultVersion is written for dependencies that have no pinned version.
const DefaultVersion = "latest"

// Manifest field names owned by the merger.
const (
	FieldScripts         = "scripts"
	FieldLintStaged      = "lint-staged"
	FieldDependencies    = "dependencies"
	FieldDevDependencies = "devDependencies"
)

// Patch is the set of manifest changes accumulated from enabled features.
type Patch struct {
	Scripts         map[string]string
	LintStaged      map[string]string
	Dependencies    []string
	DevDependencies []string
	// Versions pins dependency versions by package name.
	Versions map[string]string
}

// Merge applies p to the document. Scripts and lint-staged entries overwrite
// existing keys and new keys are appended in sorted order. Dependencies are
// added at their pinned version (or DefaultVersion) unless already present,
// and both dependency maps are re-sorted by name. Fields the patch does not
// name keep their position. Nothing is changed when an owned field exists
// but is not an object.
func (d *Document) Merge(p Patch) error {
	for _, key := range []string{FieldScripts, FieldLintStaged, FieldDependencies, FieldDevDependencies} {
		if val := lookup(d.root, key); val != nil && val.Kind != yaml.MappingNode {
			return fmt.Errorf("manifest field %q is not an object", key)
		}
	}

	mergeValues(d.root, FieldScripts, p.Scripts)
	mergeValues(d.root, FieldLintStaged, p.LintStaged)
	addDependencies(d.root, FieldDependencies, p.Dependencies, p.Versions)
	addDependencies(d.root, FieldDevDependencies, p.DevDependencies, p.Versions)
	return nil
}

func mergeValues(root *yaml.Node, field string, values map[string]string) {
	if len(values) == 0 {
		return
	}
	obj := object(root, field)
	for _, key := range sortedKeys(values) {
		if val := lookup(obj, key); val != nil {
			*val = *stringNode(values[key])
			continue
		}
		obj.Content = append(obj.Content, stringNode(key), stringNode(values[key]))
	}
}

func addDependencies(root *yaml.Node, field string, names []string, versions map[string]string) {
	obj := lookup(root, field)
	if obj == nil {
		if len(names) == 0 {
			return
		}
		obj = object(root, field)
	}
	for _, name := range names {
		if lookup(obj, name) != nil {
			continue
		}
		version := versions[name]
		if version == "" {
			version = DefaultVersion
		}
		obj.Content = append(obj.Content, stringNode(name), stringNode(version))
	}
	sortMapping(obj)
}

// object returns the mapping stored under field, appending an empty one when
// the field is absent.
func object(root *yaml.Node, field string) *yaml.Node {
	if val := lookup(root, field); val != nil {
		return val
	}
	obj := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Style: yaml.FlowStyle}
	root.Content = append(root.Content, stringNode(field), obj)
	return obj
}

type pair struct{ key, value *yaml.Node }

func sortMapping(obj *yaml.Node) {
	pairs := make([]pair, 0, len(obj.Content)/2)
	for i := 0; i+1 < len(obj.Content); i += 2 {
		pairs = append(pairs, pair{obj.Content[i], obj.Content[i+1]})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key.Value < pairs[j].key.Value })
	obj.Content = obj.Content[:0]
	for _, p := range pairs {
		obj.Content = append(obj.Content, p.key, p.value)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
